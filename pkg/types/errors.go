package types

import "fmt"

// FailureKind classifies why a venue operation did not succeed, replacing
// substring-matched error codes with a closed, switchable set. Handling
// per kind is the Supervisor/strategy's responsibility; FailureKind only
// carries the classification.
type FailureKind int

const (
	// FailureUnknown is an unclassified failure: log with context, isolate
	// the affected ticket, do not crash the Supervisor.
	FailureUnknown FailureKind = iota
	// FailureTransient is a transport-level failure already retried with
	// exponential backoff inside the adapter; surfaced only once the
	// retry budget is exhausted.
	FailureTransient
	// FailureRateLimited means the venue rejected the request for rate;
	// counts against the same retry budget as FailureTransient.
	FailureRateLimited
	// FailureSchemaDrift means the venue's response no longer matches the
	// shape the adapter expects. Fatal: unsafe to continue.
	FailureSchemaDrift
	// FailureValidation means the request itself was invalid (off-grid
	// price, size below minimum). Logged and skipped, never retried.
	FailureValidation
	// FailureInsufficientBalance marks the venue/side paused for the
	// current scan; an alert is raised and the scan continues elsewhere.
	FailureInsufficientBalance
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransient:
		return "transient"
	case FailureRateLimited:
		return "rate_limited"
	case FailureSchemaDrift:
		return "schema_drift"
	case FailureValidation:
		return "validation"
	case FailureInsufficientBalance:
		return "insufficient_balance"
	default:
		return "unknown"
	}
}

// Retryable reports whether the originating call may be retried against
// the same transient-budget counter.
func (k FailureKind) Retryable() bool {
	return k == FailureTransient || k == FailureRateLimited
}

// Fatal reports whether this failure should halt the affected venue
// adapter rather than be recovered locally.
func (k FailureKind) Fatal() bool {
	return k == FailureSchemaDrift
}

// Failure is the structured error value returned by venue adapters in
// place of a bare error, so callers branch on Kind instead of matching
// substrings of Error().
type Failure struct {
	Kind    FailureKind
	Venue   Venue
	Op      string // adapter method that failed, e.g. "PlaceOrder", "FetchBook"
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s %s: %s (%v)", f.Venue, f.Op, f.Kind, f.Message, f.Cause)
	}

	return fmt.Sprintf("%s: %s %s: %s", f.Venue, f.Op, f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Result is a two-legged outcome holder: a venue call either produced a
// value of type T or a classified Failure, never both. Using a struct
// rather than (T, error) keeps the Failure's Kind available without a
// type assertion at every call site.
type Result[T any] struct {
	Value   T
	Failure *Failure
}

// Ok builds a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Err builds a failed Result.
func Err[T any](f *Failure) Result[T] {
	return Result[T]{Failure: f}
}

// IsOk reports whether the Result carries a value rather than a Failure.
func (r Result[T]) IsOk() bool {
	return r.Failure == nil
}
