// Package storage persists one record per settled Execution Result, for
// after-the-fact PnL accounting and auditing. Grounded on the teacher's
// internal/storage (console + Postgres backends selected by
// config.StorageMode), generalized from one arbitrage.Opportunity per row
// to one types.ExecutionResult per row.
package storage

import (
	"context"

	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// Storage is the interface for persisting settled execution results.
type Storage interface {
	// StoreResult records one settled Execution Result.
	StoreResult(ctx context.Context, result types.ExecutionResult) error

	// Close releases any underlying resources.
	Close() error
}
