// Package tradelog appends one JSON line per executed leg to a durable,
// append-only file, for after-the-fact reconciliation and PnL accounting
// independent of whatever Storage backend is configured. Encoding is
// goccy/go-json, matching the wire codec the venue adapters use
// (internal/venue/*/wire.go), rather than encoding/json.
package tradelog

import (
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"

	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// Log appends types.TradeLogEntry records to a file, one JSON object per
// line. Safe for concurrent use by multiple strategy goroutines.
type Log struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// Open opens (creating if necessary) the trade log file for appending.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trade log %q: %w", path, err)
	}

	return &Log{file: f, enc: json.NewEncoder(f)}, nil
}

// Append writes one entry as a JSON line. Flushed immediately; the file
// is only ever appended, never rewritten.
func (l *Log) Append(entry types.TradeLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.enc.Encode(entry); err != nil {
		return fmt.Errorf("encode trade log entry: %w", err)
	}

	return nil
}

// AppendResult splits an ExecutionResult into its leg-level trade log
// entries and appends both (when present).
func (l *Log) AppendResult(positionID string, result types.ExecutionResult) error {
	for _, leg := range []*types.OrderTicket{result.FirstLeg, result.SecondLeg} {
		if leg == nil {
			continue
		}

		entry := types.TradeLogEntry{
			Timestamp:     leg.LastUpdatedAt,
			PositionID:    positionID,
			OpportunityID: result.OpportunityID,
			Venue:         leg.Venue,
			TokenID:       leg.Token.TokenID,
			Side:          leg.Side,
			Price:         leg.AvgFillPrice,
			Qty:           leg.FilledQty,
			OrderState:    leg.State,
		}

		if leg == result.SecondLeg {
			entry.RealizedProfit = result.RealizedProfit
		}

		if err := l.Append(entry); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}
