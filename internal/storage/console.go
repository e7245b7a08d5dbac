package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")

	return &ConsoleStorage{logger: logger}
}

// StoreResult pretty-prints a settled execution result to console.
func (c *ConsoleStorage) StoreResult(ctx context.Context, result types.ExecutionResult) error {
	status := "FILLED"
	if !result.Success {
		status = "INCOMPLETE"
	}

	fmt.Println("\n" + "───────────────────────────────────────────────")
	fmt.Printf("EXECUTION SETTLED  [%s]\n", status)
	fmt.Printf("  Opportunity: %s  Pair: %s\n", result.OpportunityID, result.PairID)
	fmt.Printf("  Executed at: %s\n", result.ExecutedAt.Format("2006-01-02 15:04:05"))

	if result.FirstLeg != nil {
		fmt.Printf("  Leg 1 (%s): %.2f @ %.4f (%s)\n",
			result.FirstLeg.Venue, result.FirstLeg.FilledQty, result.FirstLeg.AvgFillPrice, result.FirstLeg.State)
	}

	if result.SecondLeg != nil {
		fmt.Printf("  Leg 2 (%s): %.2f @ %.4f (%s)\n",
			result.SecondLeg.Venue, result.SecondLeg.FilledQty, result.SecondLeg.AvgFillPrice, result.SecondLeg.State)
	}

	fmt.Printf("  Realized profit: $%.4f\n", result.RealizedProfit)

	if result.Failure != nil {
		fmt.Printf("  Failure: %s\n", result.Failure.Error())
	}

	fmt.Println("───────────────────────────────────────────────")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")

	return nil
}
