package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/pkg/types"
)

func testResult() types.ExecutionResult {
	return types.ExecutionResult{
		OpportunityID: "opp-123",
		PairID:        "pair-123",
		ExecutedAt:    time.Now(),
		FirstLeg: &types.OrderTicket{
			Venue: types.VenuePolymarketlike, FilledQty: 50, AvgFillPrice: 0.40, State: types.OrderFilled,
		},
		SecondLeg: &types.OrderTicket{
			Venue: types.VenueKalshilike, FilledQty: 50, AvgFillPrice: 0.40, State: types.OrderFilled,
		},
		RealizedProfit: 8.5,
		Success:        true,
	}
}

func TestConsoleStorage_New(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	s := NewConsoleStorage(logger)
	if s == nil {
		t.Fatal("expected non-nil storage")
	}
}

func TestConsoleStorage_StoreResult(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewConsoleStorage(logger)

	result := testResult()
	ctx := context.Background()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := s.StoreResult(ctx, result)

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if !bytes.Contains([]byte(output), []byte("EXECUTION SETTLED")) {
		t.Error("expected output to contain 'EXECUTION SETTLED'")
	}

	if !bytes.Contains([]byte(output), []byte(result.OpportunityID)) {
		t.Errorf("expected output to contain opportunity id %s", result.OpportunityID)
	}
}

func TestConsoleStorage_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	s := NewConsoleStorage(logger)

	if err := s.Close(); err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}
}

func TestPostgresStorage_StoreResult(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	s := &PostgresStorage{db: db, logger: logger}
	result := testResult()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO execution_results").
		WithArgs(
			result.OpportunityID,
			result.PairID,
			sqlmock.AnyArg(), // ExecutedAt
			string(types.VenuePolymarketlike), result.FirstLeg.FilledQty, result.FirstLeg.AvgFillPrice,
			string(types.VenueKalshilike), result.SecondLeg.FilledQty, result.SecondLeg.AvgFillPrice,
			result.RealizedProfit,
			result.Success,
			"",
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.StoreResult(ctx, result); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_StoreResult_Error(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	s := &PostgresStorage{db: db, logger: logger}
	result := testResult()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO execution_results").
		WithArgs(
			result.OpportunityID,
			result.PairID,
			sqlmock.AnyArg(),
			string(types.VenuePolymarketlike), result.FirstLeg.FilledQty, result.FirstLeg.AvgFillPrice,
			string(types.VenueKalshilike), result.SecondLeg.FilledQty, result.SecondLeg.AvgFillPrice,
			result.RealizedProfit,
			result.Success,
			"",
		).
		WillReturnError(sqlmock.ErrCancelled)

	if err := s.StoreResult(ctx, result); err == nil {
		t.Error("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	s := &PostgresStorage{db: db, logger: logger}

	mock.ExpectClose()

	if err := s.Close(); err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStorage_Interface(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	var _ Storage = NewConsoleStorage(logger)

	db, _, _ := sqlmock.New()
	defer db.Close()

	var _ Storage = &PostgresStorage{db: db, logger: logger}
}
