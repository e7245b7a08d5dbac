package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{db: db, logger: cfg.Logger}, nil
}

// StoreResult inserts one settled execution result row. Schema:
//
//	CREATE TABLE execution_results (
//	    opportunity_id TEXT NOT NULL,
//	    pair_id        TEXT NOT NULL,
//	    executed_at    TIMESTAMPTZ NOT NULL,
//	    first_venue    TEXT, first_qty DOUBLE PRECISION, first_price DOUBLE PRECISION,
//	    second_venue   TEXT, second_qty DOUBLE PRECISION, second_price DOUBLE PRECISION,
//	    realized_profit DOUBLE PRECISION NOT NULL,
//	    success        BOOLEAN NOT NULL,
//	    failure_kind   TEXT
//	);
func (p *PostgresStorage) StoreResult(ctx context.Context, result types.ExecutionResult) error {
	var firstVenue, secondVenue string
	var firstQty, firstPrice, secondQty, secondPrice float64

	if result.FirstLeg != nil {
		firstVenue = string(result.FirstLeg.Venue)
		firstQty = result.FirstLeg.FilledQty
		firstPrice = result.FirstLeg.AvgFillPrice
	}

	if result.SecondLeg != nil {
		secondVenue = string(result.SecondLeg.Venue)
		secondQty = result.SecondLeg.FilledQty
		secondPrice = result.SecondLeg.AvgFillPrice
	}

	var failureKind string
	if result.Failure != nil {
		failureKind = result.Failure.Kind.String()
	}

	query := `
		INSERT INTO execution_results (
			opportunity_id, pair_id, executed_at,
			first_venue, first_qty, first_price,
			second_venue, second_qty, second_price,
			realized_profit, success, failure_kind
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		result.OpportunityID,
		result.PairID,
		result.ExecutedAt,
		firstVenue, firstQty, firstPrice,
		secondVenue, secondQty, secondPrice,
		result.RealizedProfit,
		result.Success,
		failureKind,
	)
	if err != nil {
		return fmt.Errorf("insert execution result: %w", err)
	}

	p.logger.Debug("execution-result-stored",
		zap.String("opportunity-id", result.OpportunityID),
		zap.String("pair-id", result.PairID),
		zap.Bool("success", result.Success))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")

	return p.db.Close()
}
