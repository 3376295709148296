package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const schemaDDL = `
	CREATE SCHEMA IF NOT EXISTS dashboard;

	CREATE TABLE IF NOT EXISTS dashboard.portfolio_snapshots (
		id                    UUID PRIMARY KEY,
		taken_at              TIMESTAMPTZ NOT NULL,
		exchange_rate         NUMERIC NOT NULL,
		rate_source           TEXT NOT NULL,
		total_valuation_usd   NUMERIC NOT NULL,
		total_profit_loss_usd NUMERIC NOT NULL,
		profit_pct            NUMERIC NOT NULL,
		position_count        INTEGER NOT NULL,
		truncated             BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_portfolio_snapshots_taken_at
		ON dashboard.portfolio_snapshots (taken_at DESC);

	CREATE TABLE IF NOT EXISTS dashboard.position_snapshots (
		snapshot_id     UUID NOT NULL REFERENCES dashboard.portfolio_snapshots(id) ON DELETE CASCADE,
		ticker          TEXT NOT NULL,
		name            TEXT NOT NULL,
		quantity        NUMERIC NOT NULL,
		valuation_usd   NUMERIC NOT NULL,
		allocation_pct  NUMERIC NOT NULL,
		profit_loss_pct NUMERIC NOT NULL,
		PRIMARY KEY (snapshot_id, ticker)
	);
`

// Repository handles snapshot persistence
// ⭐ SSOT: 스냅샷 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new snapshot repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the tables when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create snapshot schema: %w", err)
	}
	return nil
}

// Save stores a snapshot with its positions in one transaction
func (r *Repository) Save(ctx context.Context, s *Snapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO dashboard.portfolio_snapshots (
			id, taken_at, exchange_rate, rate_source, total_valuation_usd,
			total_profit_loss_usd, profit_pct, position_count, truncated
		) VALUES ($1, $2, $3::numeric, $4, $5::numeric, $6::numeric, $7::numeric, $8, $9)
	`,
		s.ID.String(), s.TakenAt, s.ExchangeRate.String(), s.RateSource, s.TotalValuationUSD.String(),
		s.TotalProfitLossUSD.String(), s.ProfitPct.String(), s.PositionCount, s.Truncated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	query := `
		INSERT INTO dashboard.position_snapshots (
			snapshot_id, ticker, name, quantity, valuation_usd, allocation_pct, profit_loss_pct
		) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric)
	`

	for _, pos := range s.Positions {
		_, err := tx.Exec(ctx, query,
			s.ID.String(), pos.Ticker, pos.Name, pos.Quantity.String(), pos.ValuationUSD.String(),
			pos.AllocationPct.String(), pos.ProfitLossPct.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert position snapshot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// List returns the most recent snapshots, newest first, without positions
func (r *Repository) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, taken_at, exchange_rate::text, rate_source, total_valuation_usd::text,
			total_profit_loss_usd::text, profit_pct::text, position_count, truncated
		FROM dashboard.portfolio_snapshots
		ORDER BY taken_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)

	for rows.Next() {
		var (
			s                            Snapshot
			id, rate, total, profit, pct string
			takenAt                      time.Time
		)
		if err := rows.Scan(&id, &takenAt, &rate, &s.RateSource, &total, &profit, &pct, &s.PositionCount, &s.Truncated); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid snapshot id %q: %w", id, err)
		}
		s.TakenAt = takenAt
		if s.ExchangeRate, err = parseDecimal("exchange_rate", rate); err != nil {
			return nil, err
		}
		if s.TotalValuationUSD, err = parseDecimal("total_valuation_usd", total); err != nil {
			return nil, err
		}
		if s.TotalProfitLossUSD, err = parseDecimal("total_profit_loss_usd", profit); err != nil {
			return nil, err
		}
		if s.ProfitPct, err = parseDecimal("profit_pct", pct); err != nil {
			return nil, err
		}

		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return snapshots, nil
}

// parseDecimal parses NUMERIC column text. NaN is a valid NUMERIC but not a decimal.
func parseDecimal(column, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", column, s, err)
	}
	return d, nil
}
