package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pairscout/engine/internal/domain"
)

// PortfolioStore implements domain.PortfolioStore using PostgreSQL. The
// single paper portfolio lives in one row; positions are stored as JSONB
// because they are only ever read and written as a unit with the cash
// balance.
type PortfolioStore struct {
	pool *pgxpool.Pool
}

// NewPortfolioStore creates a new PortfolioStore backed by the given pool.
func NewPortfolioStore(pool *pgxpool.Pool) *PortfolioStore {
	return &PortfolioStore{pool: pool}
}

// Save writes the portfolio state, replacing the previous snapshot.
func (s *PortfolioStore) Save(ctx context.Context, p domain.Portfolio) error {
	positions, err := json.Marshal(p.Positions)
	if err != nil {
		return fmt.Errorf("postgres: marshal positions: %w", err)
	}

	const query = `
		INSERT INTO portfolio (id, cash, starting_cash, trade_count, positions, updated_at)
		VALUES (1, $1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			cash          = EXCLUDED.cash,
			starting_cash = EXCLUDED.starting_cash,
			trade_count   = EXCLUDED.trade_count,
			positions     = EXCLUDED.positions,
			updated_at    = NOW()`

	if _, err := s.pool.Exec(ctx, query, p.Cash, p.StartingCash, p.TradeCount, positions); err != nil {
		return fmt.Errorf("postgres: save portfolio: %w", err)
	}
	return nil
}

// Load reads the portfolio state. It returns domain.ErrNotFound when no
// portfolio has ever been saved.
func (s *PortfolioStore) Load(ctx context.Context) (domain.Portfolio, error) {
	var p domain.Portfolio
	var positions []byte

	err := s.pool.QueryRow(ctx,
		`SELECT cash, starting_cash, trade_count, positions FROM portfolio WHERE id = 1`,
	).Scan(&p.Cash, &p.StartingCash, &p.TradeCount, &positions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Portfolio{}, domain.ErrNotFound
		}
		return domain.Portfolio{}, fmt.Errorf("postgres: load portfolio: %w", err)
	}

	if err := json.Unmarshal(positions, &p.Positions); err != nil {
		return domain.Portfolio{}, fmt.Errorf("postgres: unmarshal positions: %w", err)
	}
	return p, nil
}

// LogTrade appends one trade record to the immutable trade log.
func (s *PortfolioStore) LogTrade(ctx context.Context, rec domain.TradeRecord) error {
	yesLeg, err := json.Marshal(rec.YesLeg)
	if err != nil {
		return fmt.Errorf("postgres: marshal yes leg: %w", err)
	}
	noLeg, err := json.Marshal(rec.NoLeg)
	if err != nil {
		return fmt.Errorf("postgres: marshal no leg: %w", err)
	}

	const query = `
		INSERT INTO trades (id, pair_id, amount, yes_leg, no_leg, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.pool.Exec(ctx, query,
		rec.ID, rec.PairID, rec.Amount, yesLeg, noLeg, rec.ExecutedAt,
	); err != nil {
		return fmt.Errorf("postgres: log trade %s: %w", rec.ID, err)
	}
	return nil
}

// ListTrades returns trade records newest first.
func (s *PortfolioStore) ListTrades(ctx context.Context, opts domain.ListOpts) ([]domain.TradeRecord, error) {
	query := `SELECT id, pair_id, amount, yes_leg, no_leg, executed_at
		FROM trades ORDER BY executed_at DESC`
	args := []any{}
	argIdx := 1

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var rec domain.TradeRecord
		var yesLeg, noLeg []byte
		if err := rows.Scan(&rec.ID, &rec.PairID, &rec.Amount, &yesLeg, &noLeg, &rec.ExecutedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		if err := json.Unmarshal(yesLeg, &rec.YesLeg); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal yes leg: %w", err)
		}
		if err := json.Unmarshal(noLeg, &rec.NoLeg); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal no leg: %w", err)
		}
		trades = append(trades, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: trade rows: %w", err)
	}
	return trades, nil
}

// Compile-time interface check.
var _ domain.PortfolioStore = (*PortfolioStore)(nil)
