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

// PairStore implements domain.PairStore using PostgreSQL. The market
// snapshots a pair was built from are frozen as JSONB; rescans replace the
// keyword's rows wholesale rather than mutating them.
type PairStore struct {
	pool *pgxpool.Pool
}

// NewPairStore creates a new PairStore backed by the given connection pool.
func NewPairStore(pool *pgxpool.Pool) *PairStore {
	return &PairStore{pool: pool}
}

// ReplaceKeyword swaps the keyword's pair set in one transaction so readers
// never observe a half-rebuilt listing and pair IDs stay reproducible.
func (s *PairStore) ReplaceKeyword(ctx context.Context, keyword string, pairs []domain.Pair) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin replace pairs: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM pairs WHERE keyword = $1`, keyword); err != nil {
		return fmt.Errorf("postgres: delete pairs for %s: %w", keyword, err)
	}

	const insert = `
		INSERT INTO pairs (id, keyword, seq, market_a, market_b, rationale, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for i, p := range pairs {
		marketA, err := json.Marshal(p.MarketA)
		if err != nil {
			return fmt.Errorf("postgres: marshal market a for %s: %w", p.ID, err)
		}
		marketB, err := json.Marshal(p.MarketB)
		if err != nil {
			return fmt.Errorf("postgres: marshal market b for %s: %w", p.ID, err)
		}
		if _, err := tx.Exec(ctx, insert,
			p.ID, p.Keyword, i+1, marketA, marketB, p.Rationale, p.CreatedAt,
		); err != nil {
			return fmt.Errorf("postgres: insert pair %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit replace pairs: %w", err)
	}
	return nil
}

const pairCols = `id, keyword, market_a, market_b, rationale, created_at`

// scanPair scans a single pair row into a domain.Pair.
func scanPair(row pgx.Row) (domain.Pair, error) {
	var p domain.Pair
	var marketA, marketB []byte
	err := row.Scan(&p.ID, &p.Keyword, &marketA, &marketB, &p.Rationale, &p.CreatedAt)
	if err != nil {
		return domain.Pair{}, err
	}
	if err := json.Unmarshal(marketA, &p.MarketA); err != nil {
		return domain.Pair{}, fmt.Errorf("unmarshal market a: %w", err)
	}
	if err := json.Unmarshal(marketB, &p.MarketB); err != nil {
		return domain.Pair{}, fmt.Errorf("unmarshal market b: %w", err)
	}
	return p, nil
}

// GetByID retrieves a pair by its ID.
func (s *PairStore) GetByID(ctx context.Context, id string) (domain.Pair, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pairCols+` FROM pairs WHERE id = $1`, id)
	p, err := scanPair(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Pair{}, domain.ErrNotFound
		}
		return domain.Pair{}, fmt.Errorf("postgres: get pair %s: %w", id, err)
	}
	return p, nil
}

// ListByKeyword returns the keyword's pairs in build order.
func (s *PairStore) ListByKeyword(ctx context.Context, keyword string, opts domain.ListOpts) ([]domain.Pair, error) {
	query := `SELECT ` + pairCols + ` FROM pairs WHERE keyword = $1 ORDER BY seq`
	args := []any{keyword}
	argIdx := 2

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
		return nil, fmt.Errorf("postgres: list pairs for %s: %w", keyword, err)
	}
	defer rows.Close()

	return collectPairs(rows)
}

// List returns pairs across all keywords, ordered by keyword then build order.
func (s *PairStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Pair, error) {
	query := `SELECT ` + pairCols + ` FROM pairs ORDER BY keyword, seq`
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
		return nil, fmt.Errorf("postgres: list pairs: %w", err)
	}
	defer rows.Close()

	return collectPairs(rows)
}

func collectPairs(rows pgx.Rows) ([]domain.Pair, error) {
	var pairs []domain.Pair
	for rows.Next() {
		p, err := scanPair(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: pair rows: %w", err)
	}
	return pairs, nil
}

// CountByKeyword returns every stored keyword with its pair count.
func (s *PairStore) CountByKeyword(ctx context.Context) ([]domain.KeywordCount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT keyword, COUNT(*) FROM pairs GROUP BY keyword ORDER BY keyword`)
	if err != nil {
		return nil, fmt.Errorf("postgres: count pairs by keyword: %w", err)
	}
	defer rows.Close()

	var counts []domain.KeywordCount
	for rows.Next() {
		var kc domain.KeywordCount
		if err := rows.Scan(&kc.Keyword, &kc.PairCount); err != nil {
			return nil, fmt.Errorf("postgres: scan keyword count: %w", err)
		}
		counts = append(counts, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: keyword count rows: %w", err)
	}
	return counts, nil
}

// Count returns the number of pairs for a keyword, or all pairs when keyword
// is empty.
func (s *PairStore) Count(ctx context.Context, keyword string) (int64, error) {
	var count int64
	var err error
	if keyword == "" {
		err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pairs`).Scan(&count)
	} else {
		err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pairs WHERE keyword = $1`, keyword).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: count pairs: %w", err)
	}
	return count, nil
}

// Compile-time interface check.
var _ domain.PairStore = (*PairStore)(nil)
