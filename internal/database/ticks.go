package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwhitt/chartwatch/internal/model"
)

// TickStore reads persisted ticks directly from Postgres. Implements the
// validator's TickSource, as an alternative to the REST surface.
type TickStore struct {
	db *pgxpool.Pool
}

// NewTickStore creates a TickStore over an existing pool.
func NewTickStore(db *pgxpool.Pool) *TickStore {
	return &TickStore{db: db}
}

// TicksSince fetches up to limit ticks with ts strictly greater than
// afterTsMs, ascending.
func (s *TickStore) TicksSince(ctx context.Context, marketID string, afterTsMs int64, limit int) ([]model.PersistedTick, error) {
	rows, err := s.db.Query(ctx, `
		SELECT market_id, COALESCE(outcome, ''), ts, mid
		FROM ticks
		WHERE market_id = $1 AND ts > $2
		ORDER BY ts ASC
		LIMIT $3
	`, marketID, afterTsMs, limit)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	var result []model.PersistedTick
	for rows.Next() {
		var t model.PersistedTick
		if err := rows.Scan(&t.MarketID, &t.Outcome, &t.TsMs, &t.Mid); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticks: %w", err)
	}

	return result, nil
}
