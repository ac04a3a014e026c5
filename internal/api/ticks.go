package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mwhitt/chartwatch/internal/model"
)

// tickWire is the wire format for a persisted tick row.
type tickWire struct {
	MarketID string  `json:"market_id"`
	Outcome  string  `json:"outcome"`
	Ts       string  `json:"ts"` // ISO-8601
	Mid      float64 `json:"mid"`
}

type ticksResponse struct {
	Ticks []tickWire `json:"ticks"`
}

// TicksSince fetches up to limit persisted ticks with ts strictly greater
// than afterTsMs, ascending. Implements the validator's TickSource.
func (c *Client) TicksSince(ctx context.Context, marketID string, afterTsMs int64, limit int) ([]model.PersistedTick, error) {
	query := url.Values{}
	query.Set("market_id", marketID)
	query.Set("after", time.UnixMilli(afterTsMs).UTC().Format(time.RFC3339Nano))
	query.Set("order", "asc")
	query.Set("limit", strconv.Itoa(limit))

	var resp ticksResponse
	if err := c.get(ctx, "/ticks", query, &resp); err != nil {
		return nil, fmt.Errorf("get ticks: %w", err)
	}

	rows := make([]model.PersistedTick, 0, len(resp.Ticks))
	for _, w := range resp.Ticks {
		t, err := time.Parse(time.RFC3339Nano, w.Ts)
		if err != nil {
			// A row the store cannot timestamp cannot be compared; skip it.
			c.logger.Warn("skipping persisted tick with bad ts", "ts", w.Ts)
			continue
		}
		rows = append(rows, model.PersistedTick{
			MarketID: w.MarketID,
			Outcome:  w.Outcome,
			TsMs:     t.UnixMilli(),
			Mid:      w.Mid,
		})
	}

	return rows, nil
}
