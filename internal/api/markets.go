package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mwhitt/chartwatch/internal/model"
)

// ErrMarketNotFound means no market matched the id or slug set.
var ErrMarketNotFound = errors.New("market not found")

// marketWire is the wire format for a market metadata row.
type marketWire struct {
	MarketID    string `json:"market_id"`
	Slug        string `json:"slug"`
	WindowStart string `json:"window_start"` // ISO-8601
}

type marketsResponse struct {
	Markets []marketWire `json:"markets"`
}

// ResolveMarket resolves a market id or slug set to the canonical market id
// and the grid-origin timestamp. Called once per run.
func (c *Client) ResolveMarket(ctx context.Context, marketID string, slugs []string) (*model.MarketMeta, error) {
	query := url.Values{}
	if marketID != "" {
		query.Set("id", marketID)
	} else if len(slugs) > 0 {
		query.Set("slugs", strings.Join(slugs, ","))
	} else {
		return nil, ErrMarketNotFound
	}

	var resp marketsResponse
	if err := c.get(ctx, "/markets", query, &resp); err != nil {
		return nil, fmt.Errorf("resolve market: %w", err)
	}
	if len(resp.Markets) == 0 {
		return nil, ErrMarketNotFound
	}

	m := resp.Markets[0]
	meta := &model.MarketMeta{
		MarketID: m.MarketID,
		Slug:     m.Slug,
	}
	if m.WindowStart != "" {
		t, err := time.Parse(time.RFC3339Nano, m.WindowStart)
		if err != nil {
			return nil, fmt.Errorf("parse window_start %q: %w", m.WindowStart, err)
		}
		meta.WindowStartMs = t.UnixMilli()
	}

	return meta, nil
}
