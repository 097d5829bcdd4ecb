package api

import (
	"context"
	"fmt"

	"github.com/rickgao/marketdash/internal/model"
)

// QueryMarkets fetches one page of the market listing.
func (c *Client) QueryMarkets(ctx context.Context, q MarketQuery) (*model.MarketPage, error) {
	var page model.MarketPage
	if err := c.get(ctx, request{path: "/markets/query", rawQuery: q.Encode()}, &page); err != nil {
		return nil, fmt.Errorf("query markets: %w", err)
	}
	if page.Data == nil {
		page.Data = []model.MarketRecord{}
	}
	return &page, nil
}

// QueryStock fetches the bar series of one stock over a date range.
func (c *Client) QueryStock(ctx context.Context, q StockQuery) ([]model.StockBar, error) {
	if q.Code == "" {
		return nil, fmt.Errorf("query stock: %w", &ParamError{Param: "code", Value: q.Code})
	}

	var bars []model.StockBar
	if err := c.get(ctx, request{path: "/markets/querystock", rawQuery: q.Encode()}, &bars); err != nil {
		return nil, fmt.Errorf("query stock %s: %w", q.Code, err)
	}
	if bars == nil {
		bars = []model.StockBar{}
	}
	return bars, nil
}
