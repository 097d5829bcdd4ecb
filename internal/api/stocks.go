package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rickgao/marketdash/internal/model"
)

// Health checks that the chart service is alive.
func (c *Client) Health(ctx context.Context) error {
	if err := c.get(ctx, request{path: "/health"}, nil); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// GetStock fetches the rendered chart and financials of one ticker.
func (c *Client) GetStock(ctx context.Context, ticker string, tf model.Timeframe) (*model.StockChart, error) {
	if ticker == "" {
		return nil, fmt.Errorf("get stock: %w", &ParamError{Param: "ticker", Value: ticker})
	}
	if tf == "" {
		tf = model.TimeframeWeekly
	}

	query := url.Values{}
	query.Set("timeframe", string(tf))

	var chart model.StockChart
	r := request{path: "/api/stock/" + url.PathEscape(ticker), rawQuery: query.Encode()}
	if err := c.get(ctx, r, &chart); err != nil {
		return nil, fmt.Errorf("get stock %s: %w", ticker, err)
	}
	if chart.Financials == nil {
		chart.Financials = model.EmptyStockChart().Financials
	}
	return &chart, nil
}
