package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rickgao/marketdash/internal/api"
	"github.com/rickgao/marketdash/internal/metrics"
	"github.com/rickgao/marketdash/internal/model"
)

// Store names, also used as live topics.
const (
	MarketsName = "markets"
	SeriesName  = "series"
	ChartName   = "chart"
)

// -----------------------------------------------------------------------------
// Market Listing
// -----------------------------------------------------------------------------

// MarketFetcher queries the market listing.
type MarketFetcher interface {
	QueryMarkets(ctx context.Context, q api.MarketQuery) (*model.MarketPage, error)
}

// MarketStore holds the latest market listing page.
type MarketStore struct {
	*Store[model.MarketPage]
	client MarketFetcher

	mu        sync.Mutex
	lastQuery api.MarketQuery
}

// NewMarketStore creates an empty listing store.
func NewMarketStore(client MarketFetcher, logger *slog.Logger, m *metrics.Metrics) *MarketStore {
	return &MarketStore{
		Store:  NewStore(MarketsName, model.EmptyMarketPage(), logger, m),
		client: client,
	}
}

// Fetch loads one listing page. page < 1 means the first page.
func (s *MarketStore) Fetch(ctx context.Context, filter model.FilterParams, sort string, dir model.SortDirection, page int) State[model.MarketPage] {
	return s.FetchQuery(ctx, api.MarketQuery{Filter: filter, Sort: sort, Direction: dir, Page: page})
}

// FetchQuery loads the page described by q.
func (s *MarketStore) FetchQuery(ctx context.Context, q api.MarketQuery) State[model.MarketPage] {
	s.mu.Lock()
	s.lastQuery = q
	s.mu.Unlock()

	return s.Run(ctx, func(ctx context.Context) (model.MarketPage, error) {
		page, err := s.client.QueryMarkets(ctx, q)
		if err != nil {
			return model.MarketPage{}, err
		}
		return *page, nil
	})
}

// LastQuery returns the query of the most recent fetch.
func (s *MarketStore) LastQuery() api.MarketQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

// -----------------------------------------------------------------------------
// Stock Series
// -----------------------------------------------------------------------------

// SeriesFetcher queries a stock bar series.
type SeriesFetcher interface {
	QueryStock(ctx context.Context, q api.StockQuery) ([]model.StockBar, error)
}

// SeriesStore holds the latest stock series.
type SeriesStore struct {
	*Store[[]model.StockBar]
	client SeriesFetcher

	mu        sync.Mutex
	lastQuery api.StockQuery
}

// NewSeriesStore creates an empty series store.
func NewSeriesStore(client SeriesFetcher, logger *slog.Logger, m *metrics.Metrics) *SeriesStore {
	return &SeriesStore{
		Store:  NewStore(SeriesName, []model.StockBar{}, logger, m),
		client: client,
	}
}

// Fetch loads the series of code between start and end. An empty timeframe
// leaves the choice to the backend.
func (s *SeriesStore) Fetch(ctx context.Context, code, start, end string, tf model.Timeframe) State[[]model.StockBar] {
	q := api.StockQuery{Code: code, StartDate: start, EndDate: end, Timeframe: tf}

	s.mu.Lock()
	s.lastQuery = q
	s.mu.Unlock()

	return s.Run(ctx, func(ctx context.Context) ([]model.StockBar, error) {
		return s.client.QueryStock(ctx, q)
	})
}

// LastQuery returns the query of the most recent fetch.
func (s *SeriesStore) LastQuery() api.StockQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

// -----------------------------------------------------------------------------
// Stock Chart
// -----------------------------------------------------------------------------

// ErrServiceDown is recorded when the chart service fails its health probe.
var ErrServiceDown = errors.New("API server is not responding")

// ChartFetcher fetches a rendered stock chart.
type ChartFetcher interface {
	Health(ctx context.Context) error
	GetStock(ctx context.Context, ticker string, tf model.Timeframe) (*model.StockChart, error)
}

// ChartStore holds the latest stock chart.
type ChartStore struct {
	*Store[model.StockChart]
	client      ChartFetcher
	healthCheck bool

	mu         sync.Mutex
	lastTicker string
	lastTF     model.Timeframe
}

// ChartOption configures a ChartStore.
type ChartOption func(*ChartStore)

// WithHealthCheck probes the chart service before each fetch.
func WithHealthCheck(enabled bool) ChartOption {
	return func(s *ChartStore) {
		s.healthCheck = enabled
	}
}

// NewChartStore creates an empty chart store.
func NewChartStore(client ChartFetcher, logger *slog.Logger, m *metrics.Metrics, opts ...ChartOption) *ChartStore {
	s := &ChartStore{
		Store:  NewStore(ChartName, model.EmptyStockChart(), logger, m),
		client: client,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch loads the chart of ticker. An empty timeframe means weekly.
func (s *ChartStore) Fetch(ctx context.Context, ticker string, tf model.Timeframe) State[model.StockChart] {
	s.mu.Lock()
	s.lastTicker, s.lastTF = ticker, tf
	s.mu.Unlock()

	return s.Run(ctx, func(ctx context.Context) (model.StockChart, error) {
		if s.healthCheck {
			if err := s.client.Health(ctx); err != nil {
				return model.StockChart{}, fmt.Errorf("%w: %v", ErrServiceDown, err)
			}
		}
		chart, err := s.client.GetStock(ctx, ticker, tf)
		if err != nil {
			return model.StockChart{}, err
		}
		return *chart, nil
	})
}

// LastTicker returns the ticker and timeframe of the most recent fetch.
func (s *ChartStore) LastTicker() (string, model.Timeframe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTicker, s.lastTF
}
