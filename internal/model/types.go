package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Session Types
// -----------------------------------------------------------------------------

// Credentials are sent to POST /login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserID is the backend user id. The backend may send it as a string or a number.
type UserID string

// UnmarshalJSON accepts both "42" and 42.
func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// Session is the authenticated identity and bearer token held client-side.
type Session struct {
	ID    UserID `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// Valid reports whether the session carries a usable token.
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// -----------------------------------------------------------------------------
// Market Listing Types
// -----------------------------------------------------------------------------

// MarketRecord is one row of GET /markets/query.
type MarketRecord struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	TodayROE  decimal.Decimal `json:"today_roe"`
	SwapRatio decimal.Decimal `json:"swap_ratio"`
	Amount    decimal.Decimal `json:"amount"`
	TotalCap  decimal.Decimal `json:"total_cap"`
	FreeCap   decimal.Decimal `json:"free_cap"`
	YTDROE    decimal.Decimal `json:"ytd_roe"`
	D10ROE    decimal.Decimal `json:"d10_roe"`
	D30ROE    decimal.Decimal `json:"d30_roe"`
	D90ROE    decimal.Decimal `json:"d90_roe"`
	D1YearROE decimal.Decimal `json:"d1year_roe"`
	Date      string          `json:"date"`
	Market    string          `json:"market"`
}

// Pagination describes the page returned by the backend.
type Pagination struct {
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
}

// MarketPage is the listing payload: records plus pagination.
type MarketPage struct {
	Data       []MarketRecord `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// DefaultPerPage is the page size the backend uses when none is requested.
const DefaultPerPage = 100

// EmptyMarketPage returns the listing state before any fetch.
func EmptyMarketPage() MarketPage {
	return MarketPage{
		Data: []MarketRecord{},
		Pagination: Pagination{
			TotalItems:  0,
			TotalPages:  0,
			CurrentPage: 1,
			PerPage:     DefaultPerPage,
		},
	}
}

// -----------------------------------------------------------------------------
// Stock Types
// -----------------------------------------------------------------------------

// StockBar is one point of GET /markets/querystock.
type StockBar struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
	Amount decimal.Decimal `json:"amount"`
}

// StockChart is the payload of GET /api/stock/{ticker}.
type StockChart struct {
	ChartImage string            `json:"chart_image"`
	Financials []json.RawMessage `json:"financials"`
}

// EmptyStockChart returns the chart state before any fetch.
func EmptyStockChart() StockChart {
	return StockChart{Financials: []json.RawMessage{}}
}

// -----------------------------------------------------------------------------
// Query Parameters
// -----------------------------------------------------------------------------

// FilterParams narrows the market listing. Nil fields are omitted from the query.
type FilterParams struct {
	FilterObject *string
	Return       *float64
	MaxReturn    *float64
	MinMarketCap *float64
	Market       *string
	Date         *string
}

// SortDirection orders the market listing.
type SortDirection string

const (
	SortAsc  SortDirection = "Asc"
	SortDesc SortDirection = "Desc"
)

// ParseSortDirection accepts asc/desc in any case. Empty input yields no direction.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "asc":
		return SortAsc, nil
	case "desc":
		return SortDesc, nil
	}
	return "", fmt.Errorf("invalid sort direction %q", s)
}

// Timeframe selects the bar size of a stock series.
type Timeframe string

const (
	TimeframeDaily  Timeframe = "1d"
	TimeframeWeekly Timeframe = "1w"
)

// ParseTimeframe validates a timeframe string. Empty input yields no timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case "", TimeframeDaily, TimeframeWeekly:
		return Timeframe(s), nil
	}
	return "", fmt.Errorf("invalid timeframe %q", s)
}

// String is a convenience for building optional string filters.
func String(s string) *string { return &s }

// Float is a convenience for building optional numeric filters.
func Float(f float64) *float64 { return &f }
