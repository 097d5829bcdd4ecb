package api

import "github.com/rickgao/marketdash/internal/model"

// loginRequest is the body of POST /login.
type loginRequest struct {
	User model.Credentials `json:"user"`
}

// MarketQuery holds the arguments of GET /markets/query.
type MarketQuery struct {
	Filter    model.FilterParams
	Sort      string
	Direction model.SortDirection
	Page      int // defaults to 1
}

// StockQuery holds the arguments of GET /markets/querystock.
type StockQuery struct {
	Code      string
	StartDate string
	EndDate   string
	Timeframe model.Timeframe // optional
}
