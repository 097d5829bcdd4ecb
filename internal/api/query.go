package api

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rickgao/marketdash/internal/model"
)

// Encode builds the query string for GET /markets/query.
//
// Filters are written as filter[key]=value in a fixed order, followed by
// sort, sort_direction and page. Brackets stay literal; values are escaped.
func (q MarketQuery) Encode() string {
	var b queryBuilder

	f := q.Filter
	b.addString("filter[filter_object]", f.FilterObject)
	b.addFloat("filter[return]", f.Return)
	b.addFloat("filter[max_return]", f.MaxReturn)
	b.addFloat("filter[min_market_cap]", f.MinMarketCap)
	b.addString("filter[market]", f.Market)
	b.addString("filter[date]", f.Date)

	if q.Sort != "" {
		b.add("sort", q.Sort)
	}
	if q.Direction != "" {
		b.add("sort_direction", string(q.Direction))
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	b.add("page", strconv.Itoa(page))

	return b.String()
}

// Encode builds the query string for GET /markets/querystock.
func (q StockQuery) Encode() string {
	v := url.Values{}
	v.Set("code", q.Code)
	v.Set("start_date", q.StartDate)
	v.Set("end_date", q.EndDate)
	if q.Timeframe != "" {
		v.Set("timeframe", string(q.Timeframe))
	}
	return v.Encode()
}

// queryBuilder keeps insertion order, which url.Values does not.
type queryBuilder struct {
	parts []string
}

func (b *queryBuilder) add(key, value string) {
	b.parts = append(b.parts, key+"="+url.QueryEscape(value))
}

func (b *queryBuilder) addString(key string, value *string) {
	if value != nil {
		b.add(key, *value)
	}
}

func (b *queryBuilder) addFloat(key string, value *float64) {
	if value != nil {
		b.add(key, strconv.FormatFloat(*value, 'f', -1, 64))
	}
}

func (b *queryBuilder) String() string {
	return strings.Join(b.parts, "&")
}

// ParseMarketQuery reads a MarketQuery back from URL values using the same
// keys Encode writes. The dashboard uses it to map page URLs onto store fetches.
func ParseMarketQuery(v url.Values) (MarketQuery, error) {
	var q MarketQuery

	if s := v.Get("filter[filter_object]"); s != "" {
		q.Filter.FilterObject = model.String(s)
	}
	for key, dst := range map[string]**float64{
		"filter[return]":         &q.Filter.Return,
		"filter[max_return]":     &q.Filter.MaxReturn,
		"filter[min_market_cap]": &q.Filter.MinMarketCap,
	} {
		s := v.Get(key)
		if s == "" {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return MarketQuery{}, &ParamError{Param: key, Value: s}
		}
		*dst = model.Float(f)
	}
	if s := v.Get("filter[market]"); s != "" {
		q.Filter.Market = model.String(s)
	}
	if s := v.Get("filter[date]"); s != "" {
		q.Filter.Date = model.String(s)
	}

	q.Sort = v.Get("sort")
	dir, err := model.ParseSortDirection(v.Get("sort_direction"))
	if err != nil {
		return MarketQuery{}, &ParamError{Param: "sort_direction", Value: v.Get("sort_direction")}
	}
	q.Direction = dir

	q.Page = 1
	if s := v.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return MarketQuery{}, &ParamError{Param: "page", Value: s}
		}
		q.Page = page
	}

	return q, nil
}

// ParamError reports an unparseable query parameter.
type ParamError struct {
	Param string
	Value string
}

func (e *ParamError) Error() string {
	return "invalid " + e.Param + ": " + strconv.Quote(e.Value)
}
