package query

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rickgao/marketdash/internal/api"
	"github.com/rickgao/marketdash/internal/metrics"
	"github.com/rickgao/marketdash/internal/model"
)

func TestMarketStore(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		if r.URL.Query().Get("filter[market]") == "XX" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(model.MarketPage{
			Data:       []model.MarketRecord{{Code: "600000", Name: "PFYH"}},
			Pagination: model.Pagination{TotalItems: 1, TotalPages: 1, CurrentPage: 2, PerPage: 100},
		})
	}))
	defer server.Close()

	s := NewMarketStore(api.NewClient(server.URL), testLogger(), metrics.New())

	initial := s.Get()
	if initial.Data.Pagination.CurrentPage != 1 || initial.Data.Pagination.PerPage != 100 || len(initial.Data.Data) != 0 {
		t.Errorf("initial = %+v, want empty page 1/100", initial.Data)
	}

	filter := model.FilterParams{Market: model.String("SH"), Date: model.String("2024-01-01")}
	st := s.Fetch(context.Background(), filter, "", "", 2)

	if q := gotQuery.Load(); q != "filter[market]=SH&filter[date]=2024-01-01&page=2" {
		t.Errorf("RawQuery = %q", q)
	}
	if st.Loading || st.Error != "" {
		t.Errorf("state = %+v, want success", st)
	}
	if len(st.Data.Data) != 1 || st.Data.Pagination.CurrentPage != 2 {
		t.Errorf("Data = %+v", st.Data)
	}
	if s.LastQuery().Page != 2 {
		t.Errorf("LastQuery().Page = %d, want 2", s.LastQuery().Page)
	}

	st = s.Fetch(context.Background(), model.FilterParams{Market: model.String("XX")}, "", "", 1)
	if st.Error == "" {
		t.Error("Error should be set after failed fetch")
	}
	if len(st.Data.Data) != 1 {
		t.Error("previous data should be kept after failed fetch")
	}

	s.Reset()
	if len(s.Get().Data.Data) != 0 {
		t.Error("Reset should restore the empty page")
	}
}

func TestSeriesStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/querystock" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("timeframe") != "1d" {
			t.Errorf("timeframe = %q, want 1d", r.URL.Query().Get("timeframe"))
		}
		w.Write([]byte(`[{"date":"2024-01-02","close":10.5},{"date":"2024-01-03","close":10.7}]`))
	}))
	defer server.Close()

	s := NewSeriesStore(api.NewClient(server.URL), testLogger(), metrics.New())
	st := s.Fetch(context.Background(), "600000", "2024-01-01", "2024-01-31", model.TimeframeDaily)

	if st.Error != "" {
		t.Fatalf("Error = %q", st.Error)
	}
	if len(st.Data) != 2 || st.Data[1].Close.String() != "10.7" {
		t.Errorf("Data = %+v", st.Data)
	}
	if s.LastQuery().Code != "600000" {
		t.Errorf("LastQuery().Code = %q", s.LastQuery().Code)
	}

	st = s.Fetch(context.Background(), "", "", "", "")
	if st.Error == "" {
		t.Error("Error should be set for empty code")
	}
	if len(st.Data) != 2 {
		t.Error("previous data should be kept")
	}
}

// fakeChart is a scripted ChartFetcher.
type fakeChart struct {
	healthErr    error
	healthCalls  atomic.Int32
	getStockErr  error
	getStockCall atomic.Int32
}

func (f *fakeChart) Health(context.Context) error {
	f.healthCalls.Add(1)
	return f.healthErr
}

func (f *fakeChart) GetStock(_ context.Context, ticker string, _ model.Timeframe) (*model.StockChart, error) {
	f.getStockCall.Add(1)
	if f.getStockErr != nil {
		return nil, f.getStockErr
	}
	return &model.StockChart{ChartImage: "img-" + ticker, Financials: []json.RawMessage{}}, nil
}

func TestChartStore(t *testing.T) {
	ctx := context.Background()

	t.Run("no health probe by default", func(t *testing.T) {
		f := &fakeChart{}
		s := NewChartStore(f, testLogger(), metrics.New())

		st := s.Fetch(ctx, "AAPL", model.TimeframeWeekly)
		if st.Data.ChartImage != "img-AAPL" {
			t.Errorf("ChartImage = %q", st.Data.ChartImage)
		}
		if f.healthCalls.Load() != 0 {
			t.Errorf("health calls = %d, want 0", f.healthCalls.Load())
		}
		if ticker, tf := s.LastTicker(); ticker != "AAPL" || tf != model.TimeframeWeekly {
			t.Errorf("LastTicker() = %q, %q", ticker, tf)
		}
	})

	t.Run("failed health probe skips request", func(t *testing.T) {
		f := &fakeChart{healthErr: errors.New("connection refused")}
		s := NewChartStore(f, testLogger(), metrics.New(), WithHealthCheck(true))

		st := s.Fetch(ctx, "AAPL", "")
		if !strings.HasPrefix(st.Error, ErrServiceDown.Error()) {
			t.Errorf("Error = %q, want prefix %q", st.Error, ErrServiceDown.Error())
		}
		if f.getStockCall.Load() != 0 {
			t.Errorf("GetStock calls = %d, want 0", f.getStockCall.Load())
		}
		if st.Data.Financials == nil {
			t.Error("initial financials should be kept")
		}
	})

	t.Run("application error keeps previous chart", func(t *testing.T) {
		f := &fakeChart{}
		s := NewChartStore(f, testLogger(), metrics.New())
		s.Fetch(ctx, "AAPL", "")

		f.getStockErr = &api.APIError{StatusCode: 200, Message: "No data for NOPE"}
		st := s.Fetch(ctx, "NOPE", "")
		if st.Error != "No data for NOPE" {
			t.Errorf("Error = %q", st.Error)
		}
		if st.Data.ChartImage != "img-AAPL" {
			t.Errorf("ChartImage = %q, want previous", st.Data.ChartImage)
		}
	})
}
