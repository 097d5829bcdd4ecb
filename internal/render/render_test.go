package render

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/marketdash/internal/model"
	"github.com/rickgao/marketdash/internal/query"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"number", Number(decimal.RequireFromString("1234567.891")), "1,234,567.89"},
		{"percent", Percent(decimal.RequireFromString("3.14159")), "3.14%"},
		{"negative percent", Percent(decimal.RequireFromString("-0.5")), "-0.50%"},
		{"volume", Volume(decimal.RequireFromString("1234567.6")), "1,234,568"},
		{"count", Count(12345), "12,345"},
		{"never", Ago(time.Time{}), "never"},
		{"cell", cell("a|b"), `a\|b`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	if got := Amount(decimal.RequireFromString("1234.56")); !strings.Contains(got, "1,234.56") {
		t.Errorf("Amount() = %q, want it to contain 1,234.56", got)
	}
}

func TestMarkets(t *testing.T) {
	st := query.State[model.MarketPage]{
		Data: model.MarketPage{
			Data: []model.MarketRecord{{
				Code:     "600000",
				Name:     "Bank|A",
				Market:   "SH",
				TodayROE: decimal.RequireFromString("1.5"),
				TotalCap: decimal.RequireFromString("1000000"),
				Date:     "2024-01-01",
			}},
			Pagination: model.Pagination{TotalItems: 1, TotalPages: 1, CurrentPage: 1, PerPage: 100},
		},
		Error: "HTTP error! status: 500",
	}

	md := Markets(st)
	for _, want := range []string{
		"# Markets",
		"> **Error:** HTTP error! status: 500",
		"Page 1 of 1, 1 items, 100 per page",
		"| 600000 | Bank\\|A | SH | 1.50% |",
		"1,000,000.00",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markets() missing %q in:\n%s", want, md)
		}
	}

	empty := Markets(query.State[model.MarketPage]{Data: model.EmptyMarketPage(), Loading: true})
	if !strings.Contains(empty, "_Loading..._") || !strings.Contains(empty, "_No markets._") {
		t.Errorf("Markets(empty) = %q", empty)
	}
}

func TestSeries(t *testing.T) {
	st := query.State[[]model.StockBar]{
		Data: []model.StockBar{{
			Date:   "2024-01-02",
			Open:   decimal.RequireFromString("10"),
			Close:  decimal.RequireFromString("10.5"),
			Volume: decimal.RequireFromString("120000"),
		}},
		UpdatedAt: time.Now(),
	}
	md := Series("600000", model.TimeframeDaily, st)
	for _, want := range []string{"# 600000 (1d)", "| 2024-01-02 | 10 |", "120,000", "_Updated "} {
		if !strings.Contains(md, want) {
			t.Errorf("Series() missing %q in:\n%s", want, md)
		}
	}
}

func TestSession(t *testing.T) {
	if got := Session(nil); got != "Not signed in." {
		t.Errorf("Session(nil) = %q", got)
	}
	got := Session(&model.Session{ID: "7", Email: "a@b.c"})
	if got != "Signed in as **a@b.c** (id 7)" {
		t.Errorf("Session() = %q", got)
	}
}

func TestHTML(t *testing.T) {
	html, err := HTML("| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if !strings.Contains(html, "<table>") || !strings.Contains(html, "<td>1</td>") {
		t.Errorf("HTML() = %q, want a table", html)
	}
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("# Title\n\nhello", 40)
	if err != nil {
		t.Fatalf("Terminal() error = %v", err)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("Terminal() = %q, want it to contain hello", out)
	}
}

func testChart(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestChart(t *testing.T) {
	data := testChart(t, 40, 20)

	t.Run("decode and resize", func(t *testing.T) {
		img, err := DecodeChart(data, 20)
		if err != nil {
			t.Fatalf("DecodeChart() error = %v", err)
		}
		if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
			t.Errorf("size = %dx%d, want 20x10", b.Dx(), b.Dy())
		}
	})

	t.Run("width is capped", func(t *testing.T) {
		img, err := DecodeChart(data, 100000)
		if err != nil {
			t.Fatalf("DecodeChart() error = %v", err)
		}
		if b := img.Bounds(); b.Dx() != MaxChartWidth || b.Dy() != MaxChartWidth/2 {
			t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), MaxChartWidth, MaxChartWidth/2)
		}
	})

	t.Run("height is capped", func(t *testing.T) {
		tall := testChart(t, 2, 40)
		img, err := DecodeChart(tall, 1000)
		if err != nil {
			t.Fatalf("DecodeChart() error = %v", err)
		}
		if b := img.Bounds(); b.Dy() > MaxChartHeight || b.Dx() > 1000 {
			t.Errorf("size = %dx%d, want within 1000x%d", b.Dx(), b.Dy(), MaxChartHeight)
		}
	})

	t.Run("data url", func(t *testing.T) {
		if _, err := DecodeChart("data:image/png;base64,"+data, 0); err != nil {
			t.Errorf("DecodeChart(data url) error = %v", err)
		}
	})

	t.Run("png output", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteChartPNG(&buf, data, 0); err != nil {
			t.Fatalf("WriteChartPNG() error = %v", err)
		}
		cfg, err := png.DecodeConfig(&buf)
		if err != nil {
			t.Fatalf("DecodeConfig() error = %v", err)
		}
		if cfg.Width != 40 {
			t.Errorf("Width = %d, want 40", cfg.Width)
		}
	})

	t.Run("save", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chart.png")
		if err := SaveChart(path, data, 10); err != nil {
			t.Fatalf("SaveChart() error = %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := DecodeChart("", 0); err != ErrNoChart {
			t.Errorf("DecodeChart(empty) error = %v, want ErrNoChart", err)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		st := query.State[model.StockChart]{Data: model.StockChart{
			ChartImage: data,
			Financials: []json.RawMessage{json.RawMessage(`{"year":2023}`)},
		}}
		md := Chart("AAPL", st, ChartOptions{ImageURL: "/stocks/AAPL/chart.png"})
		for _, want := range []string{"# AAPL", "![AAPL chart](/stocks/AAPL/chart.png)", "## Financials", "`{\"year\":2023}`"} {
			if !strings.Contains(md, want) {
				t.Errorf("Chart() missing %q in:\n%s", want, md)
			}
		}

		none := Chart("AAPL", query.State[model.StockChart]{Data: model.EmptyStockChart()}, ChartOptions{})
		if !strings.Contains(none, "_No chart._") {
			t.Errorf("Chart(empty) = %q", none)
		}
	})
}
