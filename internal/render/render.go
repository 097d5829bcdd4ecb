package render

import (
	"embed"
	"encoding/base64"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/rickgao/marketdash/internal/model"
	"github.com/rickgao/marketdash/internal/query"
)

//go:embed templates/*.md
var templateFS embed.FS

var funcs = template.FuncMap{
	"num":    Number,
	"pct":    Percent,
	"amount": Amount,
	"vol":    Volume,
	"count":  Count,
	"ago":    Ago,
	"size":   Size,
	"cell":   cell,
}

// renderTemplate parses mainFile with the shared status.md partial and executes it.
// Templates are named after their files.
func renderTemplate(mainFile string, data any) string {
	templates, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return fmt.Sprintf("error opening templates: %v", err)
	}

	tmpl, err := template.New(mainFile).Funcs(funcs).ParseFS(templates, mainFile, "status.md")
	if err != nil {
		return fmt.Sprintf("error parsing template %q: %v", mainFile, err)
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, mainFile, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", mainFile, err)
	}
	return b.String()
}

// Markets renders the market listing state.
func Markets(st query.State[model.MarketPage]) string {
	return renderTemplate("markets.md", st)
}

// Series renders the stock series state of code.
func Series(code string, tf model.Timeframe, st query.State[[]model.StockBar]) string {
	return renderTemplate("series.md", struct {
		Code      string
		Timeframe model.Timeframe
		State     query.State[[]model.StockBar]
	}{code, tf, st})
}

// ChartOptions controls how Chart refers to the image.
type ChartOptions struct {
	// ImageURL links the image when set; otherwise only its size is shown.
	ImageURL string
}

// Chart renders the stock chart state of ticker.
func Chart(ticker string, st query.State[model.StockChart], opts ChartOptions) string {
	financials := make([]string, 0, len(st.Data.Financials))
	for _, f := range st.Data.Financials {
		financials = append(financials, string(f))
	}

	size := 0
	if raw, err := decodeChartData(st.Data.ChartImage); err == nil {
		size = len(raw)
	}

	return renderTemplate("chart.md", struct {
		Ticker     string
		State      query.State[model.StockChart]
		ImageURL   string
		ImageSize  int
		Financials []string
	}{ticker, st, opts.ImageURL, size, financials})
}

// Session renders who is signed in.
func Session(sess *model.Session) string {
	return strings.TrimSpace(renderTemplate("session.md", sess))
}

// decodeChartData accepts plain base64 or a data URL.
func decodeChartData(s string) ([]byte, error) {
	if s == "" {
		return nil, ErrNoChart
	}
	if i := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode chart image: %w", err)
	}
	return data, nil
}
