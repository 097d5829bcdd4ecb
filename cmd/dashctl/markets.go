package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/subcommands"

	"github.com/rickgao/marketdash/internal/model"
	"github.com/rickgao/marketdash/internal/query"
	"github.com/rickgao/marketdash/internal/render"
)

// optionalString sets *v only when the flag is given.
type optionalString struct{ v **string }

func (o optionalString) String() string {
	if o.v == nil || *o.v == nil {
		return ""
	}
	return **o.v
}

func (o optionalString) Set(s string) error {
	*o.v = &s
	return nil
}

// optionalFloat sets *v only when the flag is given.
type optionalFloat struct{ v **float64 }

func (o optionalFloat) String() string {
	if o.v == nil || *o.v == nil {
		return ""
	}
	return strconv.FormatFloat(**o.v, 'f', -1, 64)
}

func (o optionalFloat) Set(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*o.v = &f
	return nil
}

// printState writes st as JSON or renders md, and maps a store error to a
// failed exit status.
func printState[T any](st query.State[T], asJSON bool, md string) subcommands.ExitStatus {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding state: %v\n", err)
			return subcommands.ExitFailure
		}
	} else {
		printMarkdown(os.Stdout, md)
	}
	if st.Error != "" {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type marketsCmd struct {
	filter model.FilterParams
	sort   string
	dir    string
	page   int
	json   bool
}

func (*marketsCmd) Name() string     { return "markets" }
func (*marketsCmd) Synopsis() string { return "list markets matching filters" }
func (*marketsCmd) Usage() string {
	return `dashctl markets [-market SH] [-date 2024-01-01] [-sort <field> -dir asc|desc] [-page N] [-json]

  Queries the market listing. Only the filters given are sent.
`
}

func (c *marketsCmd) SetFlags(f *flag.FlagSet) {
	f.Var(optionalString{&c.filter.FilterObject}, "object", "filter object")
	f.Var(optionalFloat{&c.filter.Return}, "return", "minimum return")
	f.Var(optionalFloat{&c.filter.MaxReturn}, "max-return", "maximum return")
	f.Var(optionalFloat{&c.filter.MinMarketCap}, "min-cap", "minimum market cap")
	f.Var(optionalString{&c.filter.Market}, "market", "market code, e.g. SH or SZ")
	f.Var(optionalString{&c.filter.Date}, "date", "trading date (YYYY-MM-DD)")
	f.StringVar(&c.sort, "sort", "", "sort field")
	f.StringVar(&c.dir, "dir", "", "sort direction: asc or desc")
	f.IntVar(&c.page, "page", 1, "page number")
	f.BoolVar(&c.json, "json", false, "print the store state as JSON")
}

func (c *marketsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	dir, err := model.ParseSortDirection(c.dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	store := query.NewMarketStore(e.markets, e.logger, e.metrics)
	st := store.Fetch(ctx, c.filter, c.sort, dir, c.page)
	return printState(st, c.json, render.Markets(st))
}

type stockCmd struct {
	start     string
	end       string
	timeframe string
	json      bool
}

func (*stockCmd) Name() string     { return "stock" }
func (*stockCmd) Synopsis() string { return "show the price series of one stock" }
func (*stockCmd) Usage() string {
	return `dashctl stock [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-tf 1d|1w] [-json] <code>

  Queries the bar series of <code>. The range defaults to the last year.
`
}

func (c *stockCmd) SetFlags(f *flag.FlagSet) {
	now := time.Now()
	f.StringVar(&c.start, "start", now.AddDate(-1, 0, 0).Format(time.DateOnly), "first date")
	f.StringVar(&c.end, "end", now.Format(time.DateOnly), "last date")
	f.StringVar(&c.timeframe, "tf", "", "bar size: 1d or 1w")
	f.BoolVar(&c.json, "json", false, "print the store state as JSON")
}

func (c *stockCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one stock code is required")
		return subcommands.ExitUsageError
	}
	code := f.Arg(0)

	tf, err := model.ParseTimeframe(c.timeframe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	store := query.NewSeriesStore(e.markets, e.logger, e.metrics)
	st := store.Fetch(ctx, code, c.start, c.end, tf)
	return printState(st, c.json, render.Series(code, tf, st))
}

type chartCmd struct {
	timeframe string
	output    string
	width     int
	health    bool
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "fetch the chart and financials of one ticker" }
func (*chartCmd) Usage() string {
	return `dashctl chart [-tf 1d|1w] [-o chart.png] [-w width] [-health] <ticker>

  Fetches the rendered chart of <ticker>. With -o the image is saved; the
  format follows the file extension.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.timeframe, "tf", string(model.TimeframeWeekly), "bar size: 1d or 1w")
	f.StringVar(&c.output, "o", "", "save the chart image to this file")
	f.IntVar(&c.width, "w", 0, "resize the saved image to this width")
	f.BoolVar(&c.health, "health", false, "probe the chart service before fetching (default from config)")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one ticker is required")
		return subcommands.ExitUsageError
	}
	ticker := f.Arg(0)

	tf, err := model.ParseTimeframe(c.timeframe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	store := query.NewChartStore(e.stock, e.logger, e.metrics,
		query.WithHealthCheck(c.health || e.cfg.API.ChartHealth))
	st := store.Fetch(ctx, ticker, tf)

	opts := render.ChartOptions{}
	if c.output != "" && st.Error == "" && st.Data.ChartImage != "" {
		if err := render.SaveChart(c.output, st.Data.ChartImage, c.width); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving chart: %v\n", err)
			return subcommands.ExitFailure
		}
		opts.ImageURL = c.output
	}

	printMarkdown(os.Stdout, render.Chart(ticker, st, opts))
	if st.Error != "" {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
