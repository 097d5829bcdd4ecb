package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/rickgao/marketdash/internal/api"
	"github.com/rickgao/marketdash/internal/model"
	"github.com/rickgao/marketdash/internal/render"
	"github.com/rickgao/marketdash/internal/version"
)

// Response formats selected with ?format=.
const (
	formatHTML     = "html"
	formatJSON     = "json"
	formatMarkdown = "md"
)

// defaultSeriesYears is the range shown when a stock page omits start_date.
const defaultSeriesYears = 1

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status        string       `json:"status"`
		Version       version.Info `json:"version"`
		Authenticated bool         `json:"authenticated"`
		LiveClients   int          `json:"live_clients"`
		Metrics       any          `json:"metrics"`
	}{
		Status:        "healthy",
		Version:       version.Get(),
		Authenticated: a.Session.IsAuthenticated(),
		LiveClients:   a.Hub.Clients(),
		Metrics:       a.Metrics.Snapshot(),
	})
}

// handleRoot is reached only when the guard lets "/" through.
func (a *App) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, a.Guard.LoginPath(), http.StatusSeeOther)
}

func (a *App) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	a.writeLogin(w, http.StatusOK, loginForm{})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.writeLogin(w, http.StatusBadRequest, loginForm{Error: "invalid form"})
		return
	}
	creds := model.Credentials{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}

	if _, err := a.Session.Login(r.Context(), creds); err != nil {
		a.writeLogin(w, loginFailureStatus(err), loginForm{Email: creds.Email, Error: api.MessageOf(err)})
		return
	}
	http.Redirect(w, r, "/markets", http.StatusSeeOther)
}

// loginFailureStatus passes backend client errors through and reports
// everything else as a gateway failure.
func loginFailureStatus(err error) int {
	if status := api.StatusOf(err); status >= 400 && status < 500 {
		return status
	}
	return http.StatusBadGateway
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.Session.Logout(r.Context()); err != nil {
		a.logger().Warn("logout completed locally, backend call failed", "error", err)
	}
	http.Redirect(w, r, a.Guard.LoginPath(), http.StatusSeeOther)
}

// supersededNote is prepended to pages whose request lost to a newer one.
const supersededNote = "> A newer request replaced this one before it finished; reload to see its results.\n\n"

func withNote(superseded bool, md string) string {
	if superseded {
		return supersededNote + md
	}
	return md
}

func (a *App) handleMarkets(w http.ResponseWriter, r *http.Request) {
	q, err := api.ParseMarketQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st := a.Markets.FetchQuery(r.Context(), q)
	a.respond(w, r, "Markets", a.Markets.Name(), st, withNote(st.Superseded, render.Markets(st)))
}

func (a *App) handleSeries(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	v := r.URL.Query()

	tf, err := model.ParseTimeframe(v.Get("timeframe"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start, end := v.Get("start_date"), v.Get("end_date")
	if end == "" {
		end = time.Now().Format(time.DateOnly)
	}
	if start == "" {
		endTime, err := time.Parse(time.DateOnly, end)
		if err != nil {
			http.Error(w, "invalid end_date: "+strconv.Quote(end), http.StatusBadRequest)
			return
		}
		start = endTime.AddDate(-defaultSeriesYears, 0, 0).Format(time.DateOnly)
	}

	st := a.Series.Fetch(r.Context(), code, start, end, tf)
	a.respond(w, r, code, a.Series.Name(), st, withNote(st.Superseded, render.Series(code, tf, st)))
}

func chartTimeframe(r *http.Request) (model.Timeframe, error) {
	tf, err := model.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		return "", err
	}
	if tf == "" {
		tf = model.TimeframeWeekly
	}
	return tf, nil
}

func (a *App) handleChart(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	tf, err := chartTimeframe(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st := a.Chart.Fetch(r.Context(), code, tf)
	md := render.Chart(code, st, render.ChartOptions{
		ImageURL: "/stocks/" + code + "/chart.png?timeframe=" + string(tf),
	})
	a.respond(w, r, code+" chart", a.Chart.Name(), st, withNote(st.Superseded, md))
}

// handleChartPNG serves the image of the current chart, fetching it first
// when the store holds a different ticker or timeframe.
func (a *App) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	tf, err := chartTimeframe(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	width := 0
	if raw := r.URL.Query().Get("width"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid width "+strconv.Quote(raw), http.StatusBadRequest)
			return
		}
		width = n
	}

	st := a.Chart.Get()
	if ticker, lastTF := a.Chart.LastTicker(); ticker != code || lastTF != tf {
		st = a.Chart.Fetch(r.Context(), code, tf)
	}
	if st.Superseded {
		http.Error(w, "chart request superseded, retry", http.StatusConflict)
		return
	}

	var buf bytes.Buffer
	if err := render.WriteChartPNG(&buf, st.Data.ChartImage, width); err != nil {
		if errors.Is(err, render.ErrNoChart) {
			http.Error(w, "no chart for "+code, http.StatusNotFound)
			return
		}
		a.logger().Warn("chart image unusable", "ticker", code, "error", err)
		http.Error(w, "chart image unusable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (a *App) handleState(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	st, ok := a.stateOf(topic)
	if !ok {
		http.Error(w, "unknown topic "+strconv.Quote(topic), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// respond writes a store state as JSON, markdown or an HTML page.
func (a *App) respond(w http.ResponseWriter, r *http.Request, title, topic string, st any, md string) {
	switch format := r.URL.Query().Get("format"); format {
	case formatJSON:
		writeJSON(w, http.StatusOK, st)
	case formatMarkdown:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(md))
	case "", formatHTML:
		body, err := render.HTML(md)
		if err != nil {
			a.logger().Error("render html failed", "title", title, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		a.writePage(w, http.StatusOK, page{Title: title, Topic: topic, Body: template.HTML(body)})
	default:
		http.Error(w, "unknown format "+strconv.Quote(format), http.StatusBadRequest)
	}
}
