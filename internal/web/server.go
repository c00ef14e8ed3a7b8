// Package web serves the dashboard page, its JSON API and the WebSocket
// session.
package web

import (
	"bufio"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"StockSeer/internal/chart"
	"StockSeer/internal/metrics"
	"StockSeer/internal/model"
	"StockSeer/internal/pipeline"
	"StockSeer/internal/recorder"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server exposes the forecast pipeline over HTTP.
type Server struct {
	pipeline      *pipeline.Pipeline
	tickers       []string
	defaultMonths int
	metrics       *metrics.Metrics
	page          *template.Template
}

// NewServer creates a Server offering tickers as the default selection.
func NewServer(p *pipeline.Pipeline, tickers []string, m *metrics.Metrics) *Server {
	page := template.Must(template.New("index.html").Funcs(template.FuncMap{
		"date":  func(t time.Time) string { return t.Format("2006-01-02") },
		"price": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
		"pct":   func(v float64) string { return fmt.Sprintf("%+.2f%%", v) },
	}).ParseFS(templateFS, "templates/index.html"))

	return &Server{
		pipeline:      p,
		tickers:       tickers,
		defaultMonths: pipeline.MinMonths,
		metrics:       m,
		page:          page,
	}
}

// RegisterRoutes registers all routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/forecast", s.handleForecast)
	mux.HandleFunc("GET /api/forecast/export", s.handleExport)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/tickers", s.handleTickers)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok", "source": s.pipeline.Source()})
	})
}

// Handler returns an http.Handler with CORS and request metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.instrument(corsMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter captures the response code. It stays hijackable so the
// WebSocket upgrade works behind it.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.code = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(route, sw.code)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// errorBody is the JSON shape of a failed request.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch model.Kind(err) {
	case model.KindInvalidParameter:
		return http.StatusBadRequest
	case model.KindInsufficientData:
		return http.StatusUnprocessableEntity
	case model.KindDataUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeKindError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(errorBody{Kind: model.Kind(err), Message: err.Error()})
}

// parseParams reads ticker and months from the query. A missing or
// malformed months value is reported as an invalid parameter.
func parseParams(r *http.Request, defaultMonths int) (pipeline.Params, error) {
	q := r.URL.Query()
	p := pipeline.Params{Ticker: q.Get("ticker"), Months: defaultMonths}
	if v := strings.TrimSpace(q.Get("months")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return p, &model.ParamError{Field: "months", Value: v, Reason: "must be an integer"}
		}
		p.Months = m
	}
	return p.Normalize(), nil
}

func parseTail(r *http.Request) int {
	if v, err := strconv.Atoi(r.URL.Query().Get("tail")); err == nil && v > 0 {
		return v
	}
	return pipeline.DefaultTail
}

// forecastResponse is the JSON view of a pipeline result.
type forecastResponse struct {
	RunID        string                   `json:"run_id"`
	Ticker       string                   `json:"ticker"`
	Months       int                      `json:"months"`
	HorizonDays  int                      `json:"horizon_days"`
	Source       string                   `json:"source"`
	Observations int                      `json:"observations"`
	History      []model.PriceObservation `json:"history"`
	Forecast     []model.ForecastPoint    `json:"forecast"`
	Summary      model.Summary            `json:"summary"`
	Model        model.ModelInfo          `json:"model"`
	DurationMs   int64                    `json:"duration_ms"`
}

func newForecastResponse(res *pipeline.Result, tail int) forecastResponse {
	return forecastResponse{
		RunID:        res.RunID.String(),
		Ticker:       res.Params.Ticker,
		Months:       res.Params.Months,
		HorizonDays:  res.Params.HorizonDays(),
		Source:       res.Series.Source,
		Observations: res.Series.Len(),
		History:      res.HistoryTail(tail),
		Forecast:     res.Forecast.Points,
		Summary:      res.Summary,
		Model:        res.Forecast.Model,
		DurationMs:   res.Duration.Milliseconds(),
	}
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r, s.defaultMonths)
	if err != nil {
		writeKindError(w, err)
		return
	}
	res, err := s.pipeline.Run(r.Context(), params)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, newForecastResponse(res, parseTail(r)))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	series, err := s.pipeline.History(r.Context(), r.URL.Query().Get("ticker"))
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, series)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r, s.defaultMonths)
	if err != nil {
		writeKindError(w, err)
		return
	}
	res, err := s.pipeline.Run(r.Context(), params)
	if err != nil {
		writeKindError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.apache.parquet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s_%dm_forecast.parquet"`, res.Params.Ticker, res.Params.Months))
	if err := WriteForecastParquet(w, res.Forecast); err != nil {
		log.Printf("[ERROR] export parquet for %s: %v", res.Params.Ticker, err)
	}
}

func (s *Server) handleTickers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"tickers": s.tickers})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	runs, err := s.pipeline.RecentRuns(limit)
	if err != nil {
		log.Printf("[ERROR] list runs: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []recorder.RunRecord{}
	}
	writeJSON(w, map[string]any{"runs": runs})
}

// pageData feeds templates/index.html.
type pageData struct {
	Tickers   []string
	Ticker    string
	Months    int
	MinMonths int
	MaxMonths int
	Source    string
	Result    *pipeline.Result
	History   []model.PriceObservation
	Forecast  []model.ForecastPoint
	Charts    []chart.Snippet
	Assets    string
	Error     *errorBody
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r, s.defaultMonths)
	if params.Ticker == "" && len(s.tickers) > 0 && r.URL.Query().Get("ticker") == "" {
		params.Ticker = s.tickers[0]
	}
	data := pageData{
		Tickers:   withTicker(s.tickers, params.Ticker),
		Ticker:    params.Ticker,
		Months:    params.Months,
		MinMonths: pipeline.MinMonths,
		MaxMonths: pipeline.MaxMonths,
		Source:    s.pipeline.Source(),
		Assets:    chart.AssetsHost,
	}
	if err == nil {
		var res *pipeline.Result
		res, err = s.pipeline.Run(r.Context(), params)
		if err == nil {
			data.Result = res
			data.History = res.HistoryTail(pipeline.DefaultTail)
			data.Forecast = res.ForecastTail(pipeline.DefaultTail)
			data.Charts = chart.Snippets(res.Series, res.Forecast)
		}
	}
	status := http.StatusOK
	if err != nil {
		data.Error = &errorBody{Kind: model.Kind(err), Message: err.Error()}
		status = statusFor(err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.page.Execute(w, data); err != nil {
		log.Printf("[ERROR] render page: %v", err)
	}
}

// withTicker appends an added ticker to the selectable list.
func withTicker(tickers []string, t string) []string {
	if t == "" {
		return tickers
	}
	for _, x := range tickers {
		if x == t {
			return tickers
		}
	}
	return append(append([]string(nil), tickers...), t)
}
