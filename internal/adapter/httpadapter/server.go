package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/water-utility-etl/internal/dashboard"
	"github.com/couchcryptid/water-utility-etl/internal/domain"
	"github.com/couchcryptid/water-utility-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TableSource provides the latest cleaned table.
type TableSource interface {
	Latest() (domain.CleanedTable, bool)
}

// ChartSource renders a tab visual to SVG.
type ChartSource interface {
	Chart(v dashboard.Visual, fingerprint string) ([]byte, error)
}

// Server exposes the dashboard API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	tables     TableSource
	charts     ChartSource
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, the
// dashboard page, and the /api routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, tables TableSource, charts ChartSource, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		tables:  tables,
		charts:  charts,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /api/tabs", s.handleTabs)
	mux.HandleFunc("GET /api/tabs/{tab}", s.handleVisual)
	mux.HandleFunc("GET /api/tabs/{tab}/chart.svg", s.handleChart)
	mux.HandleFunc("GET /api/table", s.handleTable)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleTabs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default": dashboard.DefaultTab,
		"tabs":    dashboard.Tabs(),
	})
}

func (s *Server) handleVisual(w http.ResponseWriter, r *http.Request) {
	v, _, ok := s.visual(w, r.PathValue("tab"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	v, table, ok := s.visual(w, r.PathValue("tab"))
	if !ok {
		return
	}

	svg, err := s.charts.Chart(v, table.Fingerprint())
	switch {
	case errors.Is(err, dashboard.ErrNothingToPlot):
		msg := v.Placeholder
		if msg == "" {
			msg = "no plottable values for '" + v.Tab.YColumn + "'"
		}
		writeError(w, http.StatusNotFound, msg)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "chart rendering failed")
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(svg) //nolint:errcheck // client went away
}

func (s *Server) handleTable(w http.ResponseWriter, _ *http.Request) {
	table, ok := s.tables.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no cleaned table available yet")
		return
	}
	records := table.Records()
	writeJSON(w, http.StatusOK, map[string]any{
		"period_column": table.PeriodColumn,
		"columns":       records[0],
		"rows":          records[1:],
		"fingerprint":   table.Fingerprint(),
	})
}

// visual renders the tab against the latest table, writing the error
// response itself when that is not possible.
func (s *Server) visual(w http.ResponseWriter, tab string) (dashboard.Visual, domain.CleanedTable, bool) {
	if _, err := dashboard.Resolve(tab); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return dashboard.Visual{}, domain.CleanedTable{}, false
	}
	table, ok := s.tables.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no cleaned table available yet")
		return dashboard.Visual{}, domain.CleanedTable{}, false
	}
	v, err := dashboard.Render(tab, table)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return dashboard.Visual{}, domain.CleanedTable{}, false
	}
	s.recordDiagnostics(v)
	return v, table, true
}

// recordDiagnostics counts the diagnostics of a rendered tab. They repeat on
// every request for the same table, so they are logged at debug level.
func (s *Server) recordDiagnostics(v dashboard.Visual) {
	for _, d := range v.Diagnostics {
		s.metrics.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
		s.logger.Debug("dashboard field unresolved", "kind", d.Kind, "tab", v.Tab.ID, "column", d.Column)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
