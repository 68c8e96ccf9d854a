// Package report exposes a pipeline run over HTTP: JSON APIs for the
// analytics outputs, go-echarts debug charts, Prometheus metrics, and
// gonum/plot PNG export for offline reports.
package report

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/courtside-data/courtside.report/internal/db"
	"github.com/courtside-data/courtside.report/internal/httputil"
	"github.com/courtside-data/courtside.report/internal/pipeline"
	"github.com/courtside-data/courtside.report/internal/version"
)

// Server serves one run's results plus the persisted run history.
type Server struct {
	store    *db.DB
	results  *pipeline.Results
	registry *prometheus.Registry
}

// NewServer creates a report server. store may be nil when persistence
// is disabled; registry may be nil to drop the /metrics endpoint.
func NewServer(store *db.DB, results *pipeline.Results, registry *prometheus.Registry) *Server {
	return &Server{store: store, results: results, registry: registry}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/possession", s.handlePossession)
	mux.HandleFunc("/api/kinematics", s.handleKinematics)
	mux.HandleFunc("/api/anomalies", s.handleAnomalies)
	mux.HandleFunc("/api/team-control", s.handleTeamControl)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/charts/tactical", s.handleTacticalChart)
	mux.HandleFunc("/charts/speed", s.handleSpeedChart)
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, version.Get())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, s.results.Events)
}

func (s *Server) handlePossession(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, s.results.Possession)
}

func (s *Server) handleKinematics(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, s.results.Kinematics)
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, s.results.Anomalies)
}

func (s *Server) handleTeamControl(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, s.results.TeamControl)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httputil.NotFound(w, "persistence disabled")
		return
	}
	runs, err := s.store.Runs()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, runs)
}
