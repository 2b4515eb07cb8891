package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"eventlogger/internal/analytics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultStatsDays = 7

// Server exposes health, metrics and submission stats to the operator.
type Server struct {
	http      *http.Server
	router    *mux.Router
	logger    *zap.Logger
	analytics *analytics.Service
	gatherer  prometheus.Gatherer
	now       func() time.Time
}

func New(addr string, logger *zap.Logger, analyticsSvc *analytics.Service, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		logger:    logger,
		analytics: analyticsSvc,
		gatherer:  gatherer,
		now:       time.Now,
	}
	s.routes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	if s.analytics != nil {
		s.router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
		s.router.HandleFunc("/submissions", s.handleSubmissions).Methods(http.MethodGet)
		s.router.HandleFunc("/audit", s.handleAudit).Methods(http.MethodGet)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() {
	go func() {
		s.logger.Info("health endpoint enabled", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("health server error", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.analytics != nil {
		if err := s.analytics.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	since, ok := s.since(w, r)
	if !ok {
		return
	}
	report, err := s.analytics.Report(r.Context(), since)
	s.writeJSON(w, "stats", report, err)
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	since, ok := s.since(w, r)
	if !ok {
		return
	}
	subs, err := s.analytics.Submissions(r.Context(), since)
	s.writeJSON(w, "submissions", subs, err)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	since, ok := s.since(w, r)
	if !ok {
		return
	}
	logs, err := s.analytics.AuditTrail(r.Context(), since)
	s.writeJSON(w, "audit", logs, err)
}

// since reads ?days=N (default 7) and answers 400 itself on bad input.
func (s *Server) since(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	days := defaultStatsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return time.Time{}, false
		}
		days = parsed
	}
	return s.now().AddDate(0, 0, -days), true
}

func (s *Server) writeJSON(w http.ResponseWriter, name string, body any, err error) {
	if err != nil {
		s.logger.Warn("report failed", zap.String("report", name), zap.Error(err))
		http.Error(w, "report unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
