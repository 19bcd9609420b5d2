// Package chi is the HTTP surface for serve mode: report retrieval,
// single-row lookup, health probes and Prometheus metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/textdup/sitescore/internal/domain"
	"github.com/textdup/sitescore/internal/emit"
	logpkg "github.com/textdup/sitescore/internal/logger"
	healthuc "github.com/textdup/sitescore/internal/usecase/health"
)

// ErrorCode identifies an API error class.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest    ErrorCode = "bad_request"
	CodeUnauthorized  ErrorCode = "unauthorized"
	CodeRowNotFound   ErrorCode = "row_not_found"
	CodeRunNotReady   ErrorCode = "run_not_ready"
	CodeInternalError ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves a finished scoring report. The report is published
// with SetReport once the run completes; endpoints that need it
// answer 503 until then.
type Server struct {
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler

	mu     sync.RWMutex
	report *domain.Report
}

// NewServer creates an HTTP API server.
func NewServer(health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrRunNotReady, http.StatusServiceUnavailable, CodeRunNotReady),
		sentinelHandler(domain.ErrRowNotFound, http.StatusNotFound, CodeRowNotFound),
	}
	return s
}

// SetReport publishes a finished report to the API.
func (s *Server) SetReport(report *domain.Report) {
	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
}

func (s *Server) currentReport() (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return nil, domain.ErrRunNotReady
	}
	return s.report, nil
}

// Routes registers every endpoint on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.Healthz)
	r.Get("/readyz", s.Readyz)
	r.Get("/api/v1/report", s.GetReport)
	r.Get("/api/v1/report.csv", s.GetReportCSV)
	r.Get("/api/v1/score", s.GetScore)
	r.Get("/metrics", s.Metrics)
}

// Healthz handles GET /healthz. Liveness only; always 200.
func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type readyResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// Readyz handles GET /readyz. Ready means every dependency check
// passes and a report has been published.
func (s *Server) Readyz(w http.ResponseWriter, r *http.Request) {
	rep := s.health.Check(r.Context())
	if _, err := s.currentReport(); err != nil {
		rep.Checks["report"] = healthuc.CheckError
		rep.Status = healthuc.Degraded
	} else {
		rep.Checks["report"] = healthuc.CheckOK
	}

	httpStatus := http.StatusOK
	if rep.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, readyResponse{Status: string(rep.Status), Checks: rep.Checks})
}

// GetReport handles GET /api/v1/report.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.currentReport()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := emit.WriteJSON(w, report); err != nil {
		// Headers are gone; the per-request logger carries request_id.
		logpkg.FromContext(r.Context()).Error("write report", zap.Error(err))
	}
}

// GetReportCSV handles GET /api/v1/report.csv.
func (s *Server) GetReportCSV(w http.ResponseWriter, r *http.Request) {
	report, err := s.currentReport()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	if err := emit.WriteCSV(w, report); err != nil {
		logpkg.FromContext(r.Context()).Error("write csv report", zap.Error(err))
	}
}

// GetScore handles GET /api/v1/score?url=...
func (s *Server) GetScore(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "url query parameter is required")
		return
	}

	report, err := s.currentReport()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	row, ok := report.FindRow(url)
	if !ok {
		s.handleDomainError(w, domain.ErrRowNotFound)
		return
	}
	writeJSON(w, http.StatusOK, emit.NewRow(&row))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrRowNotFound,
		domain.ErrRunNotReady,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
