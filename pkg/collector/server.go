package collector

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aretw0/remotedev/internal/logging"
	"github.com/aretw0/remotedev/pkg/domain"
	"github.com/aretw0/remotedev/pkg/metrics"
)

// DefaultMaxBodySize caps an incoming report.
const DefaultMaxBodySize = 4 << 20

// Server exposes a Store over HTTP.
type Server struct {
	store       Store
	logger      *slog.Logger
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	tracing     bool
	maxBodySize int64
	now         func() time.Time
	newID       func() string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger for request logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics counts received reports.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithGatherer exposes the gatherer's metrics on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithTracing instruments the handler with OpenTelemetry.
func WithTracing() Option {
	return func(s *Server) {
		s.tracing = true
	}
}

// WithMaxBodySize caps the size of an incoming report.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// WithClock overrides the time source used for ReceivedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a Server backed by store.
func NewServer(store Store, opts ...Option) *Server {
	s := &Server{
		store:       store,
		maxBodySize: DefaultMaxBodySize,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// NewHandler creates the collector HTTP handler.
func NewHandler(store Store, opts ...Option) http.Handler {
	return NewServer(store, opts...).Handler()
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(echoRequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.tracing {
		r.Use(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, "remotedev-collector")
		})
	}

	r.Post("/", s.Receive)
	r.Route("/reports", func(r chi.Router) {
		r.Post("/", s.Receive)
		r.Get("/", s.ListReports)
		r.Get("/{id}", s.GetReport)
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		if _, err := w.Write(OpenAPISpec()); err != nil {
			s.logger.Error("failed to write openapi spec", "error", err)
		}
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return enableCORS(r)
}

// Receive handles POST / and POST /reports.
func (s *Server) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, http.StatusRequestEntityTooLarge, err)
			return
		}
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	if err := validateReport(r, body); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidReport) {
			status = http.StatusBadRequest
		}
		s.fail(w, r, status, err)
		return
	}
	var report domain.Report
	if err := json.Unmarshal(body, &report); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	rec := &Record{
		ID:         s.newID(),
		ReceivedAt: s.now().UTC(),
		Report:     report,
	}
	if err := s.store.Save(r.Context(), rec); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	s.metrics.Received(report.Type)

	s.logger.Info("report received",
		"id", rec.ID,
		"type", report.Type,
		"action", report.Action,
		"exception", report.HasException(),
	)
	writeJSON(w, http.StatusOK, map[string]string{"id": rec.ID})
}

// GetReport handles GET /reports/{id}.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrReportNotFound) {
			status = http.StatusNotFound
		}
		s.fail(w, r, status, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Summary is the list view of a record.
type Summary struct {
	ID         string            `json:"id"`
	ReceivedAt time.Time         `json:"receivedAt"`
	Type       domain.ReportType `json:"type"`
	Action     string            `json:"action,omitempty"`
	Title      string            `json:"title,omitempty"`
	Exception  string            `json:"exception,omitempty"`
}

// ListReports handles GET /reports?limit=N.
func (s *Server) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(w, r, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	records, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	out := make([]Summary, len(records))
	for i, rec := range records {
		out[i] = Summary{
			ID:         rec.ID,
			ReceivedAt: rec.ReceivedAt,
			Type:       rec.Report.Type,
			Action:     rec.Report.Action,
			Title:      rec.Report.Title,
			Exception:  rec.Report.Exception,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// fail answers with {"error": ...}, the shape the transport reads as a failure.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		"request_id", RequestID(r.Context()),
		"status", status,
		"error", err,
	)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// echoRequestID returns the ID assigned by middleware.RequestID in X-Request-ID.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

// RequestID returns the request ID stored in ctx, if any.
func RequestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request completed",
			slog.String("request_id", RequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
