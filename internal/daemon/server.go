package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/ipssi/codequest/internal/checker"
	"github.com/ipssi/codequest/internal/config"
	"github.com/ipssi/codequest/internal/domain"
	"github.com/ipssi/codequest/internal/exercise"
	"github.com/ipssi/codequest/internal/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Server represents the CodeQuest daemon HTTP server
type Server struct {
	cfg       *config.LocalConfig
	server    *http.Server
	router    *http.ServeMux
	version   string
	startedAt time.Time

	// Services
	registry  *exercise.Registry
	evaluator checker.Evaluator
	sessions  *session.Service
	store     session.SessionStore
	metrics   *Metrics
	limiter   ratelimit.RateLimiter
	proxies   proxyList
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config  *config.LocalConfig
	Catalog exercise.Source

	// SessionStore defaults to an in-memory store
	SessionStore session.SessionStore

	// Registry receives the daemon metrics; nil creates a private one
	Registry *prometheus.Registry

	Version string
}

// NewServer creates a new daemon server. The catalog is loaded and validated
// before the server is returned.
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		cfg.Config = config.DefaultLocalConfig()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = exercise.NewDirLoader(cfg.Config.Catalog.Path)
	}
	if cfg.SessionStore == nil {
		cfg.SessionStore = session.NewMemoryStore()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &Server{
		cfg:       cfg.Config,
		router:    http.NewServeMux(),
		version:   cfg.Version,
		startedAt: time.Now(),
		store:     cfg.SessionStore,
	}

	s.registry = exercise.NewRegistry(cfg.Catalog)
	if err := s.registry.Load(ctx); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	s.evaluator = checker.NewEvaluator(checker.CatalogFor(cfg.Config.Checker.Locale))
	s.metrics = NewMetrics(cfg.Registry, func() float64 {
		return float64(len(s.store.List()))
	})

	s.sessions = session.NewService(s.store, s.registry, s.evaluator)
	s.sessions.SetCheckObserver(s.metrics.ObserveCheck)

	events := domain.NewEventDispatcher()
	events.SubscribeAll(s.metrics.ObserveEvent)
	events.SubscribeAll(func(e domain.Event) {
		slog.Debug("session event", "type", e.EventType(), "session_id", e.SessionID())
	})
	s.sessions.SetEventDispatcher(events)

	if rl := cfg.Config.RateLimit; rl.Enabled {
		proxies, err := config.ParseTrustedProxies(rl.TrustedProxies)
		if err != nil {
			return nil, err
		}
		s.proxies = proxies
		burst := rl.Burst
		if burst < rl.Rate {
			burst = rl.Rate
		}
		s.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     rl.Rate,
			Burst:    burst,
			Interval: time.Second,
		})
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stats := s.registry.Stats()
	slog.Info("catalog loaded",
		"courses", stats.CourseCount,
		"exercises", stats.ExerciseCount,
		"source", cfg.Config.Catalog.Source,
	)

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)
	s.router.HandleFunc("GET /v1/config", s.handleGetConfig)
	s.router.Handle("GET /metrics", s.metrics.Handler())

	// Catalog
	s.router.HandleFunc("GET /v1/courses", s.handleListCourses)
	s.router.HandleFunc("GET /v1/courses/{course}", s.handleGetCourse)
	s.router.HandleFunc("GET /v1/courses/{course}/exercises/{id}", s.handleGetExercise)
	s.router.HandleFunc("GET /v1/courses/{course}/exercises/{id}/next", s.handleNextExercise)
	s.router.HandleFunc("POST /v1/catalog/reload", s.handleReloadCatalog)

	// Stateless checking and preview
	s.router.HandleFunc("POST /v1/check", s.handleCheck)
	s.router.HandleFunc("POST /v1/preview", s.handlePreview)

	// Sessions
	s.router.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /v1/sessions", s.handleListSessions)
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)
	s.router.HandleFunc("PUT /v1/sessions/{id}/code", s.handleUpdateCode)
	s.router.HandleFunc("POST /v1/sessions/{id}/check", s.handleSessionCheck)
	s.router.HandleFunc("POST /v1/sessions/{id}/hint", s.handleToggleHint)
	s.router.HandleFunc("POST /v1/sessions/{id}/solution", s.handleRevealSolution)
	s.router.HandleFunc("POST /v1/sessions/{id}/reset", s.handleReset)
	s.router.HandleFunc("GET /v1/sessions/{id}/preview", s.handleSessionPreview)
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	return correlationIDMiddleware(recoveryMiddleware(loggingMiddleware(s.metrics, s.router)))
}

// Registry returns the course registry the server serves
func (s *Server) Registry() *exercise.Registry {
	return s.registry
}

// Sessions returns the session service
func (s *Server) Sessions() *session.Service {
	return s.sessions
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting codequest daemon",
		"addr", s.server.Addr,
		"version", s.version,
		"rate_limit", s.limiter != nil,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	if s.limiter != nil {
		if err := s.limiter.Close(); err != nil {
			slog.Warn("failed to close rate limiter", "error", err)
		}
	}

	return s.server.Shutdown(ctx)
}

// allow applies the check rate limit. It writes the 429 response itself and
// returns false when the caller is over the limit.
func (s *Server) allow(w http.ResponseWriter, r *http.Request) bool {
	if s.limiter == nil || s.limiter.Allow(r.Context(), clientKey(r, s.proxies)) {
		return true
	}
	s.metrics.rateLimited.Inc()
	w.Header().Set("Retry-After", "1")
	s.jsonError(w, http.StatusTooManyRequests, "too many checks, slow down", nil)
	return false
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}

// fail maps a service error to its status code
func (s *Server) fail(w http.ResponseWriter, message string, err error) {
	s.jsonError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrExerciseNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrHTMLNotEditable),
		errors.Is(err, session.ErrNoHTMLTab):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
