// Package server serves the dashboard screens and the JSON API.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/seo-dashboard/internal/pipeline"
	"github.com/sells-group/seo-dashboard/internal/report"
	"github.com/sells-group/seo-dashboard/internal/resilience"
	"github.com/sells-group/seo-dashboard/internal/session"
	"github.com/sells-group/seo-dashboard/internal/state"
)

// Analyzer runs analyses. *pipeline.Pipeline implements it.
type Analyzer interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
	Supersede(ctx context.Context, runID string)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	analyzer Analyzer
	gate     *session.Gate
	sessions *state.Registry
	renderer *report.Renderer
	breakers *resilience.Breakers

	limiter       *ipLimiter
	corsOrigins   []string
	secureCookies bool

	// root outlives requests; background analyses derive from it.
	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithBreakers exposes breaker states on /health.
func WithBreakers(b *resilience.Breakers) Option {
	return func(s *Server) { s.breakers = b }
}

// WithRateLimit limits analyze requests per client IP. A non-positive
// perMinute disables limiting.
func WithRateLimit(perMinute, burst int) Option {
	return func(s *Server) { s.limiter = newIPLimiter(perMinute, burst) }
}

// WithCORSOrigins sets the origins allowed to call the JSON API.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) { s.secureCookies = secure }
}

// New creates a Server.
func New(analyzer Analyzer, gate *session.Gate, sessions *state.Registry, renderer *report.Renderer, opts ...Option) *Server {
	root, cancel := context.WithCancel(context.Background())
	s := &Server{
		analyzer:    analyzer,
		gate:        gate,
		sessions:    sessions,
		renderer:    renderer,
		corsOrigins: []string{"*"},
		root:        root,
		cancel:      cancel,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(recoverer)

	r.Get("/health", s.handleHealth)

	r.Get("/", s.handleIndex)
	r.With(s.limiter.middleware).Post("/analyze", s.handleAnalyze)
	r.Post("/reset", s.handleReset)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/me", s.handleMe)
		r.Get("/analysis", s.handleAnalysis)
		r.With(s.limiter.middleware).Post("/analyze", s.handleAPIAnalyze)
	})

	return r
}

// Close cancels in-flight analyses and waits for them to settle.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// SweepLimiter drops idle rate limit buckets every interval until ctx is
// done. It returns at once when rate limiting is off.
func (s *Server) SweepLimiter(ctx context.Context, interval time.Duration) error {
	if s.limiter == nil {
		return nil
	}
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := s.limiter.prune(now, limiterIdle); n > 0 {
				zap.L().Debug("server: pruned idle rate limiters", zap.Int("removed", n), zap.Int("live", s.limiter.len()))
			}
		}
	}
}
