// Package http serves the JSON API the single-page client talks to.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"kakeibo/internal/cache"
	"kakeibo/internal/loading"
	applog "kakeibo/internal/log"
	"kakeibo/internal/middleware/ratelimit"
	"kakeibo/internal/middleware/security"
	"kakeibo/internal/middleware/trace"
	"kakeibo/internal/rate"
	"kakeibo/internal/services"
	"kakeibo/internal/state"
)

// Deps carries everything the server needs to answer requests.
type Deps struct {
	State      *state.Store
	Records    *services.RecordService
	Categories *services.CategoryService
	Rates      *rate.Holder
	Loading    *loading.Selector

	// Logger, when set, is attached to every request context.
	Logger *applog.Logger
}

type Server struct {
	http.Server

	state      *state.Store
	records    *services.RecordService
	categories *services.CategoryService
	rates      *rate.Holder
	loading    *loading.Selector

	limiter  *ratelimit.Limiter
	detector *security.Detector

	// Dashboard responses cached per query-parameter key. generation is
	// bumped on every mutation so stale entries fall out of reach; TTL
	// eviction reclaims them.
	dashCache  *cache.LRUCache[state.Views]
	cacheMgr   *cache.Manager
	generation atomic.Int64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		state:      deps.State,
		records:    deps.Records,
		categories: deps.Categories,
		rates:      deps.Rates,
		loading:    deps.Loading,
		limiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:   security.NewDetector(),
		dashCache:  cache.NewLRUCache[state.Views](100, 5*time.Minute),
		cacheMgr:   cache.NewManager(),
	}
	s.cacheMgr.Register(s.dashCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleUpdateExpense)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("POST /api/settings", s.handleReplaceSettings)
	mux.HandleFunc("PATCH /api/settings", s.handlePatchSettings)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/rate", s.handleRate)
	mux.HandleFunc("GET /api/loading", s.handleLoading)

	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = s.guard(mux)
	if deps.Logger != nil {
		handler = applog.Middleware(deps.Logger.WithComponent(applog.ComponentHTTP))(handler)
	}
	s.Handler = headers.Middleware(tracer.Middleware(handler))

	return s
}

// guard applies suspicious-request logging and rate limits mutating
// methods, matching the old form handler's POST throttle.
func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := s.detector.ExtractClientIP(r)

		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"client_ip", clientIP,
				"method", r.Method,
				"path", r.URL.Path)
		}

		if r.Method != http.MethodGet && !s.limiter.Allow(clientIP) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// invalidateViews moves the dashboard cache past every existing key.
func (s *Server) invalidateViews() {
	s.generation.Add(1)
}

// Shutdown stops the background cleanup loops and the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
