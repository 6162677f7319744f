// Package http exposes the planner as a JSON API: timeline computation,
// run log CRUD, the spending event queue and per-currency income configs.
package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"warchest/internal/cache"
	"warchest/internal/core"
	"warchest/internal/middleware/ratelimit"
	"warchest/internal/middleware/trace"
	"warchest/internal/services"
	"warchest/internal/timeline"
)

type Server struct {
	http.Server
	planner      *services.PlannerService
	defaultWeeks int

	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	// Computed timelines are cached per week count and invalidated on any
	// mutation.
	timelineCache *cache.LRUCache[timeline.TimelineData]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, planner *services.PlannerService, defaultWeeks int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		planner:       planner,
		defaultWeeks:  defaultWeeks,
		rateLimiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		timelineCache: cache.NewLRUCache[timeline.TimelineData](len(core.WeekCounts), 5*time.Minute),
		cacheManager:  cache.NewManager(),
	}
	s.cacheManager.Register(s.timelineCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	s.tracer = trace.NewMiddleware(clientIP)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/timeline", s.handleTimeline)

	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("POST /api/runs", s.handleCreateRun)
	mux.HandleFunc("DELETE /api/runs/{id}", s.handleDeleteRun)

	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)
	mux.HandleFunc("DELETE /api/events", s.handleClearEvents)

	mux.HandleFunc("GET /api/configs", s.handleListConfigs)
	mux.HandleFunc("PUT /api/configs/{currency}", s.handleUpdateConfig)

	mux.HandleFunc("GET /api/derived", s.handleDerivedValues)

	s.Handler = s.tracer.Middleware(s.withRateLimit(mux))
	return s
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// invalidateTimelines drops every cached timeline after a mutation.
func (s *Server) invalidateTimelines() {
	for _, weeks := range core.WeekCounts {
		s.timelineCache.Delete(timelineCacheKey(weeks))
	}
}

func timelineCacheKey(weeks int) string {
	return fmt.Sprintf("weeks:%d", weeks)
}

func clientIP(r *http.Request) string {
	// Honour the first hop of X-Forwarded-For when present.
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
