package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"backstage/internal/cache"
	"backstage/internal/core"
	"backstage/internal/log"
	"backstage/internal/services"
)

// ReportCache holds the LRU caches for every report endpoint. Ledger
// and allocation writes purge all of them at once; a stale indicator
// set must never outlive the data it summarizes.
type ReportCache struct {
	kpis          *cache.LRUCache[core.KpiSet]
	profitability *cache.LRUCache[[]core.EventProfitability]
	flat          *cache.LRUCache[services.FlatAllocationReport]
	categories    *cache.LRUCache[services.CategoryAllocationReport]

	manager        *cache.Manager
	cleanupRunning bool
}

func NewReportCache(ttl time.Duration) *ReportCache {
	c := &ReportCache{
		kpis:          cache.NewLRUCache[core.KpiSet](100, ttl),
		profitability: cache.NewLRUCache[[]core.EventProfitability](10, ttl),
		flat:          cache.NewLRUCache[services.FlatAllocationReport](100, ttl),
		categories:    cache.NewLRUCache[services.CategoryAllocationReport](100, ttl),
		manager:       cache.NewManager(),
	}
	c.manager.Register(c.kpis)
	c.manager.Register(c.profitability)
	c.manager.Register(c.flat)
	c.manager.Register(c.categories)
	return c
}

// Purge drops every cached report.
func (c *ReportCache) Purge() {
	c.kpis.Purge()
	c.profitability.Purge()
	c.flat.Purge()
	c.categories.Purge()
}

// StartCleanup begins evicting expired entries in the background.
func (c *ReportCache) StartCleanup(interval time.Duration) {
	c.cleanupRunning = true
	c.manager.StartCleanup(interval)
}

// StopCleanup stops the background eviction loop if it is running.
func (c *ReportCache) StopCleanup() {
	if !c.cleanupRunning {
		return
	}
	c.cleanupRunning = false
	c.manager.Stop()
}

var _ services.Invalidator = (*ReportCache)(nil)

type Server struct {
	http.Server
	reports *services.ReportService
	ledger  *services.LedgerService
	alloc   *services.AllocationConfigService
	caches  *ReportCache

	logger      *log.Logger
	httpLog     *log.StructuredLogger
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. The ReportCache must be the same instance wired into the
// write services as their invalidator.
func NewServer(addr string, reports *services.ReportService, ledger *services.LedgerService, alloc *services.AllocationConfigService, caches *ReportCache, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		reports:     reports,
		ledger:      ledger,
		alloc:       alloc,
		caches:      caches,
		logger:      logger.WithComponent(log.ComponentHTTP),
		httpLog:     log.NewStructuredLogger(logger),
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/api/kpis", s.withCommon(s.handleKpis))
	mux.HandleFunc("/api/profitability", s.withCommon(s.handleProfitability))
	mux.HandleFunc("/api/allocation/flat", s.withCommon(s.handleFlatAllocation))
	mux.HandleFunc("/api/allocation/categories", s.withCommon(s.handleCategoryAllocation))
	mux.HandleFunc("/api/transactions", s.withCommon(s.handleCreateTransaction))
	mux.HandleFunc("/api/allocation/rules", s.withCommon(s.handleReplaceRules))
	mux.HandleFunc("/api/allocation/shares", s.withCommon(s.handleReplaceShares))

	var handler http.Handler = mux
	handler = log.RequestIDMiddleware(requestIDFor)(handler)
	handler = log.Middleware(s.logger)(handler)
	s.Server.Handler = handler

	return s
}

// requestIDFor honors an incoming X-Request-ID header so IDs survive
// proxies, generating one otherwise.
func requestIDFor(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return generateRequestID()
}

// Shutdown stops the rate limiter and cache cleanup goroutines before
// shutting down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.caches != nil {
			s.caches.StopCleanup()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withCommon adds security headers, rate limiting on writes and
// request logging. Request-scoped loggers come from the middleware
// chain around the mux.
func (s *Server) withCommon(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		ctx := r.Context()
		s.httpLog.LogHTTPStart(ctx, r, clientIP)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			s.httpLog.LogHTTPEnd(ctx, r, http.StatusTooManyRequests, time.Since(start).Milliseconds(), clientIP)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.httpLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
