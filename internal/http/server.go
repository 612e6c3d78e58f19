// Package http serves the dashboard API and the embedded single-page app.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"kharcha/internal/cache"
	"kharcha/internal/core"
	applog "kharcha/internal/log"
	"kharcha/internal/storage"
	appweb "kharcha/web"
)

// Store is the slice of the repository the API needs.
type Store interface {
	ListExpenses(ctx context.Context, f storage.Filter) ([]core.Record, error)
	GetExpense(ctx context.Context, id int64) (core.Record, error)
	UpdateExpense(ctx context.Context, id int64, userID string, ch storage.Changes) (core.Record, error)
	DeleteExpense(ctx context.Context, id int64, userID string) error
	CreateFeatureRequest(ctx context.Context, text, username string) (int64, error)
}

// Publisher requests spreadsheet backup work after mutations. It is
// optional; without a broker the pending scan still catches everything.
type Publisher interface {
	PublishRecordSync(ctx context.Context, id int64) error
	PublishRecordDelete(ctx context.Context, id int64, userID string) error
}

type Server struct {
	http.Server
	store     Store
	publisher Publisher
	logger    *applog.Logger

	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// Dashboard payloads cached per user and date range.
	dataCache *cache.LRUCache[dashboardPayload]
	cacheMgr  *cache.Manager

	shutdownOnce sync.Once

	now func() time.Time
}

// Options tunes cache behavior.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store Store, publisher Publisher, logger *applog.Logger, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		store:       store,
		publisher:   publisher,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
		dataCache:   cache.NewLRUCache[dashboardPayload](opts.CacheSize, opts.CacheTTL),
		cacheMgr:    cache.NewManager(),
		now:         time.Now,
	}

	s.cacheMgr.Register(s.dataCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /api/data", s.withSecurityHeaders(s.handleDashboardData))
	mux.HandleFunc("PUT /api/expense/{id}", s.withSecurityHeaders(s.handleUpdateExpense))
	mux.HandleFunc("PATCH /api/expense/{id}", s.withSecurityHeaders(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expense/{id}", s.withSecurityHeaders(s.handleDeleteExpense))
	mux.HandleFunc("POST /api/feature-request", s.withSecurityHeaders(s.handleFeatureRequest))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/", s.withSecurityHeaders(s.handleStatic))

	s.Server.Handler = applog.RequestLogger(logger)(mux)

	return s
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type contextKey string

const requestIDKey contextKey = "request_id"

// withSecurityHeaders adds security headers, rate limiting and a request id.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)

		ctx := context.WithValue(r.Context(), requestIDKey, generateRequestID())
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.WarnContext(ctx, "Suspicious request",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
		}

		// Mutations are rate limited per client.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://cdn.jsdelivr.net; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

// generateRequestID creates a unique request id for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleStatic serves the embedded dashboard app. Unknown paths fall back to
// index.html so client-side routes survive a reload.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Embedded static FS unavailable", "error", err)
		http.Error(w, "static assets unavailable", http.StatusInternalServerError)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path != "" {
		if f, err := sub.Open(path); err == nil {
			_ = f.Close()
			w.Header().Set("Cache-Control", "public, max-age=3600")
			http.FileServer(http.FS(sub)).ServeHTTP(w, r)
			return
		}
	}

	index, err := fs.ReadFile(sub, "index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(index)
}

func (s *Server) cacheKey(userID, start, end string) string {
	return userID + "|" + start + "|" + end
}

// invalidateUser drops cached payloads for one user and for unfiltered views.
func (s *Server) invalidateUser(userID string) {
	dropped := s.dataCache.DeletePrefix(userID + "|")
	dropped += s.dataCache.DeletePrefix("|")
	if dropped > 0 {
		s.logger.Debug("Dashboard cache invalidated", "user_id", userID, "entries", dropped)
	}
}
