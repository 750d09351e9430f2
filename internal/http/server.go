// Package http serves the budgetlite JSON API consumed by the presentation layer.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"budgetlite/internal/core"
	applog "budgetlite/internal/log"
	"budgetlite/internal/services"
)

// Options wires the server to the application services.
type Options struct {
	Stats     *services.StatsService
	Ledger    *services.LedgerService
	Formatter *core.Formatter
	Clock     core.Clock
	Logger    *applog.Logger
	// Ready reports whether dependencies are usable; nil means always ready.
	Ready func(ctx context.Context) error
	// RateLimit is the number of mutating requests allowed per client per minute.
	RateLimit int
}

type Server struct {
	http.Server

	stats       *services.StatsService
	ledger      *services.LedgerService
	formatter   *core.Formatter
	ready       func(ctx context.Context) error
	logger      *applog.Logger
	httpLog     *applog.StructuredLogger
	rateLimiter *rateLimiter
	metrics     securityMetrics

	// cursorMu guards cursor, the month selected by the presentation layer.
	cursorMu sync.Mutex
	cursor   *core.MonthCursor

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		stats:       opts.Stats,
		ledger:      opts.Ledger,
		formatter:   opts.Formatter,
		ready:       opts.Ready,
		logger:      logger,
		httpLog:     applog.NewStructuredLogger(logger),
		rateLimiter: newRateLimiter(opts.RateLimit),
		cursor:      core.NewMonthCursor(opts.Stats.Calendar(), opts.Clock),
	}
	go s.rateLimiter.startCleanup(5 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/months", s.handleListMonths)
	mux.HandleFunc("GET /api/months/{month}/stats", s.handleMonthStats)
	mux.HandleFunc("GET /api/months/{month}/expenses", s.handleMonthExpenses)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PATCH /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("POST /api/categories/{id}/move", s.handleMoveCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PATCH /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/cursor", s.handleCursor)
	mux.HandleFunc("POST /api/cursor/prev", s.handleCursorPrev)
	mux.HandleFunc("POST /api/cursor/next", s.handleCursorNext)
	mux.HandleFunc("POST /api/cursor/reset", s.handleCursorReset)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           applog.Middleware(logger)(s.withMiddleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background routines and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) location() *time.Location {
	if loc := s.stats.Calendar().Location; loc != nil {
		return loc
	}
	return time.UTC
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withMiddleware assigns a request id, applies security headers and rate
// limiting to mutating requests, and logs the outcome.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	requestIDs := applog.RequestIDMiddleware(func(r *http.Request) string { return RequestID(r.Context()) })
	inner := requestIDs(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = generateRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)
		setSecurityHeaders(w.Header())

		if detectSuspiciousRequest(r, &s.metrics) {
			s.logger.WithComponent(applog.ComponentSecurity).WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, &s.metrics) {
			w.Header().Set("Retry-After", "60")
			writeJSON(rw, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		} else {
			inner.ServeHTTP(rw, r)
		}

		s.httpLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
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

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
