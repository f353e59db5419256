package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/settings"
)

// Config holds the configuration for the HTTP server.
type Config struct {
	Port         int
	Addr         string
	CORSOrigin   string
	PollInterval time.Duration
}

// Server is the crew serve HTTP server.
type Server struct {
	db       *db.DB
	baseDir  string
	settings *settings.Settings
	config   Config
	mux      *http.ServeMux
	hub      *ActionHub
	http     *http.Server
}

// NewServer creates a Server and registers all routes and middleware.
func NewServer(database *db.DB, baseDir string, st *settings.Settings, config Config) *Server {
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Second
	}
	s := &Server{
		db:       database,
		baseDir:  baseDir,
		settings: st,
		config:   config,
		mux:      http.NewServeMux(),
		hub:      NewActionHub(database, config.PollInterval),
	}

	s.registerRoutes()
	return s
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)

	// Wrap order: outermost first when applied, so we apply innermost first.
	// Final order (outermost to innermost):
	//   recovery -> logging -> CORS -> auth -> handler
	h = s.authMiddleware(h)
	h = s.corsMiddleware(h)
	h = s.loggingMiddleware(h)
	h = s.recoveryMiddleware(h)

	return h
}

// ListenAndServe starts the HTTP server and the action hub, and shuts
// both down when the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Addr, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	s.http = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("serving", "addr", ln.Addr().String())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown gracefully stops the HTTP server. If the server has not been
// started, this is a no-op.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// registerRoutes registers all API routes.
func (s *Server) registerRoutes() {
	// Health and auth
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /v1/login", s.handleLogin)
	s.mux.HandleFunc("POST /v1/logout", s.handleLogout)

	// Tasks
	s.mux.HandleFunc("GET /v1/tasks", s.handleListTasks)
	s.mux.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	s.mux.HandleFunc("POST /v1/tasks", s.handleCreateTask)
	s.mux.HandleFunc("POST /v1/tasks/bulk-complete", s.handleBulkCompleteTasks)

	// Tickets
	s.mux.HandleFunc("GET /v1/tickets", s.handleListTickets)
	s.mux.HandleFunc("GET /v1/tickets/{id}", s.handleGetTicket)
	s.mux.HandleFunc("POST /v1/tickets", s.handleCreateTicket)
	s.mux.HandleFunc("POST /v1/tickets/bulk-close", s.handleBulkCloseTickets)

	// People and delegations
	s.mux.HandleFunc("GET /v1/users", s.handleListUsers)
	s.mux.HandleFunc("GET /v1/delegations", s.handleListDelegations)

	// Reporting and audit
	s.mux.HandleFunc("GET /v1/report/weekly", s.handleWeeklyReport)
	s.mux.HandleFunc("GET /v1/actions", s.handleListActions)

	// SSE events
	s.mux.HandleFunc("GET /v1/events", s.handleEvents)
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush passes through so SSE still works behind the recorder.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// recoveryMiddleware catches panics, logs the stack trace, and returns a
// 500 error envelope.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				slog.Error("panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(stack),
				)
				WriteError(w, ErrInternal, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request with method, path, status code,
// and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sr, r)
		slog.Info("req",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sr.code,
			"dur", time.Since(start).String(),
		)
	})
}

// corsMiddleware handles CORS preflight and sets response headers when
// CORSOrigin is configured. With no configured origin it is a no-op.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.CORSOrigin == "" {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		if s.config.CORSOrigin != "*" && s.config.CORSOrigin != origin {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware resolves the bearer token to a user and stores it on
// the request context. Health and login are exempt.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/v1/login" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			WriteError(w, ErrUnauthorized, "missing authorization header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			WriteError(w, ErrUnauthorized, "invalid authorization format", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		user, err := Authenticate(s.db, token)
		if err != nil {
			WriteError(w, ErrUnauthorized, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}
