package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-board-client/internal/api"
	"github.com/jonathan/job-board-client/internal/auth"
	"github.com/jonathan/job-board-client/internal/broadcast"
	"github.com/jonathan/job-board-client/internal/claims"
	"github.com/jonathan/job-board-client/internal/guard"
	"github.com/jonathan/job-board-client/internal/server/ratelimit"
	"github.com/jonathan/job-board-client/internal/session"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	api         *api.Client
	auth        *auth.Service
	guard       *guard.Guard
	sessions    *session.Registry
	transport   broadcast.Transport
	channel     string
	decoder     claims.Decoder
	rateLimiter *ratelimit.Limiter
	logger      logrus.FieldLogger

	pageSize     int
	cookieMaxAge time.Duration

	viewsMu sync.Mutex
	views   map[string]*profileViews
}

// Config holds server configuration
type Config struct {
	Addr         string
	API          *api.Client
	Auth         *auth.Service
	Sessions     *session.Registry
	Transport    broadcast.Transport
	Channel      string
	Decoder      claims.Decoder
	RateLimit    *ratelimit.Config
	PageSize     int
	CookieMaxAge time.Duration
	Logger       logrus.FieldLogger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.API == nil || cfg.Auth == nil || cfg.Sessions == nil {
		return nil, errors.New("server requires an API client, an auth service and a session registry")
	}
	logger := cfg.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	if cfg.Channel == "" {
		cfg.Channel = broadcast.DefaultChannel
	}
	if cfg.Decoder == nil {
		cfg.Decoder = claims.UnverifiedDecoder{}
	}
	if cfg.CookieMaxAge <= 0 {
		cfg.CookieMaxAge = 7 * 24 * time.Hour
	}
	if cfg.RateLimit == nil {
		rl, err := ratelimit.LoadConfig()
		if err != nil {
			return nil, err
		}
		cfg.RateLimit = rl
	}

	s := &Server{
		api:          cfg.API,
		auth:         cfg.Auth,
		sessions:     cfg.Sessions,
		transport:    cfg.Transport,
		channel:      cfg.Channel,
		decoder:      cfg.Decoder,
		rateLimiter:  ratelimit.NewLimiter(cfg.RateLimit),
		logger:       logger.WithField("component", "server"),
		pageSize:     cfg.PageSize,
		cookieMaxAge: cfg.CookieMaxAge,
		views:        make(map[string]*profileViews),
	}
	cfg.Sessions.OnRemove(s.dropViews)
	s.guard = guard.New(guard.Options{
		Validator:      cfg.API,
		PublicPaths:    append(append([]string(nil), guard.DefaultPublicPaths...), "/events", "/auth/me", "/auth/logout"),
		PublicPrefixes: guard.DefaultPublicPrefixes,
		Logger:         logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Auth endpoints
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /auth/unauthorized", s.handleUnauthorized)
	mux.HandleFunc("GET /auth/me", s.handleMe)

	// Session events for the caller's profile
	mux.HandleFunc("GET /events", s.handleEvents)

	// Result pages
	mux.HandleFunc("GET /resumes", s.handleListResumes)
	mux.HandleFunc("POST /resumes/search", s.handleSearchResumes)
	mux.HandleFunc("POST /resumes/reset", s.handleResetResumes)
	mux.HandleFunc("GET /vacancies", s.handleListVacancies)
	mux.HandleFunc("POST /vacancies/search", s.handleSearchVacancies)
	mux.HandleFunc("POST /vacancies/reset", s.handleResetVacancies)

	// Records
	mux.HandleFunc("GET /cards/{id}", s.handleCard)
	mux.HandleFunc("POST /create/resume", s.handleCreateResume)
	mux.HandleFunc("POST /create/vacancy", s.handleCreateVacancy)
	mux.HandleFunc("GET /profile", s.handleProfile)

	s.httpServer = &http.Server{
		Addr:        cfg.Addr,
		Handler:     s.withRateLimit(s.withLogging(s.withCORS(s.withProfile(s.guard.Middleware(mux))))),
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: /events streams for as long as the tab is open.
		IdleTimeout: 60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.httpServer.Addr).Info("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.Close()
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.Close()
	s.logger.Info("server stopped")
	return nil
}

// Close releases the server's views and the rate limiter.
func (s *Server) Close() {
	s.viewsMu.Lock()
	for _, v := range s.views {
		v.unmount()
	}
	s.views = make(map[string]*profileViews)
	s.viewsMu.Unlock()

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			// Cookies are credentials, so the origin is echoed instead of "*".
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)
		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request completed")
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Warn("error encoding JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failure writes err with its mapped status and user-facing message.
func (s *Server) failure(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
	}
	s.errorResponse(w, status, userMessage(err))
}

// extractClientID extracts the client identifier from the request.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = secs
		w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
	}

	s.logger.WithFields(logrus.Fields{
		"limit":    info.Limit,
		"reset_at": info.ResetTime.Format(time.RFC3339),
	}).Warn("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
