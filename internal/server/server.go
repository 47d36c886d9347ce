// Package server provides the HTTP REST API for the CGPA tracker.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jonathan/cgpa-tracker/internal/config"
	"github.com/jonathan/cgpa-tracker/internal/db"
	"github.com/jonathan/cgpa-tracker/internal/grading"
	"github.com/jonathan/cgpa-tracker/internal/server/middleware"
	"github.com/jonathan/cgpa-tracker/internal/server/ratelimit"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	logger      log.Logger
	rateLimiter *ratelimit.Limiter
	pinger      Pinger
	grades      *grading.Table
	userService *UserService
	records     *RecordService
	authHandler *AuthHandler
	validator   *requestValidator
	requireAuth func(http.Handler) http.Handler
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	Logger      log.Logger
}

// Deps are the collaborators a Server is assembled from. New fills them
// from the database and the environment; tests supply their own.
type Deps struct {
	Users     DBClient
	Records   RecordStore
	Pinger    Pinger
	JWT       *config.JWTConfig
	Passwords *config.PasswordConfig
	RateLimit *ratelimit.Config
	Grades    *grading.Table
	Clock     func() time.Time
	Logger    log.Logger
}

// New connects to the database, loads auth settings from the environment
// and builds a server listening on cfg.Port.
func New(cfg Config) (*Server, error) {
	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	s := NewWithDeps(Deps{
		Users:     database,
		Records:   database,
		Pinger:    database,
		JWT:       jwtConfig,
		Passwords: passwordConfig,
		RateLimit: ratelimit.LoadConfig(),
		Logger:    cfg.Logger,
	})
	s.db = database
	s.httpServer.Addr = fmt.Sprintf(":%d", cfg.Port)
	return s, nil
}

// NewWithDeps assembles a server from explicit dependencies.
func NewWithDeps(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	grades := deps.Grades
	if grades == nil {
		grades = grading.StandardTable()
	}
	var calcOpts []grading.Option
	if deps.Clock != nil {
		calcOpts = append(calcOpts, grading.WithClock(deps.Clock))
	}

	jwtService := NewJWTService(deps.JWT)
	if deps.Clock != nil {
		jwtService.now = deps.Clock
	}

	s := &Server{
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(deps.RateLimit),
		pinger:      deps.Pinger,
		grades:      grades,
		userService: NewUserService(deps.Users, deps.Passwords),
		records:     NewRecordService(deps.Records, grading.NewCalculator(grades, calcOpts...), log.With(logger, "component", "records")),
		validator:   newRequestValidator(),
		requireAuth: middleware.AuthMiddleware(jwtService.AsTokenValidator()),
	}
	s.authHandler = NewAuthHandler(s.userService, jwtService, s.validator, logger)

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the full middleware chain around the route table.
func (s *Server) Handler() http.Handler {
	return s.withRateLimit(s.withLogging(s.withCORS(s.routes())))
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/grades", s.handleGrades)

	mux.HandleFunc("POST /v1/auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", s.authHandler.Login)

	mux.Handle("GET /v1/users/me", s.authed(s.handleGetMe))
	mux.Handle("PUT /v1/users/me/password", s.authed(s.handleUpdatePassword))

	mux.Handle("GET /v1/record", s.authed(s.handleGetRecord))
	mux.Handle("POST /v1/record/semesters", s.authed(s.handleUpsertSemester))
	mux.Handle("GET /v1/record/semesters/{number}", s.authed(s.handleGetSemester))
	mux.Handle("PUT /v1/record/semesters/{number}", s.authed(s.handleUpdateSemester))
	mux.Handle("DELETE /v1/record/semesters/{number}", s.authed(s.handleDeleteSemester))
	return mux
}

func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return s.requireAuth(h)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		level.Info(s.logger).Log("msg", "server starting", "addr", s.httpServer.Addr)
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
	case <-ctx.Done():
	}

	level.Info(s.logger).Log("msg", "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.Close()
	level.Info(s.logger).Log("msg", "server stopped")
	return nil
}

// Close releases the rate limiter and the database pool.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging logs one line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger := level.Info(s.logger)
		if rec.status >= http.StatusInternalServerError {
			logger = level.Error(s.logger)
		}
		logger.Log("method", r.Method, "path", r.URL.Path, "status", rec.status,
			"remote", r.RemoteAddr, "took", time.Since(start))
	})
}

// handleHealth reports liveness and, when a store is attached, its reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			level.Warn(s.logger).Log("msg", "health check failed", "err", err)
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGrades lists the grade table.
func (s *Server) handleGrades(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"grades":          s.grades.Entries(),
		"no_credit_grade": grading.NoCreditGrade,
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	writeJSON(w, s.logger, status, data)
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, s.logger, status, map[string]string{"error": message})
}

// serviceError maps a service error to its status and a client-safe message.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		level.Error(s.logger).Log("msg", "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	s.errorResponse(w, status, publicMessage(err))
}

func writeJSON(w http.ResponseWriter, logger log.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		level.Error(logger).Log("msg", "error encoding JSON response", "err", err)
	}
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// extractClientID uses the IP address from RemoteAddr. X-Forwarded-For is
// ignored since no trusted proxy is configured.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	level.Warn(s.logger).Log("msg", "rate limit exceeded", "client", extractClientID(r),
		"path", r.URL.Path, "limit", info.Limit)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
