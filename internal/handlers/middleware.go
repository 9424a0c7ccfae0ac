package handlers

import (
	"context"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"playlearn/internal/models"
	"playlearn/internal/security"
	"playlearn/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	PrincipalContextKey ContextKey = "principal"
	RequestIDContextKey ContextKey = "request_id"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	verifier *security.TokenVerifier
	limiter  *security.RateLimiter
	logger   *zap.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(verifier *security.TokenVerifier, limiter *security.RateLimiter, logger *zap.Logger) *Middleware {
	return &Middleware{
		verifier: verifier,
		limiter:  limiter,
		logger:   logger,
	}
}

// RequireAuth is middleware that requires a valid bearer token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondWithError(w, m.logger, http.StatusUnauthorized, CodeUnauthorized, ErrUnauthorized, nil)
			return
		}

		principal, err := m.verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			respondWithError(w, m.logger, http.StatusUnauthorized, CodeUnauthorized, ErrUnauthorized, nil)
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin is middleware that requires an authenticated admin
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipalFromContext(r.Context())
		if principal == nil || principal.Role != models.RoleAdmin {
			respondWithError(w, m.logger, http.StatusForbidden, CodeForbidden, ErrAdminOnly, nil)
			return
		}
		next(w, r)
	})
}

// RateLimit throttles requests per authenticated user, falling back to the
// client IP for anonymous callers.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + security.GetClientIP(r)
		if principal := GetPrincipalFromContext(r.Context()); principal != nil {
			key = "user:" + strconv.FormatInt(principal.UserID, 10)
		}

		if !m.limiter.Allow(key) {
			m.logger.Warn("Rate limit exceeded", zap.String("key", key), zap.String("path", r.URL.Path))
			respondWithError(w, m.logger, http.StatusTooManyRequests, CodeRateLimited, ErrTooManyRequests, nil)
			return
		}
		next(w, r)
	}
}

// RequestID tags every request with an ID, reusing the caller's when present
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("HTTP request",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Recover turns a panicking handler into a 500 response
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					logger.Error("Handler panicked",
						zap.String("request_id", GetRequestIDFromContext(r.Context())),
						zap.Any("panic", p),
						zap.ByteString("stack", debug.Stack()),
					)
					respondWithError(w, logger, http.StatusInternalServerError, CodeInternal, ErrInternalServerError, nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipalFromContext retrieves the authenticated caller from the request context
func GetPrincipalFromContext(ctx context.Context) *security.Principal {
	principal, ok := ctx.Value(PrincipalContextKey).(*security.Principal)
	if !ok {
		return nil
	}
	return principal
}

// GetRequestIDFromContext retrieves the request ID from the request context
func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// actorFromRequest converts the authenticated principal into a service actor
func actorFromRequest(r *http.Request) service.Actor {
	principal := GetPrincipalFromContext(r.Context())
	if principal == nil {
		return service.Actor{}
	}
	return service.Actor{
		UserID: principal.UserID,
		Admin:  principal.Role == models.RoleAdmin,
	}
}
