package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ukydev/mecsentinel/internal/auth"
	"github.com/ukydev/mecsentinel/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey contextKey = "user"
)

// defaultSkipPaths are reachable without a session.
var defaultSkipPaths = []string{
	"/api/auth/signin",
	"/api/auth/register",
	"/api/auth/set",
	"/api/auth/signout",
	"/health",
}

// AuthMiddleware provides session authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
	skipPaths   []string
}

// NewAuthMiddleware creates a new authentication middleware. Extra skip
// paths are matched by prefix like the defaults.
func NewAuthMiddleware(authService *auth.Service, skipPaths ...string) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		skipPaths:   append(append([]string{}, defaultSkipPaths...), skipPaths...),
	}
}

// Authenticate validates the session token from the Authorization header
// or the session cookie and adds the claims to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.authService.TokenFromRequest(r)
		if err != nil {
			http.Error(w, "Authorization required", http.StatusUnauthorized)
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
	})
}

// WithUser stores claims in ctx.
func WithUser(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

func (m *AuthMiddleware) shouldSkipAuth(path string) bool {
	for _, skipPath := range m.skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// RateLimitMiddleware provides basic rate limiting
type RateLimitMiddleware struct {
	requests  map[string][]int64 // client key -> timestamps
	lastSweep int64
	mu        sync.Mutex
	now       func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests: make(map[string][]int64),
		now:      time.Now,
	}
}

// RateLimit allows maxRequests per client within a sliding window. Signed-in
// clients are keyed by user, anonymous ones by IP address.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, windowSeconds int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			now := m.now().Unix()
			windowStart := now - int64(windowSeconds)

			m.mu.Lock()
			if now-m.lastSweep >= int64(windowSeconds) {
				m.sweep(windowStart)
				m.lastSweep = now
			}
			valid := inWindow(m.requests[key], windowStart)

			if len(valid) >= maxRequests {
				m.store(key, valid)
				m.mu.Unlock()
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			m.requests[key] = append(valid, now)
			m.mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

// sweep drops clients with no request inside the window. Callers hold mu.
func (m *RateLimitMiddleware) sweep(windowStart int64) {
	for key, stamps := range m.requests {
		m.store(key, inWindow(stamps, windowStart))
	}
}

// store keeps the timestamps of key, evicting the key when none are left.
func (m *RateLimitMiddleware) store(key string, stamps []int64) {
	if len(stamps) == 0 {
		delete(m.requests, key)
		return
	}
	m.requests[key] = stamps
}

// inWindow filters stamps in place, keeping those after windowStart.
func inWindow(stamps []int64, windowStart int64) []int64 {
	valid := stamps[:0]
	for _, ts := range stamps {
		if ts > windowStart {
			valid = append(valid, ts)
		}
	}
	return valid
}

func clientKey(r *http.Request) string {
	if claims, ok := GetUserFromContext(r.Context()); ok {
		return "user:" + claims.UserID
	}
	return "ip:" + getClientIP(r)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	ip := r.RemoteAddr
	if colonIndex := strings.LastIndex(ip, ":"); colonIndex != -1 {
		ip = ip[:colonIndex]
	}
	return ip
}
