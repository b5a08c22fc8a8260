package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"learnerportal/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const DeviceContextKey ContextKey = "device"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.DeviceTokens
	csrf    *security.CSRFGenerator
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.DeviceTokens, csrf *security.CSRFGenerator, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		tokens:  tokens,
		csrf:    csrf,
		limiter: limiter,
	}
}

// Device identifies the calling browser from its signed cookie, issuing a
// new device when the cookie is missing or invalid. The cookie is reissued
// on every request so its expiry slides.
func (m *Middleware) Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID := ""
		if cookie, err := r.Cookie(security.DeviceCookieName); err == nil {
			if id, err := m.tokens.Parse(cookie.Value); err == nil {
				deviceID = id
			}
		}

		deviceID, token, err := m.tokens.Issue(deviceID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to issue device token", err)
			return
		}
		http.SetCookie(w, security.CreateDeviceCookie(r, token, time.Now().Add(m.tokens.TTL())))

		ctx := context.WithValue(r.Context(), DeviceContextKey, deviceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CSRFProtect rejects mutating requests without the device's CSRF token
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next(w, r)
			return
		}
		if !m.csrf.ValidateToken(GetDeviceFromContext(r.Context()), r.Header.Get(security.CSRFHeader)) {
			respondWithError(w, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit limits requests per device
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := GetDeviceFromContext(r.Context())
		if key == "" {
			key = security.GetClientIP(r)
		}
		if !m.limiter.Allow(key) {
			w.Header().Set("Retry-After", "60")
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// CSRFToken returns the token the device must send on mutating requests
func (m *Middleware) CSRFToken(deviceID string) string {
	token, err := m.csrf.GenerateToken(deviceID)
	if err != nil {
		return ""
	}
	return token
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetDeviceFromContext retrieves the device ID from the request context
func GetDeviceFromContext(ctx context.Context) string {
	id, _ := ctx.Value(DeviceContextKey).(string)
	return id
}
