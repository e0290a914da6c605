// Package identity assigns each stub backend client an anonymous session
// carried in a cookie.
package identity

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/ashureev/docqa/internal/store"
	"github.com/google/uuid"
)

const (
	// CookieName is the session cookie set on every response.
	CookieName      = "docqa_session"
	cookieMaxAge    = 24 * time.Hour
	sessionIDPrefix = "s_"
)

type contextKey int

const sessionIDKey contextKey = iota

// SessionIDFromContext extracts the session ID from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionID returns a context carrying the session ID.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func newSessionID() string {
	return sessionIDPrefix + uuid.NewString()
}

func isValidSessionID(id string) bool {
	if len(id) <= len(sessionIDPrefix) || id[:len(sessionIDPrefix)] != sessionIDPrefix {
		return false
	}
	_, err := uuid.Parse(id[len(sessionIDPrefix):])
	return err == nil
}

func setCookie(w http.ResponseWriter, id string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Expires:  time.Now().Add(cookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}

// Expire tells the client to drop the session cookie.
func Expire(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func getOrCreateSessionID(w http.ResponseWriter, r *http.Request, secure bool) string {
	id := ""
	if c, err := r.Cookie(CookieName); err == nil && isValidSessionID(c.Value) {
		id = c.Value
	} else {
		id = newSessionID()
	}
	setCookie(w, id, secure)
	return id
}

// Middleware establishes the session for every request and records it as
// seen.
func Middleware(repo store.Repository, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := getOrCreateSessionID(w, r, secure)

			if _, err := repo.EnsureSession(r.Context(), id, time.Now()); err != nil {
				http.Error(w, `{"success":false,"error":"failed to initialize session"}`, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}

// IPFromRequest returns a normalized remote IP for request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
