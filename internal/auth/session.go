package auth

import (
	"context"
	"net/http"

	"github.com/inkwell/inkwell-be/internal/services"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session_id"

type contextKey string

// UserIDKey is the context key for the authenticated user's id.
const UserIDKey = contextKey("userID")

// TokenKey is the context key for the raw session token (needed by logout).
const TokenKey = contextKey("sessionToken")

// UserID extracts the authenticated user id from a request context.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

// Token extracts the session token from a request context.
func Token(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// resolve loads the session named by the request's cookie, if any, and
// returns a context carrying the user id and token.
func resolve(r *http.Request, sessions services.SessionServiceProvider) (context.Context, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return r.Context(), false
	}
	session, err := sessions.Get(cookie.Value)
	if err != nil {
		return r.Context(), false
	}
	ctx := context.WithValue(r.Context(), UserIDKey, session.UserID)
	ctx = context.WithValue(ctx, TokenKey, session.Token)
	return ctx, true
}

// Middleware rejects requests without a live session and passes the
// authenticated user id down via context.
func Middleware(sessions services.SessionServiceProvider, onError http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, ok := resolve(r, sessions)
			if !ok {
				onError(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Optional attaches session identity when present but never rejects the
// request. checkAuth uses this to answer for anonymous callers too.
func Optional(sessions services.SessionServiceProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _ := resolve(r, sessions)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
