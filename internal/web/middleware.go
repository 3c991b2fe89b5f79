// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package web

import (
	"context"
	"net/http"

	"github.com/fedeportal/fedeportal/internal/auth"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext retrieves the validated session from the request
// context. Returns nil if the request is not authenticated.
func SessionFromContext(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// RequireSession guards protected views behind an established session.
// A missing or invalid session is not an error condition: the request is
// redirected to the login page and nothing is logged.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := s.sessionFromRequest(r)
		if session == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromRequest resolves the session cookie to a live session, or nil.
func (s *Server) sessionFromRequest(r *http.Request) *auth.Session {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil
	}

	session, err := s.auth.ValidateSession(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return session
}

// setSessionCookie attaches the session token to the response.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionTokenExpiry.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
