// Package guard gates navigation on the session state.
package guard

import "net/http"

// SessionChecker reports whether a user is currently logged in.
type SessionChecker interface {
	IsLoggedIn() bool
}

// Guard is a pure predicate over the session state. It performs no I/O and
// holds no state of its own; every decision consults the session at the
// moment of the request.
type Guard struct {
	sessions  SessionChecker
	loginPath string
}

// New creates a Guard that denies towards the given login entry path.
func New(sessions SessionChecker, loginPath string) *Guard {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Guard{sessions: sessions, loginPath: loginPath}
}

// Allow reports whether a protected navigation may proceed.
func (g *Guard) Allow() bool {
	return g.sessions.IsLoggedIn()
}

// RedirectMiddleware protects browser-facing routes: a denied navigation is
// redirected to the login entry point.
func (g *Guard) RedirectMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Allow() {
			http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMiddleware protects API routes: a denied request is answered with a
// 401 JSON body.
func (g *Guard) RequireMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Login required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
