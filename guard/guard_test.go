package guard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dashlite/go-admin-client/guard"
)

type fakeSession struct {
	loggedIn bool
}

func (f *fakeSession) IsLoggedIn() bool { return f.loggedIn }

func TestGuard_Allow(t *testing.T) {
	t.Run("allows when logged in", func(t *testing.T) {
		g := guard.New(&fakeSession{loggedIn: true}, "/login")
		require.True(t, g.Allow())
	})

	t.Run("denies when logged out", func(t *testing.T) {
		g := guard.New(&fakeSession{}, "/login")
		require.False(t, g.Allow())
	})

	t.Run("reflects session changes between calls", func(t *testing.T) {
		sessions := &fakeSession{}
		g := guard.New(sessions, "/login")
		require.False(t, g.Allow())
		sessions.loggedIn = true
		require.True(t, g.Allow())
	})
}

func TestGuard_RedirectMiddleware(t *testing.T) {
	sessions := &fakeSession{}
	g := guard.New(sessions, "/login")

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(g.RedirectMiddleware)
		r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	t.Run("redirects a logged-out navigation to the login entry point", func(t *testing.T) {
		sessions.loggedIn = false
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		require.Equal(t, http.StatusSeeOther, recorder.Code)
		require.Equal(t, "/login", recorder.Header().Get("Location"))
	})

	t.Run("lets a logged-in navigation through", func(t *testing.T) {
		sessions.loggedIn = true
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		require.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestGuard_RequireMiddleware(t *testing.T) {
	sessions := &fakeSession{}
	g := guard.New(sessions, "/login")

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(g.RequireMiddleware)
		r.Get("/api/users", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	t.Run("answers a logged-out request with 401 JSON", func(t *testing.T) {
		sessions.loggedIn = false
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/users", nil))

		require.Equal(t, http.StatusUnauthorized, recorder.Code)
		require.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
		require.Contains(t, recorder.Body.String(), "unauthorized")
	})

	t.Run("lets a logged-in request through", func(t *testing.T) {
		sessions.loggedIn = true
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/users", nil))

		require.Equal(t, http.StatusOK, recorder.Code)
	})
}
