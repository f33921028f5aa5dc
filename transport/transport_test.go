package transport_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dashlite/go-admin-client/session"
	"github.com/dashlite/go-admin-client/session/repofakes"
	"github.com/dashlite/go-admin-client/transport"
)

// apiServerState tracks every request the fake API saw.
type apiServerState struct {
	lock          sync.Mutex
	refreshCalls  int
	rejectRefresh bool
	authHeaders   []string
	requestIDs    []string
	echoBodies    []string
}

func (s *apiServerState) record(r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
	s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-Id"))
}

// newAPIServer serves /auth/refresh plus data endpoints that accept "tok2"
// and reject anything else with a 401.
func newAPIServer(t *testing.T) (*httptest.Server, *apiServerState) {
	t.Helper()
	state := &apiServerState{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		state.lock.Lock()
		state.refreshCalls++
		reject := state.rejectRefresh
		state.lock.Unlock()

		if reject {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid refresh token"})
			return
		}
		_ = json.NewEncoder(w).Encode(session.TokenPair{AccessToken: "tok2", RefreshToken: "ref2"})
	})
	mux.HandleFunc("GET /data", func(w http.ResponseWriter, r *http.Request) {
		state.record(r)
		if r.Header.Get("Authorization") != "Bearer tok2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /always401", func(w http.ResponseWriter, r *http.Request) {
		state.record(r)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("GET /public", func(w http.ResponseWriter, r *http.Request) {
		state.record(r)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /broken", func(w http.ResponseWriter, r *http.Request) {
		state.record(r)
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("POST /echo", func(w http.ResponseWriter, r *http.Request) {
		state.record(r)
		body, _ := io.ReadAll(r.Body)
		state.lock.Lock()
		state.echoBodies = append(state.echoBodies, string(body))
		state.lock.Unlock()

		if r.Header.Get("Authorization") != "Bearer tok2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(body)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, state
}

func newSession(t *testing.T, baseURL, accessToken, refreshToken string) *session.Service {
	t.Helper()
	store := repofakes.NewFakeTokenStore()
	if accessToken != "" || refreshToken != "" {
		require.NoError(t, store.SaveTokens(accessToken, refreshToken))
		require.NoError(t, store.SaveUser(&session.User{FirstName: "Emily"}))
	}
	svc, err := session.New(store, baseURL)
	require.NoError(t, err)
	return svc
}

func TestAuthenticator_RoundTrip(t *testing.T) {
	t.Run("attaches the bearer credential and a request id", func(t *testing.T) {
		server, state := newAPIServer(t)
		svc := newSession(t, server.URL, "tok2", "ref2")
		client := &http.Client{Transport: transport.New(svc)}

		resp, err := client.Get(server.URL + "/data")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, []string{"Bearer tok2"}, state.authHeaders)
		require.NotEmpty(t, state.requestIDs[0])
	})

	t.Run("requests go out untouched when no token exists", func(t *testing.T) {
		server, state := newAPIServer(t)
		svc := newSession(t, server.URL, "", "")
		client := &http.Client{Transport: transport.New(svc)}

		resp, err := client.Get(server.URL + "/public")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, []string{""}, state.authHeaders)
	})

	t.Run("a 401 triggers one refresh and one resend with the new token", func(t *testing.T) {
		server, state := newAPIServer(t)
		svc := newSession(t, server.URL, "tok1", "ref1")
		client := &http.Client{Transport: transport.New(svc)}

		resp, err := client.Get(server.URL + "/data")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		require.Equal(t, "ok", payload["status"])

		require.Equal(t, 1, state.refreshCalls)
		require.Equal(t, []string{"Bearer tok1", "Bearer tok2"}, state.authHeaders)
		require.True(t, svc.IsLoggedIn())
	})

	t.Run("a second 401 after the resend is returned, not re-refreshed", func(t *testing.T) {
		server, state := newAPIServer(t)
		svc := newSession(t, server.URL, "tok1", "ref1")
		client := &http.Client{Transport: transport.New(svc)}

		resp, err := client.Get(server.URL + "/always401")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, 1, state.refreshCalls)
		require.Len(t, state.authHeaders, 2)
	})

	t.Run("a rejected refresh forces logout and propagates the refresh failure", func(t *testing.T) {
		server, state := newAPIServer(t)
		state.rejectRefresh = true
		svc := newSession(t, server.URL, "tok1", "ref1")
		client := &http.Client{Transport: transport.New(svc)}

		resp, err := client.Get(server.URL + "/data")
		require.Error(t, err)
		require.Nil(t, resp)
		require.Contains(t, err.Error(), "token refresh")

		require.False(t, svc.IsLoggedIn())
		require.Equal(t, 1, state.refreshCalls)
	})

	t.Run("a missing refresh token forces logout with its own error", func(t *testing.T) {
		server, state := newAPIServer(t)
		svc := newSession(t, server.URL, "tok1", "")
		client := &http.Client{Transport: transport.New(svc)}

		_, err := client.Get(server.URL + "/data")
		require.ErrorIs(t, err, session.NoRefreshTokenErr)

		require.False(t, svc.IsLoggedIn())
		require.Zero(t, state.refreshCalls)
	})

	t.Run("a request body is replayed on the resend", func(t *testing.T) {
		server, state := newAPIServer(t)
		svc := newSession(t, server.URL, "tok1", "ref1")
		client := &http.Client{Transport: transport.New(svc)}

		resp, err := client.Post(server.URL+"/echo", "application/json", bytes.NewReader([]byte(`{"title":"hello"}`)))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		echoed, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"title":"hello"}`, string(echoed))
		require.Equal(t, []string{`{"title":"hello"}`, `{"title":"hello"}`}, state.echoBodies)
	})

	t.Run("non-401 statuses pass through untouched", func(t *testing.T) {
		server, state := newAPIServer(t)
		svc := newSession(t, server.URL, "tok1", "ref1")
		client := &http.Client{Transport: transport.New(svc)}

		resp, err := client.Get(server.URL + "/broken")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.Zero(t, state.refreshCalls)
	})
}
