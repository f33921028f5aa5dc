package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/refresh"

	defaultExpiresInMins = 30
	defaultTimeout       = 15 * time.Second

	maxErrorBodyBytes = 4096
)

// Service owns the authenticated-session state machine: LoggedOut and
// LoggedIn, with login, logout and the refresh self-loop as the only
// transitions. It is constructed once at startup and handed to the route
// guard and the authenticating transport; all session mutation goes through
// its methods.
//
// The auth endpoints are always called through a bare HTTP client, never
// through the authenticating transport: a 401 from /auth/refresh must reach
// the caller instead of triggering another refresh.
type Service struct {
	store         TokenStore
	baseURL       string
	httpClient    *http.Client
	expiresInMins int
	onLogout      func()

	lock        sync.RWMutex
	loggedIn    bool
	currentUser *User

	refreshGroup singleflight.Group
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithHTTPClient sets the client used for the auth endpoints.
func WithHTTPClient(client *http.Client) ServiceOption {
	return func(s *Service) {
		s.httpClient = client
	}
}

// WithExpiresInMins sets the access-token lifetime requested on refresh.
func WithExpiresInMins(mins int) ServiceOption {
	return func(s *Service) {
		s.expiresInMins = mins
	}
}

// WithLogoutHook registers a function invoked after every logout, once the
// persisted state is cleared. The gateway uses it to steer navigation back to
// the login entry point.
func WithLogoutHook(hook func()) ServiceOption {
	return func(s *Service) {
		s.onLogout = hook
	}
}

// New initializes a Service and restores its state from the store in a single
// step: the machine starts LoggedIn only when both an access token and a user
// record survived the previous process. A token without a user record (or the
// other way round) restores to LoggedOut, so the session never reports
// logged-in with a missing profile.
func New(store TokenStore, baseURL string, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("[session.New] token store is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[session.New] base URL is required")
	}

	s := &Service{
		store:         store,
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: defaultTimeout},
		expiresInMins: defaultExpiresInMins,
	}

	for _, opt := range options {
		opt(s)
	}

	if token := store.AccessToken(); token != "" {
		if user := store.User(); user != nil {
			s.loggedIn = true
			s.currentUser = user
		}
	}

	return s, nil
}

// Login authenticates the credentials against POST /auth/login. On success it
// persists the token pair and the projected profile and flips the machine to
// LoggedIn. On a rejected login nothing changes: the error carries the
// server's message for display and wraps InvalidCredentialsErr.
func (s *Service) Login(ctx context.Context, credentials Credentials) (*AuthResponse, error) {
	var response AuthResponse
	if err := s.postJSON(ctx, loginPath, credentials, &response); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return nil, errors.Wrap(InvalidCredentialsErr, statusErr.Error())
		}
		return nil, errors.Wrap(err, "[Service.Login] login request")
	}

	user := &User{
		FirstName: response.FirstName,
		LastName:  response.LastName,
		Image:     response.Image,
	}

	if err := s.store.SaveTokens(response.AccessToken, response.RefreshToken); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] save tokens")
	}
	if err := s.store.SaveUser(user); err != nil {
		// Tokens without a user record must not outlive the failed login.
		if clearErr := s.store.Clear(); clearErr != nil {
			log.Err(clearErr).Msg("Login: failed to clear token store after save error")
		}
		return nil, errors.Wrap(err, "[Service.Login] save user")
	}

	s.lock.Lock()
	s.loggedIn = true
	s.currentUser = user
	s.lock.Unlock()

	log.Debug().Str("username", response.Username).Msg("Login succeeded")
	return &response, nil
}

// Logout ends the session unconditionally: every persisted key is cleared,
// the in-memory state resets, and the logout hook fires. It cannot fail; a
// store error is logged and the in-memory session still ends.
func (s *Service) Logout() {
	if err := s.store.Clear(); err != nil {
		log.Err(err).Msg("Logout: failed to clear token store")
	}

	s.lock.Lock()
	s.loggedIn = false
	s.currentUser = nil
	hook := s.onLogout
	s.lock.Unlock()

	if hook != nil {
		hook()
	}
}

// Refresh exchanges the current refresh token for a new pair via
// POST /auth/refresh. Only the tokens rotate; login status and the current
// user are untouched. Without a refresh token the session is forced out
// immediately and NoRefreshTokenErr is returned. A rejected exchange is
// returned to the caller, which owns the forced logout in that case.
//
// Concurrent callers are coalesced: simultaneous 401s across requests share a
// single upstream exchange and all receive the same rotated pair.
func (s *Service) Refresh(ctx context.Context) (*TokenPair, error) {
	result, err, _ := s.refreshGroup.Do("refresh", func() (interface{}, error) {
		// The exchange outlives the first caller's context: cancelling one
		// coalesced request must not fail the rotation for everyone sharing
		// it. The HTTP client's timeout still bounds the call.
		return s.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return result.(*TokenPair), nil
}

func (s *Service) refresh(ctx context.Context) (*TokenPair, error) {
	refreshToken := s.store.RefreshToken()
	if refreshToken == "" {
		s.Logout()
		return nil, NoRefreshTokenErr
	}

	request := refreshRequest{
		RefreshToken:  refreshToken,
		ExpiresInMins: s.expiresInMins,
	}

	var pair TokenPair
	if err := s.postJSON(ctx, refreshPath, request, &pair); err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] refresh exchange")
	}

	if err := s.store.SaveTokens(pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] save tokens")
	}

	log.Debug().Msg("Access token refreshed")
	return &pair, nil
}

// IsLoggedIn reports the current state of the machine.
func (s *Service) IsLoggedIn() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.loggedIn
}

// LoggedUser returns a copy of the current user's profile, or nil when logged
// out.
func (s *Service) LoggedUser() *User {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.currentUser == nil {
		return nil
	}
	user := *s.currentUser
	return &user
}

// HasRole reports whether the current user carries the given role. It is
// false whenever no user is logged in or the user has no roles.
func (s *Service) HasRole(role string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.currentUser == nil {
		return false
	}
	for _, r := range s.currentUser.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AccessToken returns the currently persisted access token, or "" when none
// exists.
func (s *Service) AccessToken() string {
	return s.store.AccessToken()
}

func (s *Service) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{StatusCode: resp.StatusCode, Message: serverMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// serverMessage pulls the "message" field the API uses in error bodies,
// falling back to the raw body.
func serverMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}
