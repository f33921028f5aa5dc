// Package transport provides the authenticating http.RoundTripper. It
// attaches the bearer credential to outgoing requests and transparently
// recovers from an expired access token exactly once per request.
package transport

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dashlite/go-admin-client/session"
)

// SessionRefresher is the slice of the session coordinator the transport
// needs: the current access token, the refresh self-loop, and forced logout.
type SessionRefresher interface {
	AccessToken() string
	Refresh(ctx context.Context) (*session.TokenPair, error)
	Logout()
}

var _ http.RoundTripper = (*Authenticator)(nil)

// Authenticator wraps a base RoundTripper with the token-refresh protocol:
//
//  1. Attach "Authorization: Bearer <token>" when a token exists. Requests go
//     out untouched otherwise, so unauthenticated calls are never blocked.
//  2. On a 401, refresh the token pair and resend the original request with
//     the new access token, exactly once. The result of that resend reaches
//     the caller as-is; a second 401 is never intercepted again.
//  3. On a failed refresh, force logout and propagate the refresh error, not
//     the original 401.
//  4. Every other status passes through untouched.
type Authenticator struct {
	sessions SessionRefresher
	base     http.RoundTripper
}

// AuthenticatorOption defines a function type to modify the Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithBase sets the underlying RoundTripper (default http.DefaultTransport).
func WithBase(base http.RoundTripper) AuthenticatorOption {
	return func(a *Authenticator) {
		a.base = base
	}
}

// New creates an Authenticator around the given session coordinator.
func New(sessions SessionRefresher, options ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		sessions: sessions,
		base:     http.DefaultTransport,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// RoundTrip implements http.RoundTripper.
func (a *Authenticator) RoundTrip(req *http.Request) (*http.Response, error) {
	outReq := req.Clone(req.Context())
	outReq.Header.Set("X-Request-Id", uuid.New().String())
	if token := a.sessions.AccessToken(); token != "" {
		outReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.base.RoundTrip(outReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	retry, ok := cloneForRetry(req)
	if !ok {
		// The body cannot be replayed, so the 401 stands.
		return resp, nil
	}

	drain(resp)

	pair, refreshErr := a.sessions.Refresh(req.Context())
	if refreshErr != nil {
		// A missing refresh token already ended the session inside Refresh;
		// a rejected exchange ends it here. Either way the session is gone
		// and the refresh failure reaches the caller.
		a.sessions.Logout()
		return nil, errors.Wrap(refreshErr, "[Authenticator.RoundTrip] token refresh")
	}

	log.Debug().Str("path", req.URL.Path).Msg("Retrying request with refreshed token")
	retry.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	retry.Header.Set("X-Request-Id", uuid.New().String())
	return a.base.RoundTrip(retry)
}

// cloneForRetry rebuilds the original request for the single resend. Bodies
// are recreated through GetBody; a request with a body but no GetBody cannot
// be retried.
func cloneForRetry(req *http.Request) (*http.Request, bool) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}

// drain releases the connection held by a response we are discarding.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}
