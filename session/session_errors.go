package session

import (
	"errors"
	"fmt"
)

var (
	NoRefreshTokenErr     = errors.New("no refresh token available")
	InvalidCredentialsErr = errors.New("invalid credentials")
)

// StatusError reports a non-2xx reply from one of the auth endpoints,
// carrying the upstream status code and the server's message for display.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("auth endpoint returned status %d: %s", e.StatusCode, e.Message)
}
