// Package token inspects bearer tokens that happen to be JWTs. The session
// protocol itself treats tokens as opaque: expiry extracted here is only
// surfaced for reporting, and the server's 401 stays the source of truth.
package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Expiry extracts the exp claim from a JWT without verifying the signature.
func Expiry(rawToken string) (time.Time, error) {
	if strings.TrimSpace(rawToken) == "" {
		return time.Time{}, errors.New("[token.Expiry] empty token")
	}

	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return time.Time{}, errors.Wrap(err, "[token.Expiry] parse token")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, errors.Wrap(err, "[token.Expiry] exp claim")
	}
	if exp == nil {
		return time.Time{}, errors.New("[token.Expiry] no exp claim")
	}
	return exp.Time, nil
}
