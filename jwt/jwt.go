// Package jwt inspects the expiry of auth tokens without verifying their
// signature. The backend remains the authority on validity; the client only
// uses the expiry to send the user back to sign-in before a call fails.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// ErrNoExpiry is returned for tokens without an exp claim.
var ErrNoExpiry = errors.New("jwt: token has no expiry")

// ExpiresAt returns the exp claim of token.
func ExpiresAt(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("jwt: parse: %w", err)
	}
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), nil
	case nil:
		return time.Time{}, ErrNoExpiry
	default:
		return time.Time{}, fmt.Errorf("jwt: unexpected exp claim type %T", exp)
	}
}

// Expired reports whether token has expired at now, allowing for leeway of
// clock skew. Tokens that cannot be parsed or carry no expiry are not
// considered expired.
func Expired(token string, now time.Time, leeway time.Duration) bool {
	exp, err := ExpiresAt(token)
	if err != nil {
		return false
	}
	return now.After(exp.Add(leeway))
}
