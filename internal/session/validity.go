package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var unverified = jwt.NewParser()

// Valid reports whether token is a JWT whose exp claim lies after now.
// The signature is not checked and no server round-trip is made, so a token
// revoked on the server still counts as valid until it expires.
// An empty token, a token that does not decode, or a token without exp is invalid.
func Valid(token string, now time.Time) bool {
	exp, ok := Expiry(token)
	if !ok {
		return false
	}
	return exp.After(now)
}

// Expiry returns the exp claim of token. ok is false when the token does not
// decode or carries no exp claim.
func Expiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := unverified.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
