package keyring

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned when storing a JWT whose expiry has passed.
var ErrTokenExpired = errors.New("API token has expired")

// TokenInfo is what can be read from a JWT API token without verifying it.
type TokenInfo struct {
	Subject   string
	Issuer    string
	ExpiresAt *time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (i TokenInfo) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// InspectToken decodes the claims of a JWT API token. The signature is not
// checked; only the backend can do that. ok is false for opaque tokens.
func InspectToken(token string) (TokenInfo, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, false
	}
	info := TokenInfo{Subject: claims.Subject, Issuer: claims.Issuer}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		info.ExpiresAt = &exp
	}
	return info, true
}
