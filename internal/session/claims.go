package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the display subset of a JWT bearer token. The client never
// verifies the signature; the backend does.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseClaims decodes the token without verifying it. ok is false when
// the token is not a JWT, which is fine: tokens are opaque to the client.
func ParseClaims(token string) (Claims, bool) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return Claims{}, false
	}

	var claims Claims
	claims.Subject, _ = mapClaims.GetSubject()
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, true
}
