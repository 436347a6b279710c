package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"talent-sync/internal/common/errors"
)

// Claims is the subset of the access token the client looks at. The token
// is not verified here; only the server can do that.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an exp in the past. Tokens
// without exp never expire locally.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

func ParseClaims(token string) (Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return Claims{}, errors.NewDecodeError("access token", err)
	}

	var claims Claims
	claims.Subject, _ = mapClaims.GetSubject()
	if role, ok := mapClaims["role"].(string); ok {
		claims.Role = role
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
