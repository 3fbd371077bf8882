package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rcoutinho/pdvgo/pkg/enums"
	pkgerrors "github.com/rcoutinho/pdvgo/pkg/errors"
)

// Claims is the subset of the backend's access token the terminal reads.
// The token is parsed without signature verification: the terminal holds no
// key material and the backend re-validates the token on every request. The
// claims are used only to restore a session hint and to expire it locally.
type Claims struct {
	Username  string
	Role      enums.Role
	ExpiresAt time.Time
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseClaims decodes a stored access token.
func ParseClaims(token string) (*Claims, error) {
	var claims tokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSessionExpired, err, "malformed access token")
	}

	out := &Claims{Username: claims.Subject}
	if role, err := enums.ParseRole(claims.Role); err == nil {
		out.Role = role
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Expired reports whether the token's lifetime has passed. Tokens without
// an exp claim never expire locally; the backend still rejects them.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}
