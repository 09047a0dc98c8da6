package auth

import (
	"errors"
	"fmt"
	"time"

	"turn-notify/internal/usecase/binding"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors.
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSecret     = errors.New("jwt secret is not configured")
)

// SessionClaims are the JWT claims of a profile API session.
type SessionClaims struct {
	Platform  string `json:"platform"`
	BotID     string `json:"bot_id"`
	GuildID   string `json:"guild_id,omitempty"`
	Authority int    `json:"authority,omitempty"`
	jwt.RegisteredClaims
}

// Session converts the claims to a binding session.
func (c *SessionClaims) Session() binding.Session {
	return binding.Session{
		UserID:    c.Subject,
		Platform:  c.Platform,
		BotID:     c.BotID,
		GuildID:   c.GuildID,
		Authority: c.Authority,
	}
}

// IssueToken signs a token for sess valid for ttl.
func IssueToken(secret []byte, sess binding.Session, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", ErrNoSecret
	}
	claims := SessionClaims{
		Platform:  sess.Platform,
		BotID:     sess.BotID,
		GuildID:   sess.GuildID,
		Authority: sess.Authority,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies tokenString and returns its session. Only HS256 is
// accepted; exp is required and sub, platform and bot_id must be set.
func ParseToken(secret []byte, tokenString string) (binding.Session, error) {
	if len(secret) == 0 {
		return binding.Session{}, ErrNoSecret
	}
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return binding.Session{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.Platform == "" || claims.BotID == "" {
		return binding.Session{}, fmt.Errorf("%w: sub, platform and bot_id are required", ErrInvalidToken)
	}
	return claims.Session(), nil
}
