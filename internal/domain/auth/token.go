package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer is stamped into every token and required on parse.
const TokenIssuer = "talent"

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID   string `json:"uid"`
	RoleID   string `json:"rid"`
	RoleName string `json:"role"`
	jwt.RegisteredClaims
}

func (c Claims) Actor() Actor {
	return Actor{UserID: c.UserID, RoleID: c.RoleID, RoleName: c.RoleName}
}

// IssueToken signs an HS256 token for actor valid for ttl from now. Login is
// handled elsewhere; this exists for tooling and tests.
func IssueToken(secret string, actor Actor, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID:   actor.UserID,
		RoleID:   actor.RoleID,
		RoleName: actor.RoleName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies signature, expiry and issuer. Every failure wraps
// ErrInvalidToken.
func ParseToken(secret, raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.RoleName == "" {
		return Claims{}, fmt.Errorf("%w: missing user or role", ErrInvalidToken)
	}
	return claims, nil
}
