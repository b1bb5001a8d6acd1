// Package auth provides JWT session tokens and password hashing.
//
// Sessions are stateless: the signed token carries everything the server
// needs ({id, username}, expiry), so no session storage exists and nothing
// can be revoked — a token stays valid until its natural expiry. There is
// no refresh mechanism either; an expired session forces a fresh login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed session lifetime.
const TokenTTL = 2 * time.Hour

const issuer = "estate-api"

// Claims is the JWT payload: the authenticated user's record id and
// username on top of the registered claims (expiry, issued-at, issuer).
type Claims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies session tokens with an HMAC secret.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. The secret should be at least 32
// bytes of random data in production; anything under 16 is rejected outright.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Generate issues a signed token for the given user, expiring TokenTTL
// from now.
func (s *TokenService) Generate(userID int64, username string) (string, error) {
	return s.GenerateWithDuration(userID, username, TokenTTL)
}

// GenerateWithDuration issues a token with a custom expiry. Used by tests
// to produce already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID int64, username string, d time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string and returns its claims.
//
// The jwt library checks the signature, the expiry, the issuer, and —
// via WithValidMethods — that the algorithm really is HS256, closing the
// algorithm-confusion hole where a token signed with "none" slips through.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Username == "" {
		return nil, fmt.Errorf("auth: token has no username")
	}
	return c, nil
}
