package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type claims distinguishing the two halves of a token pair.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// refreshExpiryFactor stretches the access expiry for refresh tokens.
const refreshExpiryFactor = 12

// Claims carries the authenticated user identity inside a JWT.
type Claims struct {
	UserID    uint64 `json:"uid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is an access/refresh token pair.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// IssueTokenPair signs an access/refresh pair for the user.
func IssueTokenPair(secret string, expiry time.Duration, userID uint64) (TokenPair, error) {
	access, errAccess := signToken(secret, expiry, userID, TokenTypeAccess)
	if errAccess != nil {
		return TokenPair{}, errAccess
	}
	refresh, errRefresh := signToken(secret, expiry*refreshExpiryFactor, userID, TokenTypeRefresh)
	if errRefresh != nil {
		return TokenPair{}, errRefresh
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func signToken(secret string, expiry time.Duration, userID uint64, tokenType string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("security: empty jwt secret")
	}
	now := time.Now().UTC()
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	signed, errSign := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// ParseToken validates a token and requires the expected token type.
func ParseToken(secret, token, tokenType string) (*Claims, error) {
	claims := &Claims{}
	parsed, errParse := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if errParse != nil {
		return nil, fmt.Errorf("security: parse token: %w", errParse)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("security: invalid token")
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("security: wrong token type: %s", claims.TokenType)
	}
	return claims, nil
}
