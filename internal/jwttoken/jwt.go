// Package jwttoken issues and validates the HS256 access tokens used by the
// request layer. Token contents are deliberately minimal: the user id is the
// only claim the domain services need.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
)

// Claims carries the authenticated user through the token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

// New constructs a token service around a shared HMAC signing key.
func New(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateAccessToken signs a token for the user valid for expiresIn.
func (s *Service) GenerateAccessToken(userID id.UserID, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token, returning the user id claim.
func (s *Service) ValidateToken(tokenString string) (id.UserID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return userID, nil
}
