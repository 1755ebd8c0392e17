package utils

import (
	stderrors "errors"
	"fmt"
	"time"

	"calendar-sync-api/core/config"
	"calendar-sync-api/core/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenData is the verified identity extracted from a bearer token. Bearer
// verification is the single identity capability this service relies on;
// issuing and refreshing tokens belongs to the identity provider.
type TokenData struct {
	UserID uuid.UUID
	Email  string
	Scope  string
}

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// ValidateAndParseToken verifies the bearer token signature and expiry and
// returns the identity it carries.
func ValidateAndParseToken(token string) (*TokenData, *errors.AppError) {
	cfg, ok := config.GetSafe()
	if !ok {
		return nil, errors.NewAppError(errors.ErrInternalServer, "config not initialized", nil)
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewAppError(errors.ErrTokenExpired, "token expired", err)
		}
		return nil, errors.NewAppError(errors.ErrInvalidTokenFormat, "invalid token", err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, errors.NewAppError(errors.ErrInvalidTokenFormat, "invalid token claims", nil)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidTokenFormat, "invalid subject claim", err)
	}

	return &TokenData{
		UserID: userID,
		Email:  claims.Email,
		Scope:  claims.Scope,
	}, nil
}

// GenerateToken issues a signed bearer token. Used by tests and local tooling;
// production tokens come from the identity provider.
func GenerateToken(userID uuid.UUID, email string, scope string, ttl time.Duration) (string, error) {
	cfg, ok := config.GetSafe()
	if !ok {
		return "", fmt.Errorf("config not initialized")
	}

	now := time.Now()
	claims := tokenClaims{
		Email: email,
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWT.Secret))
}
