package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Safyd-Zey/backend-shelter/internal/config"
	"github.com/Safyd-Zey/backend-shelter/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CustomClaims carries the caller identity: id plus role. Everything the chat
// subsystem needs to resolve participants and authorize access comes from
// these two fields.
type CustomClaims struct {
	UserID uuid.UUID   `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

func getJwtKey() []byte {
	cfg := config.Load()
	return []byte(cfg.AuthKey)
}

func GenerateToken(userID uuid.UUID, role models.Role) (string, error) {
	expiresAt := time.Now().Add(24 * time.Hour)

	claims := &CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "backend-shelter",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(getJwtKey())
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}

	return tokenString, nil
}

func ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return getJwtKey(), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
