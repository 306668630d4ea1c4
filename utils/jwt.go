package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"assesshub/config"
	"assesshub/models"
)

type Claims struct {
	AdminID      uint `json:"admin_id"`
	TokenVersion int  `json:"token_version"`
	jwt.RegisteredClaims
}

const sessionTokenExpiry = 24 * time.Hour

// GenerateAdminToken signs a session token for the admin. Fails when
// no session secret is configured, which disables the credential auth
// routes rather than the whole process.
func GenerateAdminToken(admin *models.Admin) (string, error) {
	if config.AppConfig.JWTSecret == "" {
		return "", errors.New("session secret not configured")
	}

	claims := &Claims{
		AdminID:      admin.ID,
		TokenVersion: admin.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func ParseAdminToken(tokenString string) (*Claims, error) {
	if config.AppConfig.JWTSecret == "" {
		return nil, errors.New("session secret not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
