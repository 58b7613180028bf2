package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"treewatch/config"
	"treewatch/models"
)

// Claims carries the session identity. The user id is the standard subject.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func jwtSecret() []byte {
	if config.AppConfig.JWTSecret == "" {
		return []byte(config.DefaultJWTSecret)
	}
	return []byte(config.AppConfig.JWTSecret)
}

// SessionTTL is how long a login stays valid
func SessionTTL() time.Duration {
	if config.AppConfig.SessionTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return config.AppConfig.SessionTTL
}

// GenerateSessionToken signs an HS256 token for the user
func GenerateSessionToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

func ParseJWTToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret(), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Subject != "" {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
