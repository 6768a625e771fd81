// Package auth parses the bearer tokens an external session service
// issues to bookkeeping clients. The only thing this subsystem takes
// from a token is the acting-user string used for attribution; user
// management itself lives elsewhere.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	ActingUser string `json:"acting_user"`
	jwt.RegisteredClaims
}

func NewToken(secret, actingUser string, ttl time.Duration) (string, error) {
	claims := Claims{
		ActingUser: actingUser,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid || claims.ActingUser == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
