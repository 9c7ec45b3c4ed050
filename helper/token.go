package helper

import (
	"errors"
	"fmt"
	"time"

	"ticket_engine/constants"
	"ticket_engine/model"

	"github.com/golang-jwt/jwt/v5"
)

func GenerateAccessToken(claim model.TokenClaim, secret string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   claim.UserID,
		"role":  claim.Role,
		"email": claim.Email,
		"exp":   time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// ParseAccessToken validates an HS256 token and extracts the caller.
func ParseAccessToken(raw, secret string) (model.TokenClaim, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return model.TokenClaim{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return model.TokenClaim{}, errors.New("invalid token")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return model.TokenClaim{}, errors.New("token has no subject")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = constants.ROLE_USER
	}
	email, _ := claims["email"].(string)
	return model.TokenClaim{UserID: sub, Role: role, Email: email}, nil
}

// IsElevated reports whether role may verify tickets of any organization.
func IsElevated(role string) bool {
	return role == constants.ROLE_ADMIN || role == constants.ROLE_SUPERUSER
}
