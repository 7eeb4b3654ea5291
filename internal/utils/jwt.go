package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload shared by SignJWT and the cookie middleware.
// uid and role are everything a request needs to build its caller; nothing
// else from the user row goes into the token.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SignJWT issues an HS256 token for the user, valid for expiresMin minutes.
func SignJWT(secret, userID, role string, expiresMin int) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiresMin) * time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
