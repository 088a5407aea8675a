package utils

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Token secrets, loaded from config at startup
var (
	AccessTokenKey  []byte
	RefreshTokenKey []byte
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims represents the JWT claims carried by both token kinds
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.StandardClaims
}

// GenerateAccessToken generates a short-lived access token
func GenerateAccessToken(userID, role string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(AccessTokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(AccessTokenKey)
}

// GenerateRefreshToken generates a long-lived refresh token. The role is
// embedded so access tokens re-issued on refresh keep the user's
// privileges.
func GenerateRefreshToken(userID, role string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(RefreshTokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(RefreshTokenKey)
}

// ParseAccessToken validates an access token and returns its claims
func ParseAccessToken(tokenStr string) (*Claims, error) {
	return parseToken(tokenStr, AccessTokenKey)
}

// ParseRefreshToken validates a refresh token and returns its claims
func ParseRefreshToken(tokenStr string) (*Claims, error) {
	return parseToken(tokenStr, RefreshTokenKey)
}

func parseToken(tokenStr string, key []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.NewValidationError("invalid token", jwt.ValidationErrorSignatureInvalid)
	}
	return claims, nil
}

// IsTokenExpired reports whether a parse error was caused by expiry
func IsTokenExpired(err error) bool {
	ve, ok := err.(*jwt.ValidationError)
	return ok && ve.Errors&jwt.ValidationErrorExpired != 0
}
