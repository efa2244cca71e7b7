package auth

import (
	apperrors "chat-relay/errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwtKey is the secret used to sign tokens.
// Overridden at startup via UseSecret when JWT_SECRET is set; the default
// only exists so local runs work out of the box.
var jwtKey = []byte("my_strong_and_long_relay_secret_2026")

// UseSecret replaces the process-wide signing secret. Call it once, before
// any token is issued or verified.
func UseSecret(secret []byte) {
	if len(secret) > 0 {
		jwtKey = secret
	}
}

// CustomClaims defines the structure of the data stored inside the JWT.
// UserID and Username become the connection's immutable identity claims.
type CustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a specific user.
func GenerateToken(userID, username string, authTokenDuration time.Duration) (string, error) {
	expirationTime := time.Now().Add(authTokenDuration)

	claims := &CustomClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chat-relay",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// VerifyToken parses and validates the signature and expiration of a JWT string.
// Any failure (malformed, bad signature, expired, wrong algorithm) collapses
// into ErrTokenInvalid: callers only distinguish missing from invalid.
func VerifyToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Only the HMAC family is acceptable, everything else is forged.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", token.Header["alg"])
		}
		return jwtKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}
