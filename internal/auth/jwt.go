// Package auth issues and checks staff JWTs.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer = "tableside"

	useAccess  = "access"
	useRefresh = "refresh"
)

// Staff access tokens live for one shift; refresh tokens for a week.
const (
	accessTokenTTL  = 12 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

var ErrWrongTokenUse = errors.New("token not valid for this use")

// Claims identify a staff member and the restaurant their token is scoped to.
// Refresh tokens carry only UserID.
type Claims struct {
	UserID       uuid.UUID `json:"user_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Role         string    `json:"role,omitempty"`
	Use          string    `json:"use"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithIssuer(issuer),
	jwt.WithExpirationRequired(),
)

func GenerateToken(secret string, userID, restaurantID uuid.UUID, role string) (string, error) {
	return sign(secret, Claims{
		UserID:       userID,
		RestaurantID: restaurantID,
		Role:         role,
		Use:          useAccess,
	}, accessTokenTTL)
}

func GenerateRefreshToken(secret string, userID uuid.UUID) (string, error) {
	return sign(secret, Claims{UserID: userID, Use: useRefresh}, refreshTokenTTL)
}

// ValidateToken parses an access token. Refresh tokens are rejected.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	return parse(secret, tokenStr, useAccess)
}

// ValidateRefreshToken returns the user id carried by a refresh token.
func ValidateRefreshToken(secret, tokenStr string) (uuid.UUID, error) {
	claims, err := parse(secret, tokenStr, useRefresh)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}

func sign(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   claims.UserID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parse(secret, tokenStr, use string) (*Claims, error) {
	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims.Use != use {
		return nil, ErrWrongTokenUse
	}
	return claims, nil
}
