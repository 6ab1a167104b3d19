// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rollcallhq/rollcall-go/internal/domain/officer"
)

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GenerateAuthToken creates a signed JWT for an authenticated officer.
func GenerateAuthToken(o *officer.Officer, jwtSecret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":         o.ID,
		"badgeNumber": o.BadgeNumber,
		"role":        o.Role,
		"type":        "officer_auth",
		"iat":         now.Unix(),
		"exp":         now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// AuthClaims is the subset of token claims the middleware passes downstream.
type AuthClaims struct {
	OfficerID   string
	BadgeNumber string
	Role        string
	ExpiresAt   time.Time
}

// AuthClaimsFromToken validates a token and extracts the auth claims.
func AuthClaimsFromToken(tokenString, jwtSecret string) (*AuthClaims, error) {
	claims, err := ValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return nil, err
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "officer_auth" {
		return nil, errors.New("not an auth token")
	}

	auth := &AuthClaims{}
	if sub, ok := claims["sub"].(string); ok {
		auth.OfficerID = sub
	}
	if badge, ok := claims["badgeNumber"].(string); ok {
		auth.BadgeNumber = badge
	}
	if role, ok := claims["role"].(string); ok {
		auth.Role = role
	}
	if exp, ok := claims["exp"].(float64); ok {
		auth.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if auth.OfficerID == "" {
		return nil, errors.New("token missing subject")
	}
	return auth, nil
}
