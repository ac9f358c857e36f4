package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// identity is the authenticated caller attached to the request context.
type identity struct {
	ID   string
	Role Role
}

var errNoToken = errors.New("no valid token")

type authClaims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// issueToken signs an HS256 JWT carrying the user ID as subject, the role,
// and an expiry ttl from now.
func issueToken(userID string, role Role, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := authClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// parseToken validates signature and expiry and returns the subject user ID.
// The role claim is informational; authorization always re-reads the user
// record so a role change takes effect before the token expires.
func parseToken(tokenString string, secret []byte) (string, error) {
	claims := authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", errNoToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errNoToken
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return "", errNoToken
	}
	return token, nil
}
