package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ecotrace/ecotrace-go/internal/api"
)

// tokenSigningKey signs locally derived session tokens. The backend
// does not issue tokens yet, so the token only marks "a login happened
// on this device"; it is never sent as a credential.
var tokenSigningKey = []byte("ecotrace-local-session")

// DeriveToken builds a signed session token for a freshly
// authenticated user.
func DeriveToken(user api.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", user.ID),
		"email": user.Email,
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tokenSigningKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a locally derived token and returns its subject.
// Used by diagnostics to confirm a stored token is well-formed.
func ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tokenSigningKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse session token: %w", err)
	}
	return token.Claims.GetSubject()
}
