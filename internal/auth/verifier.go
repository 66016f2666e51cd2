// Package auth validates the credentials callers present to the API:
// identity-platform access tokens on dashboard routes and the shared
// bearer secret on provisioning webhook calls.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// Claims carries the token fields the API relies on.
type Claims struct {
	UserID string
	Email  string
	Exp    int64
}

// Verifier validates HS256 access tokens issued by the identity
// platform with the project's shared signing secret.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), leeway: 5 * time.Second}
}

// Verify parses and validates token and returns its claims. Expired
// tokens are reported as ErrExpiredToken; every other failure maps to
// ErrInvalidToken.
func (v *Verifier) Verify(token string) (Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := mapClaims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return Claims{}, ErrInvalidToken
	}
	email, _ := mapClaims["email"].(string)
	var exp int64
	if raw, ok := mapClaims["exp"].(float64); ok {
		exp = int64(raw)
	}
	return Claims{UserID: sub, Email: email, Exp: exp}, nil
}
