// Package auth provides authentication and authorization support.
package auth

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// These are the expected values for Claims.Role.
const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
)

// ctxKey represents the type of value for the context key.
type ctxKey int

// Key is used to store/retrieve a Claims value from a context.Context.
const Key ctxKey = 1

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	UserId int    `json:"user_id"`
	Role   string `json:"role"`
}

// Authorized returns true if the claims has at least one of the provided roles.
func (c Claims) Authorized(roles ...string) bool {
	for _, want := range roles {
		if c.Role == want {
			return true
		}
	}
	return false
}

// FromContext returns the claims stored by the authentication middleware.
func FromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(Key).(Claims)
	return claims, ok
}

// Auth is used to authenticate clients. It can generate a token for a
// set of user claims and recreate the claims by parsing the token.
type Auth struct {
	key    []byte
	method jwt.SigningMethod
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// New creates an *Auth that signs tokens with the HMAC key.
func New(key string, ttl time.Duration) (*Auth, error) {
	if key == "" {
		return nil, errors.New("jwt key is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Auth{
		key:    []byte(key),
		method: jwt.SigningMethodHS256,
		ttl:    ttl,
		parser: &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Name}},
		now:    time.Now,
	}, nil
}

// GenerateToken generates a signed JWT token string for the user.
func (a *Auth) GenerateToken(userID int, role string) (string, error) {
	now := a.now()
	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(a.ttl).Unix(),
		},
		UserId: userID,
		Role:   role,
	}

	token := jwt.NewWithClaims(a.method, claims)
	str, err := token.SignedString(a.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}

	return str, nil
}

// ValidateToken recreates the Claims that were used to generate a token. It
// verifies that the token was signed using our key.
func (a *Auth) ValidateToken(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := a.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.key, nil
	})
	if err != nil {
		return Claims{}, errors.Wrap(err, "parsing token")
	}

	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}

	return claims, nil
}
