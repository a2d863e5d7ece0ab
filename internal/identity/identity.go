// Package identity issues and verifies the bearer tokens that carry the
// authenticated user id and role into every ledger operation.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

// User is the authenticated caller.
type User struct {
	ID   uuid.UUID
	Role Role
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// NewAccessToken signs an HS256 token whose subject is the user id.
func NewAccessToken(secret string, user User, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseAccessToken validates the signature and expiry and returns the caller.
func ParseAccessToken(secret, raw string) (*User, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	switch claims.Role {
	case RoleUser, RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return &User{ID: id, Role: claims.Role}, nil
}
