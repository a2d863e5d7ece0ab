package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestAccessToken_RoundTrip(t *testing.T) {
	user := User{ID: uuid.New(), Role: RoleAdmin}

	raw, err := NewAccessToken(secret, user, time.Minute)
	require.NoError(t, err)

	got, err := ParseAccessToken(secret, raw)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.True(t, got.IsAdmin())
}

func TestParseAccessToken_Rejects(t *testing.T) {
	user := User{ID: uuid.New(), Role: RoleUser}

	t.Run("WrongSecret", func(t *testing.T) {
		raw, err := NewAccessToken("other", user, time.Minute)
		require.NoError(t, err)

		_, err = ParseAccessToken(secret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		raw, err := NewAccessToken(secret, user, -time.Minute)
		require.NoError(t, err)

		_, err = ParseAccessToken(secret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		raw, err := NewAccessToken(secret, User{ID: user.ID, Role: "owner"}, time.Minute)
		require.NoError(t, err)

		_, err = ParseAccessToken(secret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("BadSubject", func(t *testing.T) {
		claims := Claims{Role: RoleUser, RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)

		_, err = ParseAccessToken(secret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := ParseAccessToken(secret, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestUser_IsAdmin_Nil(t *testing.T) {
	var u *User
	assert.False(t, u.IsAdmin())
}
