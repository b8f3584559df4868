package utils

import (
	"testing"
	"time"

	"adops/internal/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	user := models.User{Base: models.Base{ID: "u1"}, Email: "jane@example.com"}

	token, err := GenerateJWT(user, "acc1", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "acc1", claims.AccountID)
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestParseJWT_Rejects(t *testing.T) {
	user := models.User{Base: models.Base{ID: "u1"}}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateJWT(user, "acc1", "secret", time.Hour)
		require.NoError(t, err)
		_, err = ParseJWT(token, "other")
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateJWT(user, "acc1", "secret", -time.Minute)
		require.NoError(t, err)
		_, err = ParseJWT(token, "secret")
		assert.Error(t, err)
	})

	t.Run("missing account", func(t *testing.T) {
		token, err := GenerateJWT(user, "", "secret", time.Hour)
		require.NoError(t, err)
		_, err = ParseJWT(token, "secret")
		assert.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", AccountID: "acc1"})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = ParseJWT(signed, "secret")
		assert.Error(t, err)
	})
}

func TestGenerateRandomString_Charset(t *testing.T) {
	s, err := GenerateRandomString(16)
	require.NoError(t, err)
	assert.Len(t, s, 16)
	assert.Regexp(t, `^[a-zA-Z0-9]+$`, s)
}
