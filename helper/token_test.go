package helper_test

import (
	"testing"
	"time"

	"movie_store/helper"
	"movie_store/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := helper.HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, helper.CheckPasswordHash("password123", hash))
	assert.False(t, helper.CheckPasswordHash("wrong-password", hash))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := helper.GenerateAccessToken(model.TokenClaim{UserId: 42, Email: "user@example.com"})
	require.NoError(t, err)

	parsed, err := helper.ParseToken(token)
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(42), claims["userId"])
	assert.Equal(t, "user@example.com", claims["email"])
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := helper.GenerateAccessToken(model.TokenClaim{UserId: 1, Email: "user@example.com"})
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "another-secret")
	_, err = helper.ParseToken(token)
	assert.Error(t, err)
}

func TestNewActivationToken(t *testing.T) {
	token := helper.NewActivationToken(7)
	assert.Equal(t, uint(7), token.UserId)
	assert.NotEmpty(t, token.Token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), token.ExpiresAt, time.Minute)
}
