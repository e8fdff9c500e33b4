package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-access-secret-key-for-testing-purposes"
	testIssuer = "flight-gorilla-test"
)

func TestNewService(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)

	assert.NotNil(t, service)
	assert.Equal(t, testSecret, service.secret)
	assert.Equal(t, testIssuer, service.issuer)
	assert.Equal(t, time.Hour, service.accessTokenExpiry)
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)
	userID := uuid.New()
	email := "traveller@example.com"
	roles := []string{"user"}

	token, err := service.GenerateAccessToken(userID, email, roles)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, email, claims.Email)
	assert.Equal(t, roles, claims.Roles)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.False(t, service.IsTokenExpired(token))
}

func TestValidateAccessToken_Failures(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)
	userID := uuid.New()

	t.Run("Wrong Secret", func(t *testing.T) {
		other := NewService("another-secret-entirely", testIssuer, time.Hour)
		token, err := other.GenerateAccessToken(userID, "a@b.c", nil)
		require.NoError(t, err)

		claims, err := service.ValidateAccessToken(token)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Wrong Issuer", func(t *testing.T) {
		other := NewService(testSecret, "someone-else", time.Hour)
		token, err := other.GenerateAccessToken(userID, "a@b.c", nil)
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := NewService(testSecret, testIssuer, -time.Minute)
		token, err := expired.GenerateAccessToken(userID, "a@b.c", nil)
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.Error(t, err)
		assert.True(t, service.IsTokenExpired(token))
	})

	t.Run("Wrong Token Type", func(t *testing.T) {
		claims := Claims{
			UserID:    userID,
			TokenType: "refresh",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				Issuer:    testIssuer,
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid token type")
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := service.ValidateAccessToken("not.a.token")
		assert.Error(t, err)
		assert.True(t, service.IsTokenExpired("not.a.token"))
	})
}
