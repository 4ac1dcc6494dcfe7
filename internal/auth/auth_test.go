package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

func TestHashPassword(t *testing.T) {
	t.Run("Successfully hash password", func(t *testing.T) {
		password := "mySecurePassword123"
		hashed, err := HashPassword(password)

		assert.NoError(t, err)
		assert.NotEmpty(t, hashed)
		assert.NotEqual(t, password, hashed)
	})

	t.Run("Different hashes for same password", func(t *testing.T) {
		password := "samePassword"
		hash1, _ := HashPassword(password)
		hash2, _ := HashPassword(password)

		assert.NotEqual(t, hash1, hash2)
	})
}

func TestCheckPassword(t *testing.T) {
	password := "correctPassword"
	hashed, _ := HashPassword(password)

	t.Run("Correct password", func(t *testing.T) {
		assert.True(t, CheckPassword(hashed, password))
	})

	t.Run("Incorrect password", func(t *testing.T) {
		assert.False(t, CheckPassword(hashed, "wrongPassword"))
	})

	t.Run("Empty password", func(t *testing.T) {
		assert.False(t, CheckPassword(hashed, ""))
	})
}

func TestGenerateAccessToken(t *testing.T) {
	t.Run("Successfully generate access token", func(t *testing.T) {
		token, err := GenerateAccessToken(1, "user@example.com", "member", testSecret)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("Fail with empty secret", func(t *testing.T) {
		token, err := GenerateAccessToken(1, "user@example.com", "member", "")

		assert.Error(t, err)
		assert.Equal(t, ErrEmptyJWTSecret, err)
		assert.Empty(t, token)
	})

	t.Run("Token contains correct claims", func(t *testing.T) {
		token, err := GenerateAccessToken(42, "test@example.com", "admin", testSecret)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)

		assert.Equal(t, 42, claims.UserID)
		assert.Equal(t, "test@example.com", claims.Email)
		assert.Equal(t, "admin", claims.Role)
		assert.Equal(t, "access", claims.TokenType)
	})
}

func TestGenerateRefreshToken(t *testing.T) {
	token, err := GenerateRefreshToken(1, "user@example.com", "member", testSecret)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "refresh", claims.TokenType)

	expectedExpiry := time.Now().Add(RefreshTokenTTL)
	diff := claims.ExpiresAt.Time.Sub(expectedExpiry).Abs()
	assert.Less(t, diff, 2*time.Second)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, "user@example.com", "member", testSecret)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestRefreshAccessToken(t *testing.T) {
	t.Run("Valid refresh token", func(t *testing.T) {
		refreshToken, err := GenerateRefreshToken(7, "u@example.com", "member", testSecret)
		require.NoError(t, err)

		access, claims, err := RefreshAccessToken(refreshToken, testSecret, testSecret)
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.Equal(t, 7, claims.UserID)
	})

	t.Run("Access token rejected as refresh", func(t *testing.T) {
		accessToken, err := GenerateAccessToken(7, "u@example.com", "member", testSecret)
		require.NoError(t, err)

		_, _, err = RefreshAccessToken(accessToken, testSecret, testSecret)
		assert.Equal(t, ErrInvalidTokenType, err)
	})
}

func TestCheckinToken(t *testing.T) {
	t.Run("Round trip", func(t *testing.T) {
		token, err := GenerateCheckinToken(33, testSecret)
		require.NoError(t, err)

		userID, err := ValidateCheckinToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, 33, userID)
	})

	t.Run("Access token is not a check-in pass", func(t *testing.T) {
		token, err := GenerateAccessToken(33, "u@example.com", "member", testSecret)
		require.NoError(t, err)

		_, err = ValidateCheckinToken(token, testSecret)
		assert.Equal(t, ErrInvalidTokenType, err)
	})

	t.Run("Check-in token carries no role", func(t *testing.T) {
		token, err := GenerateCheckinToken(33, testSecret)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)
		assert.Empty(t, claims.Role)
		assert.Empty(t, claims.Email)
	})
}
