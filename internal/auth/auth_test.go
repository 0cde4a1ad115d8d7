package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

func signClaims(t *testing.T, claims *JWTClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestGenerateAccessToken(t *testing.T) {
	t.Run("Successfully generate access token", func(t *testing.T) {
		token, err := GenerateAccessToken("cust-1", "user@example.com", RoleCustomer, testSecret)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("Fail with empty secret", func(t *testing.T) {
		token, err := GenerateAccessToken("cust-1", "user@example.com", RoleCustomer, "")

		assert.Equal(t, ErrEmptyJWTSecret, err)
		assert.Empty(t, token)
	})

	t.Run("Token contains correct claims", func(t *testing.T) {
		token, err := GenerateAccessToken("cust-42", "test@example.com", RoleAdmin, testSecret)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)

		assert.Equal(t, "cust-42", claims.CustomerID)
		assert.Equal(t, "cust-42", claims.Subject)
		assert.Equal(t, "test@example.com", claims.Email)
		assert.Equal(t, RoleAdmin, claims.Role)
		assert.Equal(t, tokenTypeAccess, claims.TokenType)
		assert.Equal(t, jwtIssuer, claims.Issuer)
		assert.Contains(t, claims.Audience, jwtAudience)
	})
}

func TestValidateToken(t *testing.T) {
	t.Run("Fail with empty secret", func(t *testing.T) {
		token, _ := GenerateAccessToken("cust-1", "a@b.c", RoleCustomer, testSecret)

		claims, err := ValidateToken(token, "")

		assert.Equal(t, ErrEmptyJWTSecret, err)
		assert.Nil(t, claims)
	})

	t.Run("Fail with wrong secret", func(t *testing.T) {
		token, _ := GenerateAccessToken("cust-1", "a@b.c", RoleCustomer, testSecret)

		claims, err := ValidateToken(token, "wrong-secret")

		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Fail with invalid token format", func(t *testing.T) {
		claims, err := ValidateToken("invalid.token.format", testSecret)

		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Fail with expired token", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		token := signClaims(t, &JWTClaims{
			CustomerID: "cust-1",
			TokenType:  tokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    jwtIssuer,
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(past),
				IssuedAt:  jwt.NewNumericDate(past.Add(-15 * time.Minute)),
			},
		}, testSecret)

		claims, err := ValidateToken(token, testSecret)

		assert.Equal(t, ErrTokenExpired, err)
		assert.Nil(t, claims)
	})

	t.Run("Fail with foreign audience", func(t *testing.T) {
		token := signClaims(t, &JWTClaims{
			CustomerID: "cust-1",
			TokenType:  tokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    jwtIssuer,
				Audience:  []string{"some-other-service"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}, testSecret)

		_, err := ValidateToken(token, testSecret)
		assert.Error(t, err)
	})

	t.Run("Customer id falls back to subject", func(t *testing.T) {
		token := signClaims(t, &JWTClaims{
			TokenType: tokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    jwtIssuer,
				Subject:   "cust-from-sub",
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}, testSecret)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "cust-from-sub", claims.CustomerID)
	})

	t.Run("Fail without any customer id", func(t *testing.T) {
		token := signClaims(t, &JWTClaims{
			TokenType: tokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    jwtIssuer,
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}, testSecret)

		_, err := ValidateToken(token, testSecret)
		assert.ErrorIs(t, err, ErrMissingSubject)
	})
}

func TestTokenExpiration(t *testing.T) {
	token, err := GenerateAccessToken("cust-1", "user@example.com", RoleCustomer, testSecret)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)

	diff := claims.ExpiresAt.Time.Sub(time.Now().Add(AccessTokenTTL)).Abs()
	assert.Less(t, diff, 2*time.Second)
}
