package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(secretKey, tokenTTL)

	tests := []struct {
		name     string
		userID   int64
		username string
		role     string
	}{
		{name: "admin", userID: 1, username: "admin", role: RoleAdmin},
		{name: "site user", userID: 42, username: "reader", role: RoleUser},
		{name: "unicode username", userID: 7, username: "读者", role: RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expiresAt, err := maker.GenerateToken(tt.userID, tt.username, tt.role)
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), expiresAt, time.Second)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.username, claims.Username)
			assert.Equal(t, tt.role, claims.Role)
			assert.NotEmpty(t, claims.ID)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_UniqueTokenIDs(t *testing.T) {
	maker := NewJWTMaker("secret", time.Hour)

	first, _, err := maker.GenerateToken(1, "u", RoleUser)
	require.NoError(t, err)
	second, _, err := maker.GenerateToken(1, "u", RoleUser)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, _, err := maker.GenerateToken(1, "testuser", RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: createExpiredToken(t, secretKey)},
		{name: "wrong secret key", token: createTokenWithWrongSecret(t)},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "none algorithm", token: createUnsignedToken(t)},
		{name: "no expiration", token: createTokenWithoutExpiry(t, secretKey)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_DomainsDoNotMix(t *testing.T) {
	site := NewJWTMaker("site_secret", 720*time.Hour)
	admin := NewJWTMaker("admin_secret", 2*time.Hour)

	token, _, err := site.GenerateToken(5, "reader", RoleUser)
	require.NoError(t, err)

	_, err = admin.ParseToken(token)
	assert.Error(t, err)

	_, err = site.ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, 2*time.Hour, admin.TTL())
}

func createExpiredToken(t *testing.T, secretKey string) string {
	t.Helper()
	maker := NewJWTMaker(secretKey, -time.Hour)
	token, _, err := maker.GenerateToken(1, "testuser", RoleUser)
	require.NoError(t, err)
	return token
}

func createTokenWithWrongSecret(t *testing.T) string {
	t.Helper()
	wrongMaker := NewJWTMaker("wrong_secret_key", 15*time.Minute)
	token, _, err := wrongMaker.GenerateToken(1, "testuser", RoleUser)
	require.NoError(t, err)
	return token
}

func createUnsignedToken(t *testing.T) string {
	t.Helper()
	claims := Claims{
		UserID: 1,
		Role:   RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}

func createTokenWithoutExpiry(t *testing.T, secretKey string) string {
	t.Helper()
	claims := Claims{UserID: 1, Role: RoleUser}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	require.NoError(t, err)
	return token
}
