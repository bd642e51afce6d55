package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService("test-secret-key", 15, 7)
}

func TestJWTService_GenerateAndVerify(t *testing.T) {
	svc := newTestService()

	pair, err := svc.Generate("user-uuid", "session-1", "token-1", "device-1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	// ExpiresAt is epoch milliseconds roughly 15 minutes out.
	expected := time.Now().Add(15 * time.Minute).UnixMilli()
	assert.InDelta(t, expected, pair.ExpiresAt, float64(5*time.Second.Milliseconds()))

	claims, err := svc.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-uuid", claims.UserUUID)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "token-1", claims.TokenID)
	assert.Equal(t, "device-1", claims.DeviceID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestJWTService_VerifyRefresh(t *testing.T) {
	svc := newTestService()
	pair, err := svc.Generate("u", "s", "t", "d")
	require.NoError(t, err)

	claims, err := svc.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)

	// An access token must not pass as a refresh token.
	_, err = svc.VerifyRefresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	pair, err := newTestService().Generate("u", "s", "t", "d")
	require.NoError(t, err)

	other := NewJWTService("different-secret", 15, 7)
	_, err = other.Verify(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-secret-key", -1, 7)
	pair, err := svc.Generate("u", "s", "t", "d")
	require.NoError(t, err)

	_, err = svc.Verify(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{
		UserUUID:  "u",
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestService().Verify(token)
	assert.Error(t, err)
}

func TestJWTService_ShouldRefresh(t *testing.T) {
	svc := newTestService()

	near := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Minute)),
	}}
	far := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}

	assert.True(t, svc.ShouldRefresh(near))
	assert.False(t, svc.ShouldRefresh(far))
	assert.False(t, svc.ShouldRefresh(nil))
}

func TestHashToken_StableHex(t *testing.T) {
	a := HashToken("some-refresh-token")
	b := HashToken("some-refresh-token")
	c := HashToken("another-token")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
