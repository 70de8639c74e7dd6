package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vprove/pkg/domain"
)

var account = id.AccountID(uuid.New())

var tokenService = NewService("test-signing-key", "test-issuer")

func Test_GenerateAccessToken(t *testing.T) {
	accessToken, err := tokenService.GenerateAccessToken(account, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)

	claims, err := tokenService.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, account, claims.Account)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := tokenService.ValidateToken("invalid-token-string")
	require.ErrorContains(t, err, "invalid token")
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	accessToken, err := tokenService.GenerateAccessToken(account, -time.Minute)
	require.NoError(t, err)

	_, err = tokenService.ValidateToken(accessToken)
	require.ErrorContains(t, err, "expired")
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewService("another-signing-key", "test-issuer")
	accessToken, err := other.GenerateAccessToken(account, time.Minute)
	require.NoError(t, err)

	_, err = tokenService.ValidateToken(accessToken)
	require.ErrorContains(t, err, "invalid token")
}

func Test_ValidateToken_RejectsAlgorithmConfusion(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokenService.ValidateToken(raw)
	require.ErrorContains(t, err, "invalid token")
}

func Test_ValidateToken_BadSubject(t *testing.T) {
	badClaims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed := jwt.NewWithClaims(jwt.SigningMethodHS256, badClaims)
	raw, err := signed.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	_, err = tokenService.ValidateToken(raw)
	require.ErrorContains(t, err, "subject")
}
