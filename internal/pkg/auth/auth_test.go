package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/studygraph/internal/app/models"
)

func init() {
	BcryptCost = bcrypt.MinCost
}

func newTestService() *JWTService {
	return NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "studygraph"})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService()
	user := &models.User{ID: "3f1c", Email: "amelia@purdue.edu", Username: "amelia"}

	token, expiresIn, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.Equal(t, 3600, expiresIn)

	claims, err := svc.ValidateAndExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "3f1c", claims.UserID)
	assert.Equal(t, "amelia", claims.Key())
	assert.Equal(t, "studygraph", claims.Issuer)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService()
	token, _, err := svc.GenerateToken(&models.User{ID: "1", Email: "a@b.c"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, _, err := newTestService().GenerateToken(&models.User{ID: "1", Email: "a@b.c"})
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	_, err = other.ValidateAndExtractClaims("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsKey(t *testing.T) {
	assert.Equal(t, "a@b.c", (&Claims{UserID: "1", Email: "a@b.c"}).Key())
	assert.Equal(t, "1", (&Claims{UserID: "1"}).Key())
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	tok, err = ExtractBearerToken("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("Boiler#1")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "Boiler#1"))
	assert.False(t, CheckPassword(hash, "Boiler#2"))
}
