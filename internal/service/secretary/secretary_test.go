package secretary

import (
	"testing"

	"github.com/devtomiwa9/pxsm-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSecretary(t *testing.T) *Secretary {
	t.Helper()
	sec, err := NewSecretaryService(&config.SecretConfig{SecretKey: "test_secret_key"})
	require.NoError(t, err)
	return sec
}

func TestNewSecretaryServiceRejectsEmptyKey(t *testing.T) {
	_, err := NewSecretaryService(&config.SecretConfig{})
	require.Error(t, err)
	_, err = NewSecretaryService(nil)
	require.Error(t, err)
}

func TestNewID(t *testing.T) {
	sec := newTestSecretary(t)
	first := sec.NewID()
	second := sec.NewID()
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestPasswordHashing(t *testing.T) {
	sec := newTestSecretary(t)
	hash, err := sec.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, sec.VerifyPassword(hash, "s3cret"))
	assert.False(t, sec.VerifyPassword(hash, "wrong"))
}

func TestTokenRoundTrip(t *testing.T) {
	sec := newTestSecretary(t)
	accessToken, err := sec.GetTokenForUser("user-1", "ada@example.com", "agent-1", true)
	require.NoError(t, err)

	claims, err := sec.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "agent-1", claims.AgentID)
	assert.True(t, claims.IsAgent)
}

func TestValidateTokenRejectsForeignKey(t *testing.T) {
	sec := newTestSecretary(t)
	other, err := NewSecretaryService(&config.SecretConfig{SecretKey: "another_key"})
	require.NoError(t, err)
	accessToken, err := other.GetTokenForUser("user-1", "ada@example.com", "", false)
	require.NoError(t, err)

	_, err = sec.ValidateToken(accessToken)
	require.Error(t, err)
	_, err = sec.ValidateToken("not.a.token")
	require.Error(t, err)
}
