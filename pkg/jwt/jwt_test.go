package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", "burnlink", 1)

	token, err := m.GenerateToken("admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "burnlink", claims.Issuer)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestValidateRejectsTampered(t *testing.T) {
	m := NewManager("test-secret", "burnlink", 1)
	other := NewManager("other-secret", "burnlink", 1)

	token, err := other.GenerateToken("admin")
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err, "不同密钥签发的令牌必须被拒绝")

	_, err = m.ValidateToken("not.a.token")
	assert.Error(t, err)
}
