package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	now := time.Now()
	token, err := tm.GenerateToken("session-1", "user-1", now, now.Add(time.Hour))
	require.NoError(t, err)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.ID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	now := time.Now()

	expired, err := tm.GenerateToken("s", "u", now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = tm.ParseToken(expired)
	assert.Error(t, err)

	foreign, err := NewTokenManager("other", time.Hour).GenerateToken("s", "u", now, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = tm.ParseToken(foreign)
	assert.Error(t, err)

	anonymous, err := tm.GenerateToken("", "u", now, now.Add(time.Hour))
	require.NoError(t, err)
	_, err = tm.ParseToken(anonymous)
	assert.Error(t, err)

	_, err = tm.ParseToken("garbage")
	assert.Error(t, err)
}

func TestDefaultTTL(t *testing.T) {
	assert.Equal(t, 8*time.Hour, NewTokenManager("secret", 0).TTL())
}
