package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/buildtracker/pkg/config"
)

func newTestTokenManager(accessSecret, refreshSecret string) *TokenManager {
	return NewTokenManager(&config.TokenConf{
		AccessTokenExpiryHour:  1,
		RefreshTokenExpiryHour: 24,
		AccessTokenSecret:      accessSecret,
		RefreshTokenSecret:     refreshSecret,
	})
}

func TestCreateAndCheckTokens(t *testing.T) {
	tm := newTestTokenManager("access", "refresh")
	msg := &JWTMessage{UserID: 7, Username: "alice", IsStaff: true}

	access, refresh, err := tm.CreateTokens(msg)
	require.NoError(t, err)

	got, err := tm.CheckToken(access)
	require.NoError(t, err)
	assert.Equal(t, *msg, got)

	claims, err := tm.CheckRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, *msg, claims.JWTMessage)
	assert.NotEmpty(t, claims.JTI)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt, time.Minute)

	// 两个 token 使用不同的密钥
	_, err = tm.CheckToken(refresh)
	assert.Error(t, err)
	_, err = tm.CheckRefreshToken(access)
	assert.Error(t, err)

	_, refresh2, err := tm.CreateTokens(msg)
	require.NoError(t, err)
	claims2, err := tm.CheckRefreshToken(refresh2)
	require.NoError(t, err)
	assert.NotEqual(t, claims.JTI, claims2.JTI)
}

func TestTokenTypeIsChecked(t *testing.T) {
	tm := newTestTokenManager("shared", "")
	access, refresh, err := tm.CreateTokens(&JWTMessage{UserID: 1, Username: "bob"})
	require.NoError(t, err)

	_, err = tm.CheckToken(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	_, err = tm.CheckRefreshToken(access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestExpiredToken(t *testing.T) {
	tm := newTestTokenManager("access", "refresh")
	token, err := tm.createToken(&JWTMessage{UserID: 1}, AccessToken, -1)
	require.NoError(t, err)

	_, err = tm.CheckToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTamperedToken(t *testing.T) {
	tm := newTestTokenManager("access", "refresh")
	other := newTestTokenManager("other", "refresh")
	access, _, err := other.CreateTokens(&JWTMessage{UserID: 1})
	require.NoError(t, err)

	_, err = tm.CheckToken(access)
	assert.Error(t, err)
	_, err = tm.CheckToken("not.a.token")
	assert.Error(t, err)
}
