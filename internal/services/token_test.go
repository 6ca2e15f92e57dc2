package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/apiserver/config"
	"github.com/clipstream/apiserver/types"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "access-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenTTL:    time.Hour,
	}
}

func testUser() types.User {
	return types.User{
		ID:       uuid.New(),
		UserName: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
	}
}

func TestNewTokenIssuer_RequiresSecrets(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AccessTokenSecret = ""
	_, err := NewTokenIssuer(cfg)
	assert.Error(t, err)

	cfg = testAuthConfig()
	cfg.RefreshTokenTTL = 0
	_, err = NewTokenIssuer(cfg)
	assert.Error(t, err)
}

func TestTokenIssuer_AccessRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(testAuthConfig())
	require.NoError(t, err)
	user := testUser()

	token, err := issuer.IssueAccess(user)
	require.NoError(t, err)

	claims, err := issuer.Verify(token, AccessToken)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.UserName, claims.UserName)
	assert.Equal(t, user.FullName, claims.FullName)
}

func TestTokenIssuer_RefreshCarriesOnlySubject(t *testing.T) {
	issuer, err := NewTokenIssuer(testAuthConfig())
	require.NoError(t, err)
	user := testUser()

	token, err := issuer.IssueRefresh(user)
	require.NoError(t, err)

	claims, err := issuer.Verify(token, RefreshToken)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.UserName)
	assert.Empty(t, claims.FullName)
}

func TestTokenIssuer_KindsDoNotCrossVerify(t *testing.T) {
	issuer, err := NewTokenIssuer(testAuthConfig())
	require.NoError(t, err)
	user := testUser()

	access, err := issuer.IssueAccess(user)
	require.NoError(t, err)
	refresh, err := issuer.IssueRefresh(user)
	require.NoError(t, err)

	_, err = issuer.Verify(access, RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = issuer.Verify(refresh, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_ExpiredVsTampered(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AccessTokenTTL = time.Millisecond
	issuer, err := NewTokenIssuer(cfg)
	require.NoError(t, err)
	user := testUser()

	token, err := issuer.IssueAccess(user)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = issuer.Verify(token, AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = issuer.Verify(token+"x", AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("garbage", AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
