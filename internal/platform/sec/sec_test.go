// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowimmersive/flowsite/internal/platform/sec"
)

func newTokenService(t *testing.T, issuer string) *sec.TokenService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return sec.NewTokenServiceFromKeys(key, &key.PublicKey, issuer)
}

/*
TestTokenService_RoundTrip verifies that a signed session token verifies and
carries the session binding.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTokenService(t, "flowimmersive.com")

	token, expiresAt, err := service.GenerateSessionToken("user-1", "session-1", "a@x.com", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	service := newTokenService(t, "flowimmersive.com")

	token, _, err := service.GenerateSessionToken("user-1", "session-1", "a@x.com", -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsForeignIssuer(t *testing.T) {
	foreign := newTokenService(t, "elsewhere.example")
	token, _, err := foreign.GenerateSessionToken("user-1", "session-1", "a@x.com", time.Hour)
	require.NoError(t, err)

	_, err = newTokenService(t, "flowimmersive.com").VerifyToken(token)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("secret123")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("secret123", hash))
	assert.False(t, sec.CheckPasswordHash("wrong", hash))
}

func TestUserRole(t *testing.T) {
	role, err := sec.ParseRole("super_admin")
	require.NoError(t, err)
	assert.Equal(t, sec.RoleSuperAdmin, role)

	_, err = sec.ParseRole("owner")
	assert.Error(t, err)

	assert.True(t, sec.RoleAdmin.IsAdminRole())
	assert.True(t, sec.RoleSuperAdmin.AtLeast(sec.RoleAdmin))
	assert.False(t, sec.RoleUser.IsAdminRole())
	assert.False(t, sec.UserRole("").AtLeast(sec.UserRole("bogus")))
}
