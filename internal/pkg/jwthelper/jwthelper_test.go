package jwthelper

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = []byte("principal-signing-key")

func TestRoundTrip(t *testing.T) {
	token, err := GenerateToken(key, Principal{ID: 42, Role: RoleSecurity}, time.Minute)
	require.NoError(t, err)

	p, err := ParseToken(key, token)
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: 42, Role: RoleSecurity}, p)
}

func TestGenerateToken_UnknownRole(t *testing.T) {
	_, err := GenerateToken(key, Principal{ID: 1, Role: "organizer"}, time.Minute)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := GenerateToken(key, Principal{ID: 1, Role: RoleAdmin}, -time.Minute)
	require.NoError(t, err)

	otherKey, err := GenerateToken([]byte("another-key"), Principal{ID: 1, Role: RoleAdmin}, time.Minute)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString(key)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString(key)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"expired":     expired,
		"wrong key":   otherKey,
		"no expiry":   noExpiry,
		"bad subject": badSubject,
		"garbage":     "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(key, raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
