package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestJWTRoundTrip issues a token and authenticates it back to the subject.
func TestJWTRoundTrip(t *testing.T) {
	Init()
	userID := uuid.NewString()

	token, err := CreateJWT(userID)
	require.NoError(t, err)

	sub, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID, sub)

	_, err = AuthenticateJWT(token + "tampered")
	assert.Error(t, err)
	_, err = AuthenticateJWT("not-a-token")
	assert.Error(t, err)
}

// TestPasswordHashRoundTrip verifies the argon2id hash format and comparison.
func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := CreateHash("hunter2", Params)
	require.NoError(t, err)

	ok, err := ComparePasswordAndHash("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePasswordAndHash("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ComparePasswordAndHash("hunter2", "$bogus$hash")
	assert.Error(t, err)
}
