package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unogo/unogo/internal/auth"
)

// TestEnsureEphemeralUserWithToken verifies that a valid token resolves to its
// user without creating anything: no new cookie is issued and the request
// never reaches the database.
func TestEnsureEphemeralUserWithToken(t *testing.T) {
	authOnce.Do(auth.Init)
	userID := uuid.New()
	token := testToken(t, userID)

	req := httptest.NewRequest("GET", "/game/state", nil)
	req.Header.Set("Cookie", "auth_token="+token)
	w := httptest.NewRecorder()

	got, err := EnsureEphemeralUser(w, req)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Empty(t, w.Result().Cookies(), "an authenticated request gets no fresh cookie")

	// A token carrying a non-uuid subject is rejected rather than silently
	// replaced with a guest mid-request.
	bad, err := auth.CreateJWT("not-a-uuid")
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/game/state", nil)
	req.Header.Set("Cookie", "auth_token="+bad)
	w = httptest.NewRecorder()
	_, err = EnsureEphemeralUser(w, req)
	assert.Error(t, err)
}
