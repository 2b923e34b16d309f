package database

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unogo/unogo/internal/models"
)

// connectTestDB skips the test unless a test database is configured via the
// usual POSTGRES_*/PG_* env vars.
func connectTestDB(t *testing.T) {
	t.Helper()
	if os.Getenv("PG_HOST") == "" {
		t.Skip("PG_HOST not set, skipping database test")
	}
	if DB == nil {
		ConnectDB()
	}
}

// enqueueTestUser creates a throwaway user and puts them in the queue.
func enqueueTestUser(t *testing.T, ctx context.Context) uuid.UUID {
	t.Helper()
	u := models.User{
		Email:       "queue-" + uuid.NewString() + "@example.com",
		Password:    "password",
		Username:    "queue-" + uuid.NewString()[:8],
		IsEphemeral: true,
	}
	require.NoError(t, CreateUser(ctx, &u))
	require.NoError(t, JoinQueue(ctx, u.ID))
	return u.ID
}

// TestClaimPair covers the transactional pairing claim: it backs off below two
// waiting entries, pairs exactly two, and re-polling after a claim finds
// nothing left to pair.
func TestClaimPair(t *testing.T) {
	connectTestDB(t)
	ctx := context.Background()

	u1 := enqueueTestUser(t, ctx)
	defer DB.Exec(ctx, `DELETE FROM match_queue WHERE user_id=$1`, u1)

	// Everyone else waiting belongs to other runs; drain pairs until our lone
	// entry cannot be matched, then a claim must back off.
	for {
		_, pair, ok, err := ClaimPair(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		require.NotContains(t, pair[:], u1, "a single waiting user must not be paired")
	}

	entry, err := GetQueueEntry(ctx, u1)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.QueueWaiting, entry.Status, "unpaired entry stays waiting")

	u2 := enqueueTestUser(t, ctx)
	defer DB.Exec(ctx, `DELETE FROM match_queue WHERE user_id=$1`, u2)

	gameID, pair, ok, err := ClaimPair(ctx)
	require.NoError(t, err)
	require.True(t, ok, "two waiting users must pair")
	assert.ElementsMatch(t, []uuid.UUID{u1, u2}, pair[:])
	assert.NotEqual(t, pair[0], pair[1])

	for _, id := range pair {
		entry, err := GetQueueEntry(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, models.QueueMatched, entry.Status)
		require.NotNil(t, entry.GameID)
		assert.Equal(t, gameID, *entry.GameID, "both entries carry the claimed game")
	}

	// Re-polling after the claim sees no waiting entries and must not
	// re-pair the matched ones.
	_, _, ok, err = ClaimPair(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "matched entries must not be claimed again")

	require.NoError(t, DeleteEntries(ctx, gameID))
	entry, err = GetQueueEntry(ctx, u1)
	require.NoError(t, err)
	assert.Nil(t, entry, "terminal cleanup removes the matched rows")
}

// TestQueueJoinAndLeave checks entry reset on rejoin and that leaving only
// removes a still-waiting entry.
func TestQueueJoinAndLeave(t *testing.T) {
	connectTestDB(t)
	ctx := context.Background()

	uid := enqueueTestUser(t, ctx)
	defer DB.Exec(ctx, `DELETE FROM match_queue WHERE user_id=$1`, uid)

	// Rejoining resets the entry instead of erroring on the unique key.
	require.NoError(t, JoinQueue(ctx, uid))
	entry, err := GetQueueEntry(ctx, uid)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.QueueWaiting, entry.Status)
	assert.Nil(t, entry.GameID)

	require.NoError(t, LeaveQueue(ctx, uid))
	entry, err = GetQueueEntry(ctx, uid)
	require.NoError(t, err)
	assert.Nil(t, entry, "leaving removes a waiting entry")
}
