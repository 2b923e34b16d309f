package client

import (
	"context"
	"math/rand"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unogo/unogo/internal/statestore"
	"github.com/unogo/unogo/internal/uno"
)

func newTestStore(t *testing.T) *statestore.Store {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return statestore.NewStore(rdb)
}

// createGame deals a two-seat game into the store under a fixed seed. Seat 1
// is an AI seat when aiOpponent is set.
func createGame(t *testing.T, store *statestore.Store, seed int64, aiOpponent bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	st, err := uno.NewGame([]uno.SeatInfo{
		{ID: "u1", Name: "Alice"},
		{ID: "u2", Name: "Bob", IsAI: aiOpponent},
	}, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)

	snap := &statestore.Snapshot{
		Game: statestore.GameRecord{ID: id, Mode: statestore.ModeFriends, Status: statestore.StatusPlaying, SeatCount: 2},
		Seats: []statestore.SeatRecord{
			{Seat: 0, UserID: "u1", Name: "Alice"},
			{Seat: 1, UserID: "u2", Name: "Bob", IsAI: aiOpponent},
		},
	}
	require.NoError(t, snap.ApplyState(st))
	require.NoError(t, store.Create(context.Background(), snap))
	return id
}

// takeTurn performs seat 0's best move through the client, whatever the deal
// happened to be.
func takeTurn(t *testing.T, seat *Seat) {
	t.Helper()
	st, err := seat.State()
	require.NoError(t, err)
	require.Equal(t, seat.Index(), st.CurrentPlayerIndex)

	move := uno.ChooseMove(&st, seat.Index())
	if move.Action == uno.ActionPlay {
		require.NoError(t, seat.PlayCard(context.Background(), move.Card.ID, move.ChosenColor))
	} else {
		require.NoError(t, seat.Draw(context.Background()))
	}
}

// TestSeatActWritesBack: a resolved action lands in the store at the next
// version and the mirror follows.
func TestSeatActWritesBack(t *testing.T) {
	store := newTestStore(t)
	gameID := createGame(t, store, 21, false)
	ctx := context.Background()

	seat, err := Open(ctx, store, gameID, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Equal(t, int64(1), seat.Version())

	takeTurn(t, seat)
	assert.Equal(t, int64(2), seat.Version())

	loaded, err := store.Load(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.Game.Version)

	mirror, err := seat.State()
	require.NoError(t, err)
	stored, err := loaded.State()
	require.NoError(t, err)
	assert.Equal(t, stored, mirror, "mirror and record agree after a write")
}

// TestSeatRejectionsLeaveRecordAlone: engine errors surface without touching
// the store.
func TestSeatRejectionsLeaveRecordAlone(t *testing.T) {
	store := newTestStore(t)
	gameID := createGame(t, store, 22, false)
	ctx := context.Background()

	opponent, err := Open(ctx, store, gameID, 1, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	err = opponent.Draw(ctx)
	assert.ErrorIs(t, err, uno.ErrNotYourTurn)

	loaded, err := store.Load(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Game.Version)

	_, err = Open(ctx, store, gameID, 7, rand.New(rand.NewSource(2)))
	assert.ErrorIs(t, err, uno.ErrInvalidSeat)
}

// TestSeatStaleWrite: two clients acting on the same read lose exactly one of
// the writes, and the loser's mirror is refreshed for the retry.
func TestSeatStaleWrite(t *testing.T) {
	store := newTestStore(t)
	gameID := createGame(t, store, 23, false)
	ctx := context.Background()

	a, err := Open(ctx, store, gameID, 0, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	b, err := Open(ctx, store, gameID, 0, rand.New(rand.NewSource(4)))
	require.NoError(t, err)

	takeTurn(t, a)

	// b still mirrors version 1 where it is seat 0's turn; the resolution
	// succeeds locally but the write must lose.
	st, err := b.State()
	require.NoError(t, err)
	move := uno.ChooseMove(&st, 0)
	if move.Action == uno.ActionPlay {
		err = b.PlayCard(ctx, move.Card.ID, move.ChosenColor)
	} else {
		err = b.Draw(ctx)
	}
	assert.ErrorIs(t, err, statestore.ErrStaleWrite)
	assert.Equal(t, int64(2), b.Version(), "loser refreshed its mirror")

	loaded, err := store.Load(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.Game.Version, "only one write landed")
}

// TestSeatWaitingGame: a seat on an undealt game opens fine but rejects moves.
func TestSeatWaitingGame(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := uuid.New()
	snap := &statestore.Snapshot{
		Game: statestore.GameRecord{ID: id, Mode: statestore.ModeFriends, Status: statestore.StatusWaiting, SeatCount: 2},
		Seats: []statestore.SeatRecord{
			{Seat: 0, UserID: "u1", Name: "Alice"},
			{Seat: 1, UserID: "u2", Name: "Bob"},
		},
	}
	require.NoError(t, store.Create(ctx, snap))

	seat, err := Open(ctx, store, id, 0, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	assert.ErrorIs(t, seat.Draw(ctx), ErrGameNotStarted)
	assert.ErrorIs(t, seat.DeclareUno(ctx), ErrGameNotStarted)
}

// TestListenPushesUpdates: a write by one client reaches another client's
// Listen callback with the fresh state.
func TestListenPushesUpdates(t *testing.T) {
	store := newTestStore(t)
	gameID := createGame(t, store, 24, false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	actor, err := Open(ctx, store, gameID, 0, rand.New(rand.NewSource(6)))
	require.NoError(t, err)
	watcher, err := Open(ctx, store, gameID, 1, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	updates := make(chan uno.GameState, 8)
	go func() {
		_ = watcher.Listen(ctx, func(st uno.GameState) { updates <- st })
	}()

	// First emission is the state already mirrored.
	select {
	case <-updates:
	case <-ctx.Done():
		t.Fatal("no initial state emitted")
	}
	time.Sleep(50 * time.Millisecond) // let the subscription settle

	takeTurn(t, actor)

	expected, err := actor.State()
	require.NoError(t, err)
	select {
	case st := <-updates:
		assert.Equal(t, expected, st)
	case <-ctx.Done():
		t.Fatal("no update pushed after the write")
	}
	assert.Equal(t, actor.Version(), watcher.Version())
}
