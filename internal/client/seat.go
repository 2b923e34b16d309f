// Package client implements the per-seat side of the sync protocol: a local
// mirror of the shared game record, kept fresh by push notifications, and the
// optimistic act flow (read mirror, assert turn, resolve locally, write the
// whole record back at the version it was read at).
package client

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/unogo/unogo/internal/models"
	"github.com/unogo/unogo/internal/statestore"
	"github.com/unogo/unogo/internal/uno"
)

// ErrGameNotStarted rejects move attempts against a waiting game.
var ErrGameNotStarted = errors.New("game has not started")

// Seat is one client's handle on one seat of one game. All actions resolve
// against the mirror, never against a fresh read; the mirror is refreshed by
// Listen or explicitly via Refresh.
type Seat struct {
	store  *statestore.Store
	gameID uuid.UUID
	seat   int
	rng    *rand.Rand

	mu     sync.Mutex
	mirror *statestore.Snapshot
}

// Open loads the current record set into a fresh mirror for the given seat.
func Open(ctx context.Context, store *statestore.Store, gameID uuid.UUID, seat int, rng *rand.Rand) (*Seat, error) {
	snap, err := store.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if seat < 0 || seat >= snap.Game.SeatCount {
		return nil, uno.ErrInvalidSeat
	}
	return &Seat{store: store, gameID: gameID, seat: seat, rng: rng, mirror: snap}, nil
}

// Index returns the seat number this client acts for.
func (c *Seat) Index() int { return c.seat }

// GameID returns the game this seat belongs to.
func (c *Seat) GameID() uuid.UUID { return c.gameID }

// Refresh re-reads the authoritative record into the mirror.
func (c *Seat) Refresh(ctx context.Context) error {
	snap, err := c.store.Load(ctx, c.gameID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.mirror = snap
	c.mu.Unlock()
	return nil
}

// State returns the engine view of the mirror.
func (c *Seat) State() (uno.GameState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirror.State()
}

// Version returns the mirror's record version.
func (c *Seat) Version() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirror.Game.Version
}

// act runs one resolution against the mirror and writes the result back with
// the mirror's version as the CAS token. On a lost race the mirror is
// refreshed and ErrStaleWrite surfaces so the caller can re-decide; engine
// rejections leave both the mirror and the shared record untouched.
func (c *Seat) act(ctx context.Context, resolve func(uno.GameState) (uno.GameState, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mirror.Game.Status == statestore.StatusWaiting {
		return ErrGameNotStarted
	}
	st, err := c.mirror.State()
	if err != nil {
		return err
	}
	next, err := resolve(st)
	if err != nil {
		return err
	}

	work := c.mirror.Clone()
	if err := work.ApplyState(next); err != nil {
		return err
	}
	if err := c.store.Write(ctx, work); err != nil {
		if errors.Is(err, statestore.ErrStaleWrite) {
			if snap, loadErr := c.store.Load(ctx, c.gameID); loadErr == nil {
				c.mirror = snap
			}
		}
		return err
	}
	c.mirror = work
	return nil
}

// PlayCard plays one card from this seat's hand. chosen is consulted only
// for wild cards.
func (c *Seat) PlayCard(ctx context.Context, cardID string, chosen models.CardColor) error {
	return c.act(ctx, func(st uno.GameState) (uno.GameState, error) {
		return uno.ResolvePlay(st, c.seat, cardID, chosen, c.rng)
	})
}

// Draw takes one card and passes the turn.
func (c *Seat) Draw(ctx context.Context) error {
	return c.act(ctx, func(st uno.GameState) (uno.GameState, error) {
		return uno.ResolveDraw(st, c.seat, c.rng)
	})
}

// DeclareUno locks in this seat's UNO declaration.
func (c *Seat) DeclareUno(ctx context.Context) error {
	return c.act(ctx, func(st uno.GameState) (uno.GameState, error) {
		return uno.ResolveDeclare(st, c.seat)
	})
}

// CatchUno penalizes another seat for a missed declaration.
func (c *Seat) CatchUno(ctx context.Context, target int) error {
	return c.act(ctx, func(st uno.GameState) (uno.GameState, error) {
		return uno.ResolveCatch(st, c.seat, target, c.rng)
	})
}

// Listen refreshes the mirror on every push notification and hands each new
// state to onUpdate, starting with the state already mirrored. It returns
// when ctx is done or the subscription closes.
func (c *Seat) Listen(ctx context.Context, onUpdate func(uno.GameState)) error {
	sub := c.store.Subscribe(ctx, c.gameID)
	defer sub.Close()

	emit := func() {
		if st, err := c.State(); err == nil && onUpdate != nil {
			onUpdate(st)
		}
	}
	emit()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := c.Refresh(ctx); err != nil {
				return err
			}
			emit()
		}
	}
}
