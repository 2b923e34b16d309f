package client

import (
	"context"
	"errors"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unogo/unogo/internal/statestore"
	"github.com/unogo/unogo/internal/uno"
)

// AIDriver plays every computer seat of one game. It runs entirely on the
// client side of the sync protocol: it holds no authority, just reacts to
// push notifications like any other player would. In solo mode a single
// driver alongside the human's connection is the whole opposition.
type AIDriver struct {
	Store  *statestore.Store
	GameID uuid.UUID
	Rng    *rand.Rand
	Log    logrus.FieldLogger

	// OnGameEnd receives the winning player's id exactly once, for external
	// reward logic (results recording, XP) to consume.
	OnGameEnd func(winnerID string)
}

// Run evaluates the game after every state change until it finishes or ctx
// is cancelled. Lost write races are ignored: the notification for the
// winning write triggers a re-evaluation from the fresh record.
func (d *AIDriver) Run(ctx context.Context) error {
	sub := d.Store.Subscribe(ctx, d.GameID)
	defer sub.Close()

	if done, err := d.evaluate(ctx); done || err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-sub.C:
			if !ok {
				return nil
			}
			if done, err := d.evaluate(ctx); done || err != nil {
				return err
			}
		}
	}
}

// evaluate performs at most one action per invocation; the write it produces
// notifies the driver again, so chains of AI turns advance one push at a
// time and every intermediate state reaches the other subscribers.
func (d *AIDriver) evaluate(ctx context.Context) (done bool, err error) {
	snap, err := d.Store.Load(ctx, d.GameID)
	if err != nil {
		return false, err
	}
	switch snap.Game.Status {
	case statestore.StatusWaiting:
		return false, nil
	case statestore.StatusFinished:
		if d.OnGameEnd != nil {
			d.OnGameEnd(snap.Game.WinnerID)
			d.OnGameEnd = nil
		}
		return true, nil
	}

	st, err := snap.State()
	if err != nil {
		return false, err
	}

	// Passive penalty sweep first: any AI seat catches any opponent sitting
	// on one undeclared card.
	for seat := range st.Players {
		if !st.Players[seat].IsAI {
			continue
		}
		for target := range st.Players {
			if target == seat || uno.DeclarationState(&st, target) != uno.StatusVulnerable {
				continue
			}
			caught, err := uno.ResolveCatch(st, seat, target, d.Rng)
			if err != nil {
				continue
			}
			return false, d.write(ctx, snap, caught)
		}
	}

	cur := st.CurrentPlayerIndex
	if !st.Players[cur].IsAI {
		return false, nil
	}

	// Declare before the play that would leave one card behind.
	if uno.DeclarationState(&st, cur) == uno.StatusMustDeclare {
		if declared, err := uno.ResolveDeclare(st, cur); err == nil {
			st = declared
		}
	}

	move := uno.ChooseMove(&st, cur)
	var next uno.GameState
	switch move.Action {
	case uno.ActionPlay:
		next, err = uno.ResolvePlay(st, cur, move.Card.ID, move.ChosenColor, d.Rng)
	default:
		next, err = uno.ResolveDraw(st, cur, d.Rng)
	}
	if err != nil {
		return false, err
	}
	return false, d.write(ctx, snap, next)
}

func (d *AIDriver) write(ctx context.Context, snap *statestore.Snapshot, st uno.GameState) error {
	work := snap.Clone()
	if err := work.ApplyState(st); err != nil {
		return err
	}
	err := d.Store.Write(ctx, work)
	if errors.Is(err, statestore.ErrStaleWrite) {
		if d.Log != nil {
			d.Log.WithField("game_id", d.GameID).Debug("AI write superseded, waiting for next notification")
		}
		return nil
	}
	return err
}
