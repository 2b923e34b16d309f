package handlers

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unogo/unogo/internal/client"
	"github.com/unogo/unogo/internal/database"
	"github.com/unogo/unogo/internal/statestore"
	"github.com/unogo/unogo/internal/uno"
)

// GameTimeout is how long a game may sit without a single write before it is
// marked abandoned and its watcher gives up.
const GameTimeout = 1 * time.Hour

// GameServer owns the cross-request pieces of the game surface: the shared
// record store, the AI drivers it spawns for solo games, and one watcher
// goroutine per game that records the result when the game finishes.
type GameServer struct {
	Log   *logrus.Logger
	Store *statestore.Store

	mu      sync.Mutex
	drivers map[uuid.UUID]context.CancelFunc
}

// NewGameServer wires a GameServer around a record store.
func NewGameServer(log *logrus.Logger, store *statestore.Store) *GameServer {
	return &GameServer{
		Log:     log,
		Store:   store,
		drivers: make(map[uuid.UUID]context.CancelFunc),
	}
}

// newRng seeds a fresh generator per consumer; each client resolves moves with
// its own stream so concurrent resolutions never share generator state.
func (gs *GameServer) newRng() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// startGame deals the table onto a waiting snapshot and writes it back at the
// version the caller read. The caller handles ErrStaleWrite.
func (gs *GameServer) startGame(ctx context.Context, snap *statestore.Snapshot) error {
	seats := make([]uno.SeatInfo, len(snap.Seats))
	for _, s := range snap.Seats {
		seats[s.Seat] = uno.SeatInfo{ID: s.UserID, Name: s.Name, IsAI: s.IsAI}
	}
	st, err := uno.NewGame(seats, gs.newRng())
	if err != nil {
		return err
	}
	snap.Game.Status = statestore.StatusPlaying
	if err := snap.ApplyState(st); err != nil {
		return err
	}
	return gs.Store.Write(ctx, snap)
}

// spawnAI starts the driver that plays every computer seat of a game. At most
// one driver per game per process.
func (gs *GameServer) spawnAI(gameID uuid.UUID) {
	gs.mu.Lock()
	if _, exists := gs.drivers[gameID]; exists {
		gs.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), GameTimeout)
	gs.drivers[gameID] = cancel
	gs.mu.Unlock()

	driver := &client.AIDriver{
		Store:  gs.Store,
		GameID: gameID,
		Rng:    gs.newRng(),
		Log:    gs.Log.WithField("game_id", gameID),
	}
	go func() {
		defer func() {
			gs.mu.Lock()
			delete(gs.drivers, gameID)
			gs.mu.Unlock()
			cancel()
		}()
		if err := driver.Run(ctx); err != nil && ctx.Err() == nil {
			gs.Log.Warnf("AI driver for game %s exited: %v", gameID, err)
		}
	}()
}

// watchGame records the result when a game finishes, or marks it abandoned
// after GameTimeout without a single write. Runs once per created game.
func (gs *GameServer) watchGame(gameID uuid.UUID) {
	go func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sub := gs.Store.Subscribe(ctx, gameID)
		defer sub.Close()

		timer := time.NewTimer(GameTimeout)
		defer timer.Stop()

		for {
			select {
			case <-timer.C:
				if err := database.MarkGameAbandoned(ctx, gameID); err != nil {
					gs.Log.Warnf("failed to mark game %s abandoned: %v", gameID, err)
				} else {
					gs.Log.Infof("marked game %s abandoned after %v of inactivity", gameID, GameTimeout)
				}
				gs.cleanupQueue(ctx, gameID)
				return
			case _, ok := <-sub.C:
				if !ok {
					return
				}
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(GameTimeout)

				snap, err := gs.Store.Load(ctx, gameID)
				if err != nil {
					gs.Log.Warnf("watcher failed to load game %s: %v", gameID, err)
					continue
				}
				if snap.Game.Status != statestore.StatusFinished {
					continue
				}
				if err := database.RecordGameResult(ctx, gameID, snap); err != nil {
					gs.Log.Warnf("failed to record result for game %s: %v", gameID, err)
				} else {
					gs.Log.Infof("recorded result for game %s, winner %s", gameID, snap.Game.WinnerID)
				}
				if snap.Game.Mode == statestore.ModeWorldwide {
					gs.cleanupQueue(ctx, gameID)
				}
				return
			}
		}
	}()
}

// cleanupQueue drops matched queue rows once their game reaches a terminal
// state, so a finished opponent can enqueue again cleanly.
func (gs *GameServer) cleanupQueue(ctx context.Context, gameID uuid.UUID) {
	if err := database.DeleteEntries(ctx, gameID); err != nil {
		gs.Log.Warnf("failed to clear queue entries for game %s: %v", gameID, err)
	}
}
