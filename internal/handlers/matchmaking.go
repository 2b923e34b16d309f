package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/unogo/unogo/internal/database"
	"github.com/unogo/unogo/internal/models"
	"github.com/unogo/unogo/internal/statestore"
	"github.com/unogo/unogo/internal/uno"
)

type matchmakingStatus struct {
	Status string     `json:"status"`
	GameID *uuid.UUID `json:"game_id,omitempty"`
}

// JoinMatchmakingHandler enqueues the user for a worldwide game and
// immediately tries to form a pair. Whichever server's claim wins builds the
// game; everyone else finds out by polling status.
func (gs *GameServer) JoinMatchmakingHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := EnsureEphemeralUser(w, r)
	if err != nil {
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}

	if entry, err := database.GetQueueEntry(r.Context(), userID); err == nil && entry != nil && entry.Status == models.QueueMatched {
		writeJSON(w, http.StatusOK, matchmakingStatus{Status: entry.Status, GameID: entry.GameID})
		return
	}

	if err := database.JoinQueue(r.Context(), userID); err != nil {
		http.Error(w, fmt.Sprintf("failed to join queue: %v", err), http.StatusInternalServerError)
		return
	}
	gs.tryMatch(r.Context())

	entry, err := database.GetQueueEntry(r.Context(), userID)
	if err != nil || entry == nil {
		http.Error(w, "failed to read queue entry", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, matchmakingStatus{Status: entry.Status, GameID: entry.GameID})
}

// CancelMatchmakingHandler removes the user from the queue unless they were
// already matched.
func (gs *GameServer) CancelMatchmakingHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := database.LeaveQueue(r.Context(), userID); err != nil {
		http.Error(w, fmt.Sprintf("failed to leave queue: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("left matchmaking"))
}

// MatchmakingStatusHandler reports whether the user is still waiting or has a
// game to connect to.
func (gs *GameServer) MatchmakingStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	entry, err := database.GetQueueEntry(r.Context(), userID)
	if err != nil {
		http.Error(w, "failed to read queue entry", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusOK, matchmakingStatus{Status: "idle"})
		return
	}
	writeJSON(w, http.StatusOK, matchmakingStatus{Status: entry.Status, GameID: entry.GameID})
}

// tryMatch claims one waiting pair, if any, and builds their game. The claim
// is a single database transaction, so two servers pairing at once can never
// both claim the same player; the loser simply sees an empty queue.
func (gs *GameServer) tryMatch(ctx context.Context) {
	gameID, pair, ok, err := database.ClaimPair(ctx)
	if err != nil {
		gs.Log.Warnf("matchmaking claim failed: %v", err)
		return
	}
	if !ok {
		return
	}

	seats := make([]statestore.SeatRecord, len(pair))
	for i, uid := range pair {
		name := "Guest"
		if u, err := database.GetUserByID(ctx, uid); err == nil {
			name = u.Username
		}
		seats[i] = statestore.SeatRecord{Seat: i, UserID: uid.String(), Name: name}
	}

	snap := &statestore.Snapshot{
		Game:  statestore.GameRecord{ID: gameID, Mode: statestore.ModeWorldwide, Status: statestore.StatusWaiting, SeatCount: len(seats)},
		Seats: seats,
	}

	infos := make([]uno.SeatInfo, len(seats))
	for _, s := range seats {
		infos[s.Seat] = uno.SeatInfo{ID: s.UserID, Name: s.Name}
	}
	st, err := uno.NewGame(infos, gs.newRng())
	if err != nil {
		gs.Log.Errorf("failed to deal matched game %s: %v", gameID, err)
		return
	}
	snap.Game.Status = statestore.StatusPlaying
	if err := snap.ApplyState(st); err != nil {
		gs.Log.Errorf("failed to assemble matched game %s: %v", gameID, err)
		return
	}
	if err := gs.Store.Create(ctx, snap); err != nil {
		gs.Log.Errorf("failed to create matched game %s: %v", gameID, err)
		return
	}
	gs.watchGame(gameID)
	gs.Log.Infof("matched %s and %s into game %s", pair[0], pair[1], gameID)
}
