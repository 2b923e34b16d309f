package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/unogo/unogo/internal/database"
	"github.com/unogo/unogo/internal/models"
	"github.com/unogo/unogo/internal/statestore"
	"github.com/unogo/unogo/internal/uno"
)

// joinRetries bounds how many times a record join is retried after losing the
// version race to another writer.
const joinRetries = 5

type createGameRequest struct {
	Mode string `json:"mode"`

	// Opponents is the number of AI seats for solo games; 1 when omitted.
	Opponents int `json:"opponents,omitempty"`
}

type createGameResponse struct {
	GameID uuid.UUID `json:"game_id"`
	Seat   int       `json:"seat"`
}

// CreateGameHandler opens a new game. Solo games are dealt immediately with
// the requested number of AI opponents; friend games start waiting with the
// host alone at seat 0 until invites are accepted and the host starts it.
func (gs *GameServer) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := EnsureEphemeralUser(w, r)
	if err != nil {
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}

	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	hostName := "Guest"
	if u, err := database.GetUserByID(r.Context(), userID); err == nil {
		hostName = u.Username
	}

	gameID := uuid.New()
	host := statestore.SeatRecord{Seat: 0, UserID: userID.String(), Name: hostName}

	switch req.Mode {
	case statestore.ModeSolo:
		opponents := req.Opponents
		if opponents <= 0 {
			opponents = 1
		}
		if opponents > uno.MaxPlayers-1 {
			http.Error(w, fmt.Sprintf("at most %d opponents", uno.MaxPlayers-1), http.StatusBadRequest)
			return
		}

		snap := &statestore.Snapshot{
			Game:  statestore.GameRecord{ID: gameID, Mode: statestore.ModeSolo, Status: statestore.StatusWaiting, SeatCount: 1 + opponents},
			Seats: []statestore.SeatRecord{host},
		}
		for i := 1; i <= opponents; i++ {
			snap.Seats = append(snap.Seats, statestore.SeatRecord{
				Seat:   i,
				UserID: fmt.Sprintf("ai:%s:%d", gameID, i),
				Name:   fmt.Sprintf("Computer %d", i),
				IsAI:   true,
			})
		}

		seats := make([]uno.SeatInfo, len(snap.Seats))
		for _, s := range snap.Seats {
			seats[s.Seat] = uno.SeatInfo{ID: s.UserID, Name: s.Name, IsAI: s.IsAI}
		}
		st, err := uno.NewGame(seats, gs.newRng())
		if err != nil {
			http.Error(w, "failed to set up game", http.StatusInternalServerError)
			return
		}
		snap.Game.Status = statestore.StatusPlaying
		if err := snap.ApplyState(st); err != nil {
			http.Error(w, "failed to set up game", http.StatusInternalServerError)
			return
		}
		if err := gs.Store.Create(r.Context(), snap); err != nil {
			gs.Log.Errorf("failed to create solo game: %v", err)
			http.Error(w, "failed to create game", http.StatusInternalServerError)
			return
		}
		gs.watchGame(gameID)
		gs.spawnAI(gameID)

	case statestore.ModeFriends:
		snap := &statestore.Snapshot{
			Game:  statestore.GameRecord{ID: gameID, Mode: statestore.ModeFriends, Status: statestore.StatusWaiting, SeatCount: 1},
			Seats: []statestore.SeatRecord{host},
		}
		if err := gs.Store.Create(r.Context(), snap); err != nil {
			gs.Log.Errorf("failed to create friend game: %v", err)
			http.Error(w, "failed to create game", http.StatusInternalServerError)
			return
		}
		gs.watchGame(gameID)

	default:
		http.Error(w, "mode must be solo or friends", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, createGameResponse{GameID: gameID, Seat: 0})
}

// InviteHandler invites a user by username to a waiting friend game the
// requester hosts.
//
// Request payload: { "game_id": "...", "username": "somename" }
func (gs *GameServer) InviteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		GameID   string `json:"game_id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	gameID, err := uuid.Parse(req.GameID)
	if err != nil {
		http.Error(w, "invalid game_id", http.StatusBadRequest)
		return
	}

	snap, err := gs.Store.Load(r.Context(), gameID)
	if err != nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	if snap.Game.Status != statestore.StatusWaiting {
		http.Error(w, "game has already started", http.StatusConflict)
		return
	}
	if snap.Seats[0].UserID != userID.String() {
		http.Error(w, "only the host can invite", http.StatusForbidden)
		return
	}

	invitee, err := database.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		http.Error(w, "no such user", http.StatusNotFound)
		return
	}
	if invitee.ID == userID {
		http.Error(w, "cannot invite yourself", http.StatusBadRequest)
		return
	}

	inv := &models.Invite{
		ID:         uuid.New(),
		GameID:     gameID,
		FromUserID: userID,
		ToUserID:   invitee.ID,
		Status:     models.InvitePending,
	}
	if err := database.InsertInvite(r.Context(), inv); err != nil {
		http.Error(w, fmt.Sprintf("failed to send invite: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// ListInvitesHandler returns the authenticated user's pending invites, newest
// first.
func (gs *GameServer) ListInvitesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	invites, err := database.ListPendingInvites(r.Context(), userID)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list invites: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, invites)
}

// RespondInviteHandler accepts or declines a pending invite. Accepting joins
// the waiting game at the next free seat.
//
// Request payload: { "invite_id": "...", "accept": true }
func (gs *GameServer) RespondInviteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		InviteID string `json:"invite_id"`
		Accept   bool   `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	inviteID, err := uuid.Parse(req.InviteID)
	if err != nil {
		http.Error(w, "invalid invite_id", http.StatusBadRequest)
		return
	}

	status := models.InviteDeclined
	if req.Accept {
		status = models.InviteAccepted
	}
	inv, err := database.UpdateInviteStatus(r.Context(), inviteID, userID, status)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to update invite: %v", err), http.StatusBadRequest)
		return
	}
	if !req.Accept {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("invite declined"))
		return
	}

	name := "Guest"
	if u, err := database.GetUserByID(r.Context(), userID); err == nil {
		name = u.Username
	}

	seat, err := gs.joinGame(r.Context(), inv.GameID, userID.String(), name)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to join game: %v", err), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, createGameResponse{GameID: inv.GameID, Seat: seat})
}

// joinGame appends a seat to a waiting game, retrying the optimistic write
// when somebody else joined between our read and our write.
func (gs *GameServer) joinGame(ctx context.Context, gameID uuid.UUID, userID, name string) (int, error) {
	for attempt := 0; attempt < joinRetries; attempt++ {
		snap, err := gs.Store.Load(ctx, gameID)
		if err != nil {
			return 0, err
		}
		if snap.Game.Status != statestore.StatusWaiting {
			return 0, fmt.Errorf("game has already started")
		}
		for _, s := range snap.Seats {
			if s.UserID == userID {
				return s.Seat, nil
			}
		}
		if snap.Game.SeatCount >= uno.MaxPlayers {
			return 0, fmt.Errorf("game is full")
		}

		seat := snap.Game.SeatCount
		snap.Seats = append(snap.Seats, statestore.SeatRecord{Seat: seat, UserID: userID, Name: name})
		snap.Game.SeatCount = seat + 1

		err = gs.Store.Write(ctx, snap)
		if err == nil {
			return seat, nil
		}
		if !errors.Is(err, statestore.ErrStaleWrite) {
			return 0, err
		}
	}
	return 0, fmt.Errorf("too many concurrent joins, try again")
}

// StartGameHandler deals a waiting friend game. Host only; needs at least two
// seated players.
//
// Request payload: { "game_id": "..." }
func (gs *GameServer) StartGameHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		GameID string `json:"game_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	gameID, err := uuid.Parse(req.GameID)
	if err != nil {
		http.Error(w, "invalid game_id", http.StatusBadRequest)
		return
	}

	for attempt := 0; attempt < joinRetries; attempt++ {
		snap, err := gs.Store.Load(r.Context(), gameID)
		if err != nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		if snap.Game.Status != statestore.StatusWaiting {
			http.Error(w, "game has already started", http.StatusConflict)
			return
		}
		if snap.Seats[0].UserID != userID.String() {
			http.Error(w, "only the host can start", http.StatusForbidden)
			return
		}
		if snap.Game.SeatCount < uno.MinPlayers {
			http.Error(w, fmt.Sprintf("need at least %d players", uno.MinPlayers), http.StatusConflict)
			return
		}

		err = gs.startGame(r.Context(), snap)
		if err == nil {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("game started"))
			return
		}
		if !errors.Is(err, statestore.ErrStaleWrite) {
			gs.Log.Errorf("failed to start game %s: %v", gameID, err)
			http.Error(w, "failed to start game", http.StatusInternalServerError)
			return
		}
	}
	http.Error(w, "too many concurrent writes, try again", http.StatusConflict)
}

type gameStateResponse struct {
	Game  statestore.GameRecord   `json:"game"`
	Seats []statestore.SeatRecord `json:"seats"`
}

// GameStateHandler returns the full record set: game plus every seat. The
// record is transparent to every player, so this is also the reconnect path
// for a client whose mirror is gone.
func (gs *GameServer) GameStateHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	gameID, err := uuid.Parse(r.URL.Query().Get("game_id"))
	if err != nil {
		http.Error(w, "invalid game_id", http.StatusBadRequest)
		return
	}
	snap, err := gs.Store.Load(r.Context(), gameID)
	if err != nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, gameStateResponse{Game: snap.Game, Seats: snap.Seats})
}
