package statestore

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/unogo/unogo/internal/models"
	"github.com/unogo/unogo/internal/uno"
)

// Game lifecycle statuses on the shared record.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Game modes, mirrored onto results for the external reward boundary.
const (
	ModeSolo      = "solo"
	ModeFriends   = "friends"
	ModeWorldwide = "worldwide"
)

// GameRecord is the authoritative table-level state of one game. Hands live
// in per-seat records so a client only rewrites what it read. Version is the
// optimistic concurrency token: every write must present the version it was
// read at and is rejected as stale otherwise.
type GameRecord struct {
	ID      uuid.UUID `json:"id"`
	Mode    string    `json:"mode"`
	Status  Status    `json:"status"`
	Version int64     `json:"version"`

	SeatCount          int              `json:"seat_count"`
	CurrentPlayerIndex int              `json:"current_player_index"`
	Direction          int              `json:"direction"`
	DrawPile           []models.Card    `json:"draw_pile"`
	DiscardPile        []models.Card    `json:"discard_pile"`
	CurrentColor       models.CardColor `json:"current_color,omitempty"`
	WinnerID           string           `json:"winner_id,omitempty"`
}

// SeatRecord holds one seat's hand and declaration flags.
type SeatRecord struct {
	Seat           int           `json:"seat"`
	UserID         string        `json:"user_id"`
	Name           string        `json:"name"`
	IsAI           bool          `json:"is_ai"`
	Hand           []models.Card `json:"hand"`
	DeclaredUno    bool          `json:"declared_uno"`
	PenaltyApplied bool          `json:"penalty_applied"`
}

// Snapshot is a full read of one game: the game record plus all seat records,
// all taken at the same version. It doubles as a client's local mirror.
type Snapshot struct {
	Game  GameRecord
	Seats []SeatRecord
}

// Clone deep-copies the snapshot so a failed write cannot leave a mirror
// half-mutated.
func (sn *Snapshot) Clone() *Snapshot {
	out := &Snapshot{Game: sn.Game}
	out.Game.DrawPile = append([]models.Card(nil), sn.Game.DrawPile...)
	out.Game.DiscardPile = append([]models.Card(nil), sn.Game.DiscardPile...)
	out.Seats = make([]SeatRecord, len(sn.Seats))
	for i, seat := range sn.Seats {
		cp := seat
		cp.Hand = append([]models.Card(nil), seat.Hand...)
		out.Seats[i] = cp
	}
	return out
}

// Validate runs the boundary checks appropriate to the game's status. A
// waiting game has no table state yet; a playing or finished one must satisfy
// every engine invariant.
func (sn *Snapshot) Validate() error {
	switch sn.Game.Status {
	case StatusWaiting:
		if len(sn.Game.DrawPile) != 0 || len(sn.Game.DiscardPile) != 0 {
			return fmt.Errorf("waiting game %s has dealt piles", sn.Game.ID)
		}
		for _, seat := range sn.Seats {
			if len(seat.Hand) != 0 {
				return fmt.Errorf("waiting game %s has a dealt hand at seat %d", sn.Game.ID, seat.Seat)
			}
		}
		return nil
	case StatusPlaying, StatusFinished:
		st, err := sn.State()
		if err != nil {
			return err
		}
		return st.Validate()
	default:
		return fmt.Errorf("game %s has unknown status %q", sn.Game.ID, sn.Game.Status)
	}
}

// State assembles the engine aggregate from the record pair. Seats are
// ordered by seat index regardless of storage order.
func (sn *Snapshot) State() (uno.GameState, error) {
	if len(sn.Seats) != sn.Game.SeatCount {
		return uno.GameState{}, fmt.Errorf("game %s has %d seat records, want %d", sn.Game.ID, len(sn.Seats), sn.Game.SeatCount)
	}
	seats := append([]SeatRecord(nil), sn.Seats...)
	sort.Slice(seats, func(i, j int) bool { return seats[i].Seat < seats[j].Seat })

	players := make([]uno.Player, len(seats))
	for i, seat := range seats {
		if seat.Seat != i {
			return uno.GameState{}, fmt.Errorf("game %s is missing seat %d", sn.Game.ID, i)
		}
		players[i] = uno.Player{
			ID:             seat.UserID,
			Name:           seat.Name,
			IsAI:           seat.IsAI,
			Hand:           append([]models.Card(nil), seat.Hand...),
			DeclaredUno:    seat.DeclaredUno,
			PenaltyApplied: seat.PenaltyApplied,
		}
	}
	return uno.GameState{
		Players:            players,
		CurrentPlayerIndex: sn.Game.CurrentPlayerIndex,
		Direction:          sn.Game.Direction,
		DrawPile:           append([]models.Card(nil), sn.Game.DrawPile...),
		DiscardPile:        append([]models.Card(nil), sn.Game.DiscardPile...),
		CurrentColor:       sn.Game.CurrentColor,
		WinnerID:           sn.Game.WinnerID,
		GameOver:           sn.Game.Status == StatusFinished,
	}, nil
}

// ApplyState writes a resolved engine state back over the snapshot, keeping
// seat identities and the version token intact.
func (sn *Snapshot) ApplyState(st uno.GameState) error {
	if len(st.Players) != len(sn.Seats) {
		return fmt.Errorf("state has %d players, snapshot has %d seats", len(st.Players), len(sn.Seats))
	}
	sn.Game.CurrentPlayerIndex = st.CurrentPlayerIndex
	sn.Game.Direction = st.Direction
	sn.Game.DrawPile = append([]models.Card(nil), st.DrawPile...)
	sn.Game.DiscardPile = append([]models.Card(nil), st.DiscardPile...)
	sn.Game.CurrentColor = st.CurrentColor
	sn.Game.WinnerID = st.WinnerID
	if st.GameOver {
		sn.Game.Status = StatusFinished
	}
	for i := range sn.Seats {
		seat := &sn.Seats[i]
		p := st.Players[seat.Seat]
		seat.Hand = append([]models.Card(nil), p.Hand...)
		seat.DeclaredUno = p.DeclaredUno
		seat.PenaltyApplied = p.PenaltyApplied
	}
	return nil
}
