package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/unogo/unogo/internal/statestore"
)

// RecordGameResult persists the final outcome of a finished game: the games
// row flips to 'completed' and each human seat gets a per-player result row.
// AI seats are not persisted; they have no user account behind them.
func RecordGameResult(ctx context.Context, gameID uuid.UUID, snap *statestore.Snapshot) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, mode, status, end_time)
			VALUES ($1, $2, 'completed', NOW())
			ON CONFLICT (id) DO UPDATE SET status='completed', end_time=NOW()
		`
		if _, err := tx.Exec(ctx, upsertGame, gameID, snap.Game.Mode); err != nil {
			return err
		}

		insertResult := `
			INSERT INTO game_results (game_id, player_id, cards_left, did_win)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (game_id, player_id)
			DO UPDATE SET cards_left=$3, did_win=$4
		`
		for _, seat := range snap.Seats {
			if seat.IsAI {
				continue
			}
			playerID, err := uuid.Parse(seat.UserID)
			if err != nil {
				continue
			}
			didWin := seat.UserID == snap.Game.WinnerID
			if _, err := tx.Exec(ctx, insertResult, gameID, playerID, len(seat.Hand), didWin); err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkGameAbandoned flags a game that never finished, e.g. all players left.
func MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) error {
	q := `UPDATE games SET status='abandoned', end_time=NOW() WHERE id=$1 AND status <> 'completed'`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, gameID)
		return err
	})
}
