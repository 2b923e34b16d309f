package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/unogo/unogo/internal/models"
)

// JoinQueue adds a user to the matchmaking queue, resetting their entry if a
// stale one is left over from an earlier attempt.
func JoinQueue(ctx context.Context, userID uuid.UUID) error {
	q := `
		INSERT INTO match_queue (user_id, status, game_id, enqueued_at)
		VALUES ($1, 'waiting', NULL, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET status='waiting', game_id=NULL, enqueued_at=NOW()
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, userID)
		return err
	})
}

// LeaveQueue removes a user's entry if they have not been matched yet.
func LeaveQueue(ctx context.Context, userID uuid.UUID) error {
	q := `DELETE FROM match_queue WHERE user_id=$1 AND status='waiting'`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, userID)
		return err
	})
}

// GetQueueEntry returns the queue row for a user, or nil if they are not queued.
func GetQueueEntry(ctx context.Context, userID uuid.UUID) (*models.QueueEntry, error) {
	q := `
		SELECT user_id, status, game_id, enqueued_at
		FROM match_queue
		WHERE user_id=$1
	`
	var e models.QueueEntry
	err := DB.QueryRow(ctx, q, userID).Scan(&e.UserID, &e.Status, &e.GameID, &e.EnqueuedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// ClaimPair atomically takes the two oldest waiting entries and marks them
// matched against a freshly minted game ID. Row locks with SKIP LOCKED mean
// two servers claiming concurrently never pair the same user twice: each
// claim either locks two distinct rows or sees fewer than two and backs off.
// Returns the game ID and the paired user IDs, or ok=false when fewer than
// two users are waiting.
func ClaimPair(ctx context.Context) (gameID uuid.UUID, users [2]uuid.UUID, ok bool, err error) {
	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			SELECT user_id
			FROM match_queue
			WHERE status='waiting'
			ORDER BY enqueued_at
			LIMIT 2
			FOR UPDATE SKIP LOCKED
		`
		rows, err := tx.Query(ctx, q)
		if err != nil {
			return err
		}
		var ids []uuid.UUID
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(ids) < 2 {
			return nil
		}

		gameID = uuid.New()
		upd := `UPDATE match_queue SET status='matched', game_id=$1 WHERE user_id=$2`
		for i, id := range ids {
			if _, err := tx.Exec(ctx, upd, gameID, id); err != nil {
				return err
			}
			users[i] = id
		}
		ok = true
		return nil
	})
	if err != nil {
		return uuid.Nil, [2]uuid.UUID{}, false, err
	}
	return gameID, users, ok, nil
}

// DeleteEntries clears matched rows once both players have connected to the game.
func DeleteEntries(ctx context.Context, gameID uuid.UUID) error {
	q := `DELETE FROM match_queue WHERE game_id=$1`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, gameID)
		return err
	})
}
