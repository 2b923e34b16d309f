package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/unogo/unogo/internal/models"
)

// InsertInvite records an invitation to a waiting game.
func InsertInvite(ctx context.Context, inv *models.Invite) error {
	q := `
		INSERT INTO game_invites (id, game_id, from_user_id, to_user_id, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW())
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, inv.ID, inv.GameID, inv.FromUserID, inv.ToUserID)
		return err
	})
}

// UpdateInviteStatus transitions a pending invite to accepted or declined and
// returns the updated invite so the caller knows which game it points at.
func UpdateInviteStatus(ctx context.Context, inviteID, toUserID uuid.UUID, status string) (*models.Invite, error) {
	if status != models.InviteAccepted && status != models.InviteDeclined {
		return nil, fmt.Errorf("invalid invite status %q", status)
	}
	q := `
		UPDATE game_invites
		SET status=$3
		WHERE id=$1 AND to_user_id=$2 AND status='pending'
		RETURNING id, game_id, from_user_id, to_user_id, status, created_at
	`
	var inv models.Invite
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, inviteID, toUserID, status).Scan(
			&inv.ID, &inv.GameID, &inv.FromUserID, &inv.ToUserID, &inv.Status, &inv.CreatedAt,
		)
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no pending invite %v for user %v", inviteID, toUserID)
		}
		return nil, err
	}
	return &inv, nil
}

// ListPendingInvites returns pending invites addressed to a user, newest first,
// with the sender's username joined in for display.
func ListPendingInvites(ctx context.Context, toUserID uuid.UUID) ([]models.Invite, error) {
	q := `
		SELECT i.id, i.game_id, i.from_user_id, i.to_user_id, i.status, i.created_at, u.username
		FROM game_invites i
		JOIN users u ON u.id = i.from_user_id
		WHERE i.to_user_id=$1 AND i.status='pending'
		ORDER BY i.created_at DESC
	`
	rows, err := DB.Query(ctx, q, toUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.Invite
	for rows.Next() {
		var inv models.Invite
		if err := rows.Scan(&inv.ID, &inv.GameID, &inv.FromUserID, &inv.ToUserID, &inv.Status, &inv.CreatedAt, &inv.FromUsername); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}
