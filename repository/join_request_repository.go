package repository

import (
	"context"
	"fmt"

	"refbot/database"
)

// JoinRequestRepository implements the service.JoinRequestRepository interface
type JoinRequestRepository struct {
	q queryable
}

// NewJoinRequestRepository creates a new join request repository
func NewJoinRequestRepository(db *database.DB) *JoinRequestRepository {
	return &JoinRequestRepository{q: db.Pool}
}

func newJoinRequestRepositoryWithTx(tx queryable) *JoinRequestRepository {
	return &JoinRequestRepository{q: tx}
}

// Save records a join request. Duplicate (user, channel) pairs are no-ops.
func (r *JoinRequestRepository) Save(ctx context.Context, userID, channelID int64) error {
	query := `
		INSERT INTO join_requests (user_id, channel_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, channel_id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, userID, channelID); err != nil {
		return fmt.Errorf("failed to save join request for user %d channel %d: %w", userID, channelID, err)
	}
	return nil
}

// Exists reports whether the user has a recorded join request for the channel
func (r *JoinRequestRepository) Exists(ctx context.Context, userID, channelID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM join_requests WHERE user_id = $1 AND channel_id = $2
		)
	`

	var exists bool
	if err := r.q.QueryRow(ctx, query, userID, channelID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check join request for user %d channel %d: %w", userID, channelID, err)
	}
	return exists, nil
}
