package models

import (
	"time"
)

// JoinRequest records that a user asked to join a request-to-join channel.
// Its existence is consumed as a boolean fact by membership checks.
type JoinRequest struct {
	UserID    int64     `db:"user_id"`
	ChannelID int64     `db:"channel_id"`
	CreatedAt time.Time `db:"created_at"`
}
