package bot

import (
	"context"

	log "github.com/sirupsen/logrus"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// isMemberOfAll reports whether the user belongs to every required channel.
// A recorded join request counts for request-to-join channels. With no
// channels configured there is nothing to gate on.
func (b *Bot) isMemberOfAll(ctx context.Context, userID int64) (bool, error) {
	for _, channelID := range b.config.Channels {
		member, err := b.isMember(ctx, userID, channelID)
		if err != nil {
			return false, err
		}
		if !member {
			return false, nil
		}
	}
	return true, nil
}

func (b *Bot) isMember(ctx context.Context, userID, channelID int64) (bool, error) {
	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: channelID,
			UserID: userID,
		},
	})
	if err != nil {
		// The API rejects lookups for users it has never seen in the chat;
		// fall through to the recorded join requests before giving up
		log.WithFields(log.Fields{
			"userID":    userID,
			"channelID": channelID,
		}).Debugf("Chat member lookup failed: %v", err)
		return b.ledger.HasJoinRequest(ctx, userID, channelID)
	}

	switch member.Status {
	case "left", "kicked":
		return b.ledger.HasJoinRequest(ctx, userID, channelID)
	default:
		return true, nil
	}
}
