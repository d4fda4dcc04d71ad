package bot

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"refbot/config"
	"refbot/events"
	"refbot/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	config *config.Config
	ledger service.LedgerService

	mu                 sync.Mutex
	waitingForWallet   map[int64]bool
	waitingForWithdraw map[int64]bool
}

func New(cfg *config.Config, ledger service.LedgerService, eventBus *events.Bus) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram session: %w", err)
	}

	log.Infof("Authorized as @%s", api.Self.UserName)

	bot := &Bot{
		api:                api,
		config:             cfg,
		ledger:             ledger,
		waitingForWallet:   make(map[int64]bool),
		waitingForWithdraw: make(map[int64]bool),
	}

	// Notify referrers once their credit has committed
	eventBus.Subscribe(events.EventTypeReferralCredited, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.ReferralCreditedEvent); ok {
			bot.notifyReferrer(ctx, e)
		}
	})

	return bot, nil
}

// Start runs the long-polling update loop until the context is cancelled.
// Each update is handled on its own goroutine with panic recovery, so one
// misbehaving handler cannot stall the loop.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go func(upd tgbotapi.Update) {
				defer func() {
					if r := recover(); r != nil {
						log.WithField("panic", r).Error("Panic while handling update")
						b.alertOwner(fmt.Sprintf("Panic while handling update: %v", r))
					}
				}()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.ChatJoinRequest != nil:
		b.handleChatJoinRequest(ctx, update.ChatJoinRequest)
	}
}

// handleChatJoinRequest records pending requests for request-to-join
// channels; the membership check accepts them in place of full membership.
func (b *Bot) handleChatJoinRequest(ctx context.Context, req *tgbotapi.ChatJoinRequest) {
	if err := b.ledger.RecordJoinRequest(ctx, req.From.ID, req.Chat.ID); err != nil {
		log.WithFields(log.Fields{
			"userID":    req.From.ID,
			"channelID": req.Chat.ID,
		}).Errorf("Failed to record join request: %v", err)
	}
}

func (b *Bot) notifyReferrer(_ context.Context, e events.ReferralCreditedEvent) {
	text := fmt.Sprintf("🎉 You have a new referral! +%d credited to your balance.", e.Bonus)
	if e.LeveledUp {
		text += fmt.Sprintf("\n⬆️ You reached level %d!", e.NewLevel)
	}
	b.send(e.ReferrerID, text)
}

// alertOwner forwards an operational error to the configured owner account
func (b *Bot) alertOwner(text string) {
	if b.config.OwnerID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(b.config.OwnerID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		log.Errorf("Failed to alert owner: %v", err)
	}
}

// reportError logs the error, alerts the owner and leaves the user with a
// safe fallback message
func (b *Bot) reportError(chatID int64, action string, err error) {
	log.WithField("action", action).Errorf("Handler error: %v", err)
	b.alertOwner(fmt.Sprintf("%s: %v", action, err))
	b.send(chatID, "Something went wrong. Please try again later.")
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Errorf("Failed to send message to %d: %v", chatID, err)
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		log.Errorf("Failed to send message to %d: %v", chatID, err)
	}
}
