package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"refbot/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var walletRegex = regexp.MustCompile(`^(UQ|EQ)[A-Za-z0-9_-]{46}$`)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		return
	}

	userID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.handleStart(ctx, msg)
		case "stats":
			b.handleStats(ctx, chatID, userID)
		case "top":
			b.handleTop(ctx, chatID)
		}
		return
	}

	// Pending free-text input takes precedence over menu buttons
	b.mu.Lock()
	waitingWallet := b.waitingForWallet[userID]
	waitingWithdraw := b.waitingForWithdraw[userID]
	delete(b.waitingForWallet, userID)
	delete(b.waitingForWithdraw, userID)
	b.mu.Unlock()

	if waitingWallet {
		b.handleWalletInput(ctx, chatID, userID, msg.Text)
		return
	}
	if waitingWithdraw {
		b.handleWithdrawInput(ctx, chatID, userID, msg.Text)
		return
	}

	switch msg.Text {
	case buttonAccount:
		b.handleAccount(ctx, chatID, userID)
	case buttonReferrals:
		b.handleReferrals(ctx, chatID, userID)
	case buttonBalance:
		b.handleBalance(ctx, chatID, userID)
	case buttonDailyBonus:
		b.handleDailyBonus(ctx, chatID, userID)
	case buttonWallet:
		b.handleWallet(ctx, chatID, userID)
	case buttonWithdraw:
		b.handleWithdraw(ctx, chatID, userID)
	default:
		b.sendWithKeyboard(chatID, "Choose an option from the menu:", mainMenuKeyboard())
	}
}

// handleStart registers the user, taking the referrer from the deep-link
// payload. New users are asked to join the required channels before their
// referral is settled.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	var referrerID int64
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		if parsed, err := strconv.ParseInt(args, 10, 64); err == nil {
			referrerID = parsed
		}
	}

	created, err := b.ledger.Register(ctx, userID, referrerID)
	if err != nil {
		b.reportError(chatID, "register user", err)
		return
	}

	if created {
		log.WithFields(log.Fields{
			"userID":     userID,
			"referrerID": referrerID,
		}).Info("New user registered")
	}

	if len(b.config.Channels) == 0 {
		// Nothing to gate on: settle the referral right away
		b.settleReferral(ctx, userID)
		b.sendWithKeyboard(chatID, "Welcome! Invite friends and earn rewards.", mainMenuKeyboard())
		return
	}

	user, err := b.ledger.Get(ctx, userID)
	if err != nil {
		b.reportError(chatID, "get user", err)
		return
	}
	if user != nil && user.ReferralClaimed {
		b.sendWithKeyboard(chatID, "Welcome back!", mainMenuKeyboard())
		return
	}

	b.sendWithKeyboard(chatID,
		"Welcome! To activate your account, join our channels and press the button below.",
		joinedKeyboard())
}

// handleCallback verifies channel membership behind the Joined button and
// settles the referral on success
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Data != callbackJoined {
		return
	}

	userID := query.From.ID
	chatID := userID
	if query.Message != nil {
		chatID = query.Message.Chat.ID
	}

	member, err := b.isMemberOfAll(ctx, userID)
	if err != nil {
		b.answerCallback(query.ID, "Please try again later.")
		log.Errorf("Membership check failed for %d: %v", userID, err)
		return
	}

	if !member {
		b.answerCallback(query.ID, "You have not joined all channels yet.")
		return
	}

	b.settleReferral(ctx, userID)
	b.answerCallback(query.ID, "Welcome!")
	b.sendWithKeyboard(chatID, "Your account is active. Invite friends and earn rewards!", mainMenuKeyboard())
}

// settleReferral credits the referral at most once; repeat calls are no-ops
func (b *Bot) settleReferral(ctx context.Context, userID int64) {
	result, err := b.ledger.CreditReferral(ctx, userID)
	if err != nil {
		log.Errorf("Failed to credit referral for %d: %v", userID, err)
		b.alertOwner(fmt.Sprintf("credit referral for %d: %v", userID, err))
		return
	}
	if result.Credited {
		log.WithFields(log.Fields{
			"userID":     userID,
			"referrerID": result.ReferrerID,
			"newLevel":   result.NewLevel,
		}).Info("Referral credited")
	}
}

func (b *Bot) handleAccount(ctx context.Context, chatID, userID int64) {
	user, err := b.ledger.Get(ctx, userID)
	if err != nil {
		b.reportError(chatID, "get account", err)
		return
	}
	if user == nil {
		b.send(chatID, "You are not registered yet. Send /start first.")
		return
	}

	toNext := models.ReferralsToNextLevel(user.ReferredCount, b.config.ReferralsPerLevel)
	b.send(chatID, fmt.Sprintf(
		"👤 Your account\n\nLevel: %d\nReferrals: %d\nNext level in: %d referrals\nBalance: %d",
		user.Level, user.ReferredCount, toNext, user.Balance))
}

func (b *Bot) handleReferrals(ctx context.Context, chatID, userID int64) {
	user, err := b.ledger.Get(ctx, userID)
	if err != nil {
		b.reportError(chatID, "get referrals", err)
		return
	}
	if user == nil {
		b.send(chatID, "You are not registered yet. Send /start first.")
		return
	}

	link := fmt.Sprintf("https://t.me/%s?start=%d", b.api.Self.UserName, userID)
	b.send(chatID, fmt.Sprintf(
		"👥 You invited %d friends.\n\nEarn %d per confirmed referral. Your invite link:\n%s",
		user.ReferredCount, b.config.ReferralBonus, link))
}

func (b *Bot) handleBalance(ctx context.Context, chatID, userID int64) {
	balance, err := b.ledger.GetBalance(ctx, userID)
	if err != nil {
		b.reportError(chatID, "get balance", err)
		return
	}
	b.send(chatID, fmt.Sprintf("💰 Your balance: %d", balance))
}

func (b *Bot) handleDailyBonus(ctx context.Context, chatID, userID int64) {
	claimed, err := b.ledger.ClaimDailyBonus(ctx, userID)
	if err != nil {
		b.reportError(chatID, "claim daily bonus", err)
		return
	}
	if !claimed {
		b.send(chatID, "🎁 You already claimed your bonus today. Come back tomorrow!")
		return
	}
	b.send(chatID, fmt.Sprintf("🎁 +%d added to your balance. See you tomorrow!", b.config.DailyBonus))
}

func (b *Bot) handleWallet(ctx context.Context, chatID, userID int64) {
	wallet, err := b.ledger.GetWallet(ctx, userID)
	if err != nil {
		b.reportError(chatID, "get wallet", err)
		return
	}

	text := "💼 No wallet connected yet.\n\nSend your TON wallet address:"
	if wallet != nil {
		text = fmt.Sprintf("💼 Current wallet:\n%s\n\nSend a new TON wallet address to change it:", *wallet)
	}

	b.mu.Lock()
	b.waitingForWallet[userID] = true
	b.mu.Unlock()

	b.send(chatID, text)
}

func (b *Bot) handleWalletInput(ctx context.Context, chatID, userID int64, text string) {
	address := strings.TrimSpace(text)
	if !walletRegex.MatchString(address) {
		b.send(chatID, "That does not look like a TON wallet address. Press 💼 Wallet to try again.")
		return
	}

	applied, err := b.ledger.SetWallet(ctx, userID, address)
	if err != nil {
		b.reportError(chatID, "set wallet", err)
		return
	}
	if !applied {
		b.send(chatID, "You are not registered yet. Send /start first.")
		return
	}
	b.send(chatID, "✅ Wallet saved.")
}

func (b *Bot) handleWithdraw(ctx context.Context, chatID, userID int64) {
	wallet, err := b.ledger.GetWallet(ctx, userID)
	if err != nil {
		b.reportError(chatID, "get wallet", err)
		return
	}
	if wallet == nil {
		b.send(chatID, "Connect a wallet first (💼 Wallet).")
		return
	}

	balance, err := b.ledger.GetBalance(ctx, userID)
	if err != nil {
		b.reportError(chatID, "get balance", err)
		return
	}

	b.mu.Lock()
	b.waitingForWithdraw[userID] = true
	b.mu.Unlock()

	b.send(chatID, fmt.Sprintf(
		"💸 Your balance: %d. Minimum withdrawal: %d.\n\nEnter the amount to withdraw:",
		balance, b.config.MinWithdrawal))
}

func (b *Bot) handleWithdrawInput(ctx context.Context, chatID, userID int64, text string) {
	amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || amount <= 0 {
		b.send(chatID, "Enter a positive whole number. Press 💸 Withdraw to try again.")
		return
	}

	accepted, err := b.ledger.Withdraw(ctx, userID, amount)
	if err != nil {
		b.reportError(chatID, "withdraw", err)
		return
	}
	if !accepted {
		b.send(chatID, fmt.Sprintf(
			"Withdrawal rejected: the amount must be at least %d and within your balance.",
			b.config.MinWithdrawal))
		return
	}

	b.send(chatID, fmt.Sprintf("✅ Withdrawal of %d accepted. Payout will arrive shortly.", amount))
	b.alertOwner(fmt.Sprintf("Withdrawal request: user %d, amount %d", userID, amount))
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) {
	if !b.config.IsAdmin(userID) {
		return
	}

	stats, err := b.ledger.Stats(ctx)
	if err != nil {
		b.reportError(chatID, "get stats", err)
		return
	}

	b.send(chatID, fmt.Sprintf(
		"📊 Global stats\n\nUsers: %d\nReferrals: %d\nWithdrawals: %d\nWithdrawn total: %d",
		stats.TotalUsers, stats.TotalReferrals, stats.TotalWithdrawals, stats.TotalWithdrawalAmount))
}

func (b *Bot) handleTop(ctx context.Context, chatID int64) {
	entries, err := b.ledger.Leaderboard(ctx, 10)
	if err != nil {
		b.reportError(chatID, "get leaderboard", err)
		return
	}
	if len(entries) == 0 {
		b.send(chatID, "The leaderboard is empty so far.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏆 Top referrers\n\n")
	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("%d. %d — %d referrals (level %d)\n",
			entry.Rank, entry.TelegramID, entry.ReferredCount, entry.Level))
	}
	b.send(chatID, sb.String())
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Errorf("Failed to answer callback: %v", err)
	}
}
