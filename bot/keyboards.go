package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	buttonAccount    = "👤 Account"
	buttonReferrals  = "👥 Referrals"
	buttonBalance    = "💰 Balance"
	buttonDailyBonus = "🎁 Daily Bonus"
	buttonWallet     = "💼 Wallet"
	buttonWithdraw   = "💸 Withdraw"
)

const callbackJoined = "joined"

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonAccount),
			tgbotapi.NewKeyboardButton(buttonReferrals),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonBalance),
			tgbotapi.NewKeyboardButton(buttonDailyBonus),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonWallet),
			tgbotapi.NewKeyboardButton(buttonWithdraw),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func joinedKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Joined", callbackJoined),
		),
	)
}
