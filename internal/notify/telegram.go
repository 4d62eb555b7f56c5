package notify

import (
	"context"

	"bazaar/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// Sender delivers a plain-text message to a Telegram chat.
type Sender interface {
	SendText(chatID int64, text string) error
}

// BotSender sends through the Bot API.
type BotSender struct {
	Bot *tgbotapi.BotAPI
}

func (b BotSender) SendText(chatID int64, text string) error {
	// Без ParseMode: назви оголошень можуть містити символи розмітки
	_, err := b.Bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// UserLookup resolves the recipient's linked Telegram chat.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Telegram sends notifications to users who linked a Telegram chat.
// Users without a chat are skipped silently.
type Telegram struct {
	Bot   Sender
	Users UserLookup
}

// NewTelegramBot connects to the Bot API with the given token.
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram bot")
	}
	return bot, nil
}

func NewTelegram(bot Sender, users UserLookup) *Telegram {
	return &Telegram{Bot: bot, Users: users}
}

func (t *Telegram) Notify(ctx context.Context, n Notification) error {
	user, err := t.Users.GetUserByID(ctx, n.UserID)
	if err != nil {
		return errors.Wrap(err, "telegram recipient")
	}
	if user.TelegramChatID == 0 {
		return nil
	}

	if err := t.Bot.SendText(user.TelegramChatID, n.Title+"\n\n"+n.Body); err != nil {
		return errors.Wrap(err, "telegram send")
	}
	return nil
}
