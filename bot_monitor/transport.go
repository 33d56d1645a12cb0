package bot_monitor

// Package bot_monitor runs the Telegram side: the notification dispatcher,
// the command handlers, and the message formatting.

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"whale-tracker/internal/infra/log"
)

// Sender is the slice of the transport the dispatcher needs.
type Sender interface {
	SendMarkdown(chatID int64, text string) error
}

// TelegramTransport sends messages through the bot API with a global rate
// limiter under Telegram's ~30 messages/second broadcast ceiling.
type TelegramTransport struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
}

func NewTelegramTransport(bot *tgbotapi.BotAPI) *TelegramTransport {
	return &TelegramTransport{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(25), 5),
	}
}

// SendMarkdown delivers a Markdown-formatted message with link previews
// disabled.
func (t *TelegramTransport) SendMarkdown(chatID int64, text string) error {
	t.wait()
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendMarkdownWithKeyboard attaches an inline keyboard.
func (t *TelegramTransport) SendMarkdownWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	t.wait()
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = keyboard
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendPhoto delivers an in-memory image with a caption; used for the
// /stats chart.
func (t *TelegramTransport) SendPhoto(chatID int64, name string, photo []byte, caption string) error {
	t.wait()
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: photo})
	msg.Caption = caption
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}

func (t *TelegramTransport) wait() {
	if err := t.limiter.Wait(context.Background()); err != nil {
		log.LogWarn("Rate limiter wait interrupted")
	}
}
