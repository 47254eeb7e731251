package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/petrovi-4/habit-tracker-backend/internal/platform/logger"
)

// BotSink delivers reminder texts through the Telegram Bot API. It satisfies
// the reminder job's Sink contract.
type BotSink struct {
	bot *tgbotapi.BotAPI
	log *logger.Logger
}

func NewBotSink(token string, timeout time.Duration, log *logger.Logger) (*BotSink, error) {
	client := &http.Client{Timeout: timeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	sinkLog := log.With("sink", "TelegramBot")
	sinkLog.Info("Telegram bot initialized", "bot", bot.Self.UserName)
	return &BotSink{bot: bot, log: sinkLog}, nil
}

func (b *BotSink) Send(ctx context.Context, chatID string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	msg := tgbotapi.NewMessage(id, text)
	if _, err := b.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
