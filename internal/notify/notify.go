// Package notify delivers end-of-run alerts via the Telegram Bot API. When no
// token is configured the noop notifier is used and alerts are silently
// discarded.
package notify

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends one plain-text alert.
type Notifier interface {
	Send(text string) error
}

// Noop discards alerts.
type Noop struct{}

func (Noop) Send(string) error { return nil }

// Telegram sends alerts to a fixed chat, retrying transient failures.
type Telegram struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewTelegram creates a Telegram notifier. chatID is the numeric chat
// identifier as a string, matching how it is usually configured.
func NewTelegram(token, chatID string, logger *slog.Logger) (*Telegram, error) {
	if logger == nil {
		logger = slog.Default()
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	return &Telegram{
		bot:        bot,
		chatID:     id,
		maxRetries: 3,
		retryDelay: time.Second,
		logger:     logger,
	}, nil
}

// Send delivers one message, backing off linearly between attempts.
func (t *Telegram) Send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		t.logger.Warn("telegram send failed", "attempt", i+1, "error", err)
		time.Sleep(t.retryDelay * time.Duration(i+1))
	}

	return fmt.Errorf("telegram send failed after %d attempts: %w", t.maxRetries, lastErr)
}
