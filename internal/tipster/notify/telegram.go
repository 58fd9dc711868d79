package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between any two Telegram messages to the same chat to avoid
// 429 Too Many Requests (~30/min limit).
const sendInterval = 2 * time.Second

const (
	sendRetries  = 3
	retryBackoff = 2 * time.Second
)

// Telegram delivers tip and report messages to one chat. Sends are
// synchronous (the caller needs the message id back for later settlement
// edits) but spaced by sendInterval and retried on transient failures.
// Delivery failures after the retry budget are logged and dropped; the
// caller must not roll back its own state because of them.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	mu       sync.Mutex
	lastSend time.Time
}

// NewTelegram creates the notifier and verifies the bot token.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}

	slog.Info("telegram notifier initialized", "chat_id", chatID)
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Send posts an HTML message and returns its message id.
func (t *Telegram) Send(ctx context.Context, text string) (int, error) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	var sent tgbotapi.Message
	err := t.withRetry(ctx, func() error {
		var err error
		sent, err = t.bot.Send(msg)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("telegram send: %w", err)
	}
	return sent.MessageID, nil
}

// Edit replaces the text of a previously sent message.
func (t *Telegram) Edit(ctx context.Context, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(t.chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true

	err := t.withRetry(ctx, func() error {
		_, err := t.bot.Send(edit)
		return err
	})
	if err != nil {
		return fmt.Errorf("telegram edit message %d: %w", messageID, err)
	}
	return nil
}

// Delete removes a previously sent message. Best effort: an already-deleted
// message is not an error worth surfacing.
func (t *Telegram) Delete(ctx context.Context, messageID int) error {
	del := tgbotapi.NewDeleteMessage(t.chatID, messageID)
	if _, err := t.bot.Request(del); err != nil {
		slog.Warn("telegram delete failed", "message_id", messageID, "error", err)
		return err
	}
	return nil
}

// withRetry runs send respecting the per-chat interval, retrying transient
// failures up to the budget.
func (t *Telegram) withRetry(ctx context.Context, send func() error) error {
	var lastErr error
	for attempt := 1; attempt <= sendRetries; attempt++ {
		if err := t.waitInterval(ctx); err != nil {
			return err
		}

		lastErr = send()
		if lastErr == nil {
			return nil
		}
		slog.Warn("telegram send failed", "attempt", attempt, "retries", sendRetries, "error", lastErr)

		if attempt < sendRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
	}
	return lastErr
}

func (t *Telegram) waitInterval(ctx context.Context) error {
	t.mu.Lock()
	elapsed := time.Since(t.lastSend)
	if elapsed < sendInterval {
		wait := sendInterval - elapsed
		t.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		t.mu.Lock()
	}
	t.lastSend = time.Now()
	t.mu.Unlock()
	return nil
}
