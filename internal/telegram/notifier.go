package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/cryptowatch/internal/notify"
)

// Notifier sends HTML messages with link previews disabled to one chat.
type Notifier struct {
	bot     *bot.Bot
	chatID  any
	timeout time.Duration
	log     *slog.Logger
}

// NewNotifier targets userID, a numeric chat ID or a username. Each send is
// bounded by timeout; zero leaves it to the caller's context.
func NewNotifier(b *bot.Bot, userID string, timeout time.Duration, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{bot: b, chatID: ChatID(userID), timeout: timeout, log: log.With("component", "telegram_notifier")}
}

// ChatID converts the configured recipient into a sendMessage chat_id:
// an int64 for numeric IDs, otherwise an "@username".
func ChatID(userID string) any {
	userID = strings.TrimSpace(userID)
	if id, err := strconv.ParseInt(userID, 10, 64); err == nil {
		return id
	}
	if strings.HasPrefix(userID, "@") {
		return userID
	}
	return "@" + userID
}

// Send delivers text to the configured chat.
func (n *Notifier) Send(ctx context.Context, text string) error {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:             n.chatID,
		Text:               text,
		ParseMode:          models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "chat not found") {
			n.log.ErrorContext(ctx, "Chat not found; the user must start a conversation with the bot first", "chat_id", n.chatID)
		}
		return fmt.Errorf("%w: %w", notify.ErrSend, err)
	}
	return nil
}
