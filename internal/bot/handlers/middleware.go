// Package handlers contains Telegram bot command handlers, along with their
// registration logic and middleware.
package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const unauthorizedMsg = "⛔ You are not authorized to use this bot."

// AllowedUserOnly creates a middleware that lets through only messages from
// the configured user. Others get a "not authorized" reply and processing stops.
func AllowedUserOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			if !isAllowed(update.Message.From, deps.Config.Telegram.UserID) {
				chatID := update.Message.Chat.ID
				log := deps.Logger.With("middleware", "AllowedUserOnly")
				var userID int64
				if update.Message.From != nil {
					userID = update.Message.From.ID
				}
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)
				reply(ctx, b, log, chatID, unauthorizedMsg)
				return
			}

			next(ctx, b, update)
		}
	}
}

// isAllowed matches the sender against the configured user, given either as
// a numeric ID or as a username with or without "@".
func isAllowed(from *models.User, allowed string) bool {
	if from == nil {
		return false
	}
	allowed = strings.TrimSpace(allowed)
	if id, err := strconv.ParseInt(allowed, 10, 64); err == nil {
		return from.ID == id
	}
	name := strings.TrimPrefix(allowed, "@")
	return name != "" && strings.EqualFold(from.Username, name)
}

// reply sends an HTML message to chatID and logs a failure.
func reply(ctx context.Context, b *tgbot.Bot, log *slog.Logger, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}
