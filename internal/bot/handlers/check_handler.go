package handlers

import (
	"context"
	"html"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// checkTimeout bounds a manual check cycle started from chat.
const checkTimeout = 2 * time.Minute

// NewCheckHandler returns a handler for the /check command.
func NewCheckHandler(deps HandlerDeps) bot.HandlerFunc {
	return checkHandler{deps}.Handle
}

type checkHandler struct {
	deps HandlerDeps
}

func (h checkHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "check")

	if update.Message == nil {
		log.WarnContext(ctx, "Check handler received update with nil message", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Manual check requested", "chat_id", chatID)

	reply(ctx, b, log, chatID, "🔍 Running check cycle...")

	cycleCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := h.deps.Monitor.RunCheckCycle(cycleCtx); err != nil {
		reply(ctx, b, log, chatID, "⚠️ Check cycle finished with errors:\n"+html.EscapeString(err.Error()))
		return
	}
	reply(ctx, b, log, chatID, "✅ Check cycle completed")
}
