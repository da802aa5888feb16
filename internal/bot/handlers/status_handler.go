package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/cryptowatch/internal/store"
)

// NewStatusHandler returns a handler for the /status command.
func NewStatusHandler(deps HandlerDeps) bot.HandlerFunc {
	return statusHandler{deps}.Handle
}

type statusHandler struct {
	deps HandlerDeps
}

func (h statusHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "status")

	if update.Message == nil {
		log.WarnContext(ctx, "Status handler received update with nil message", "update_id", update.ID)
		return
	}

	st := h.deps.Store
	c := counters{
		alerts:    st.Int(store.KeyTotalAlertsSent, 0),
		news:      st.Int(store.KeyTotalNewsSent, 0),
		started:   st.String(store.KeyBotStartTime, ""),
		lastError: st.String(store.KeyLastError, ""),
	}
	reply(ctx, b, log, update.Message.Chat.ID, statusMessage(h.deps.Monitor.Running(), h.deps.Monitor.Status(), c))
}
