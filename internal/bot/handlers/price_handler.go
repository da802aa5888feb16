package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewPriceHandler returns a handler for the /price command.
func NewPriceHandler(deps HandlerDeps) bot.HandlerFunc {
	return priceHandler{deps}.Handle
}

type priceHandler struct {
	deps HandlerDeps
}

func (h priceHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "price")

	if update.Message == nil {
		log.WarnContext(ctx, "Price handler received update with nil message", "update_id", update.ID)
		return
	}

	reply(ctx, b, log, update.Message.Chat.ID, priceMessage(h.deps.Monitor.Prices(ctx)))
}
