package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its description and middleware.
// It encapsulates all information needed to register and document a command.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all available bot commands.
// Every command is restricted to the configured user.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)
	userOnly := []tgbot.Middleware{AllowedUserOnly(deps)}

	command := func(name string, h tgbot.HandlerFunc) {
		handlers["/"+name] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     name,
			Handler:     h,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  userOnly,
		}
	}

	command("start", NewStartHandler(deps))
	command("help", NewHelpHandler(deps))
	command("status", NewStatusHandler(deps))
	command("price", NewPriceHandler(deps))
	command("check", NewCheckHandler(deps))

	return handlers
}
