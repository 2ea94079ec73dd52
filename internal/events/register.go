// Package events provides the handlers for non-command messages.
// Events are organized by category (member, message).
package events

import (
	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
)

// RegisterAll registers all events with the client
func RegisterAll(client *bot.ExtendedClient) {
	logger.System("Registering bot events...", "Events")

	// Member events (welcome message)
	RegisterMemberEvents(client)

	// Message events (@admin trigger)
	RegisterMessageEvents(client)

	logger.Success("All events registered", "Events")
}
