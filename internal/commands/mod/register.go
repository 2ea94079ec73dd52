// Package mod provides the moderation commands of the authorized group.
// Each command is in its own file.
package mod

import (
	"github.com/PancyStudios/MarvinGo/pkg/bot"
)

// RegisterModCommands registers /delrule and /admin
func RegisterModCommands(client *bot.ExtendedClient) {
	client.CommandHandler.RegisterCommand(createDelRuleCommand())
	client.CommandHandler.RegisterCommand(createAdminCommand())
}
