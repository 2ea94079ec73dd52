// Package utils provides the general purpose commands
package utils

import (
	"github.com/PancyStudios/MarvinGo/pkg/bot"
)

// RegisterUtilsCommands registers /start, /help, /ping and /stats
func RegisterUtilsCommands(client *bot.ExtendedClient) {
	client.CommandHandler.RegisterCommand(createStartCommand())
	client.CommandHandler.RegisterCommand(createHelpCommand())
	client.CommandHandler.RegisterCommand(createPingCommand())
	client.CommandHandler.RegisterCommand(createStatsCommand())
}
