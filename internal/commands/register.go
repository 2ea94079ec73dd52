// Package commands provides a registry for organizing bot commands.
// Commands are organized in subdirectories by category (utils, posts, mod).
package commands

import (
	"github.com/PancyStudios/MarvinGo/internal/commands/mod"
	"github.com/PancyStudios/MarvinGo/internal/commands/posts"
	"github.com/PancyStudios/MarvinGo/internal/commands/utils"
	"github.com/PancyStudios/MarvinGo/pkg/bot"
)

// RegisterAll registers all commands with the client
func RegisterAll(client *bot.ExtendedClient) {
	// /start, /help, /stats
	utils.RegisterUtilsCommands(client)

	// /comment, /postlink, /posttext
	posts.RegisterPostCommands(client)

	// /delrule, /admin
	mod.RegisterModCommands(client)
}
