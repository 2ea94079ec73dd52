// Package posts provides the commands that move content from the group to
// the subreddit. Each command is in its own file.
package posts

import (
	"github.com/PancyStudios/MarvinGo/pkg/bot"
)

// RegisterPostCommands registers /comment, /postlink and /posttext
func RegisterPostCommands(client *bot.ExtendedClient) {
	client.CommandHandler.RegisterCommand(createCommentCommand())
	client.CommandHandler.RegisterCommand(createPostLinkCommand())
	client.CommandHandler.RegisterCommand(createPostTextCommand())
}
