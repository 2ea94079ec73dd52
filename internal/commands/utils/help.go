package utils

import (
	"strings"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
)

// createHelpCommand creates the /help command
func createHelpCommand() *bot.Command {
	return bot.NewCommand(
		"help",
		"Elenco dei comandi",
		"utils",
		helpHandler,
	)
}

// helpHandler lists the visible commands privately
func helpHandler(ctx *bot.CommandContext) (bot.Result, error) {
	var b strings.Builder
	b.WriteString("Comandi disponibili:\n")
	for _, cmd := range ctx.Client.Commands.All() {
		if cmd.Hidden {
			continue
		}
		b.WriteString("/" + cmd.Name + " - " + cmd.Description)
		if cmd.AdminOnly {
			b.WriteString(" (admin)")
		}
		b.WriteString("\n")
	}

	ctx.Client.ReplyOrPrivate(ctx.Ctx, ctx.ChatID(), ctx.From(), b.String())
	if ctx.InAuthorizedGroup() {
		ctx.Retract(ctx.Message.MessageID)
	}
	return bot.Accept(), nil
}
