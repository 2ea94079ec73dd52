package utils

import (
	"fmt"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
)

// createPingCommand creates the /ping command
func createPingCommand() *bot.Command {
	return bot.NewCommand(
		"ping",
		"Controlla la latenza del bot",
		"utils",
		pingHandler,
	).AsHidden()
}

// pingHandler answers privately with the Telegram round-trip time
func pingHandler(ctx *bot.CommandContext) (bot.Result, error) {
	start := time.Now()
	if _, err := ctx.Client.Chat.SendMessage(ctx.Ctx, ctx.From().ID, "🏓 Pong!"); err != nil {
		return bot.Reject(""), nil
	}
	latency := time.Since(start).Milliseconds()
	if _, err := ctx.Client.Chat.SendMessage(ctx.Ctx, ctx.From().ID, fmt.Sprintf("Latenza: %dms", latency)); err != nil {
		return bot.Result{}, err
	}
	if ctx.InAuthorizedGroup() {
		ctx.Retract(ctx.Message.MessageID)
	}
	return bot.Accept(), nil
}
