package utils

import (
	"github.com/PancyStudios/MarvinGo/pkg/bot"
)

const projectURL = "https://github.com/fen0x/marvin"

// createStartCommand creates the /start command
func createStartCommand() *bot.Command {
	return bot.NewCommand(
		"start",
		"Informazioni sul bot",
		"utils",
		startHandler,
	)
}

// startHandler greets users outside the group and silently retracts the
// command inside it
func startHandler(ctx *bot.CommandContext) (bot.Result, error) {
	if ctx.InAuthorizedGroup() {
		return bot.Reject(""), nil
	}
	if err := ctx.Reply("Ciao, benvenuto in marvin! Visita la pagina github per maggiori informazioni " + projectURL); err != nil {
		return bot.Result{}, err
	}
	return bot.Accept(), nil
}
