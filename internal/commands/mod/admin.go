// Package mod - /admin command
package mod

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
)

func createAdminCommand() *bot.Command {
	return bot.NewCommand(
		"admin",
		"Chiama gli amministratori del gruppo",
		"mod",
		adminHandler,
	).InGroupOnly()
}

// adminHandler contacts every admin privately and tags in the group those
// who never started a chat with the bot
func adminHandler(ctx *bot.CommandContext) (bot.Result, error) {
	chat := ctx.Client.Chat
	admins, err := chat.ChatAdministrators(ctx.Ctx, ctx.ChatID())
	if err != nil {
		logger.Error("Could not list administrators: "+err.Error(), "Mod")
		if _, sendErr := chat.SendMessage(ctx.Ctx, ctx.ChatID(), "Errore nella richiesta per la lista di admin ["+err.Error()+"]"); sendErr != nil {
			return bot.Result{}, sendErr
		}
		return bot.Accept(), nil
	}

	cfg := ctx.Client.Config
	request := fmt.Sprintf("E' stato richiesto un intervento nel gruppo con id %d (%s)", cfg.AuthorizedGroupID, cfg.TelegramGroup)
	self := chat.Self().ID

	var untagged []string
	for _, admin := range admins {
		if admin.ID == self {
			continue
		}
		if _, err := chat.SendMessage(ctx.Ctx, admin.ID, request); err != nil && admin.UserName != "" {
			untagged = append(untagged, "@"+admin.UserName)
		}
	}

	if len(untagged) > 0 {
		text := "I seguenti admin non sono stati contattati in privato e verranno taggati:\n" + strings.Join(untagged, "\n") + "\n"
		if _, err := chat.SendMessage(ctx.Ctx, ctx.ChatID(), text); err != nil {
			return bot.Result{}, err
		}
	}
	logger.Info(fmt.Sprintf("Admins called by %d, %d tagged in the group", ctx.From().ID, len(untagged)), "Mod")
	return bot.Accept(), nil
}
