// Package events provides event handlers for member events
package events

import (
	"context"
	"fmt"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RegisterMemberEvents registers all member-related event handlers
func RegisterMemberEvents(client *bot.ExtendedClient) {
	client.EventHandler.RegisterEvent(bot.EventNewMembers, onNewMembers)
}

// onNewMembers welcomes every user who joined, pointing them to the rules
func onNewMembers(ctx context.Context, client *bot.ExtendedClient, msg *tgbotapi.Message) {
	for i := range msg.NewChatMembers {
		user := &msg.NewChatMembers[i]
		if user.IsBot {
			continue
		}

		name := telegram.DisplayName(user)
		logger.Info(fmt.Sprintf("New member %s in %d", name, msg.Chat.ID), "Member")

		text := client.Content.RenderWelcome(name, client.Config.RulesLink)
		if _, err := client.Chat.SendMessage(ctx, msg.Chat.ID, text); err != nil {
			logger.Error(fmt.Sprintf("Could not send the welcome message: %v", err), "Member")
		}
	}
}
