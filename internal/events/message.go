// Package events provides event handlers for message events
package events

import (
	"context"
	"strings"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminTrigger in a message calls the admins like /admin does
const AdminTrigger = "@admin"

// RegisterMessageEvents registers all message-related event handlers
func RegisterMessageEvents(client *bot.ExtendedClient) {
	client.EventHandler.RegisterEvent(bot.EventMessage, onAdminMention)
}

// onAdminMention runs /admin for messages mentioning @admin
func onAdminMention(ctx context.Context, client *bot.ExtendedClient, msg *tgbotapi.Message) {
	if !strings.Contains(msg.Text, AdminTrigger) {
		return
	}
	client.CommandHandler.Dispatch(ctx, "admin", msg)
}
