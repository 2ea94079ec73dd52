// Package bot provides command and event types for the Telegram bot.
package bot

import (
	"context"
	"strconv"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/models"
	"github.com/PancyStudios/MarvinGo/pkg/moderation"
	"github.com/PancyStudios/MarvinGo/pkg/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Result is the outcome of a command: accepted, or rejected with the reason
// the sender is told about
type Result struct {
	Accepted bool
	Reason   string
	// Blocked marks a rejection the moderation gate already retracted and explained
	Blocked bool
}

// Accept is the result of a command that did its job
func Accept() Result {
	return Result{Accepted: true}
}

// Reject is the result of a command that failed one of its guards.
// An empty reason retracts the command without telling the sender.
func Reject(reason string) Result {
	return Result{Reason: reason}
}

// Blocked is the result of a command whose text the moderation gate rejected
func Blocked() Result {
	return Result{Blocked: true}
}

// CommandContext provides context for command execution
type CommandContext struct {
	Ctx     context.Context
	Message *tgbotapi.Message
	Client  *ExtendedClient
}

// Command represents a Telegram bot command
type Command struct {
	Name        string
	Description string
	Category    string
	GroupOnly   bool
	AdminOnly   bool
	Hidden      bool
	Run         CommandRunFunc
}

// CommandRunFunc is the function type for command execution.
// A returned error means the command broke while talking to a platform.
type CommandRunFunc func(ctx *CommandContext) (Result, error)

// NewCommand creates a new Command with required fields
func NewCommand(name, description, category string, run CommandRunFunc) *Command {
	return &Command{
		Name:        name,
		Description: description,
		Category:    category,
		Run:         run,
	}
}

// InGroupOnly restricts the command to the authorized group
func (c *Command) InGroupOnly() *Command {
	c.GroupOnly = true
	return c
}

// AsAdmin restricts the command to administrators of the chat
func (c *Command) AsAdmin() *Command {
	c.AdminOnly = true
	return c
}

// AsHidden keeps the command out of the list shown by Telegram clients
func (c *Command) AsHidden() *Command {
	c.Hidden = true
	return c
}

// ToBotCommand converts the command to a Telegram command list entry
func (c *Command) ToBotCommand() tgbotapi.BotCommand {
	return tgbotapi.BotCommand{Command: c.Name, Description: c.Description}
}

// From is the sender of the command
func (ctx *CommandContext) From() *tgbotapi.User {
	return ctx.Message.From
}

// ChatID is the chat the command was sent in
func (ctx *CommandContext) ChatID() int64 {
	return ctx.Message.Chat.ID
}

// Args returns the words following the command
func (ctx *CommandContext) Args() []string {
	return telegram.CommandArgs(ctx.Message)
}

// ArgText returns everything following the command, trimmed
func (ctx *CommandContext) ArgText() string {
	return ctx.Message.CommandArguments()
}

// ArgMarkdown is ArgText with the message formatting kept as Reddit markdown
func (ctx *CommandContext) ArgMarkdown() string {
	return telegram.ArgumentsMarkdown(ctx.Message)
}

// Replied is the message the command answers, or nil
func (ctx *CommandContext) Replied() *tgbotapi.Message {
	return ctx.Message.ReplyToMessage
}

// InAuthorizedGroup reports whether the command was sent in the authorized group
func (ctx *CommandContext) InAuthorizedGroup() bool {
	return ctx.ChatID() == ctx.Client.Config.AuthorizedGroupID
}

// Reply answers the command in its chat
func (ctx *CommandContext) Reply(text string) error {
	_, err := ctx.Client.Chat.Reply(ctx.Ctx, ctx.ChatID(), ctx.Message.MessageID, text)
	return err
}

// Announce posts text in the authorized group as a reply to replyTo
func (ctx *CommandContext) Announce(replyTo int, text string) error {
	_, err := ctx.Client.Chat.Reply(ctx.Ctx, ctx.Client.Config.AuthorizedGroupID, replyTo, text)
	return err
}

// NotifyAdmins posts text in the admin group, if one is configured
func (ctx *CommandContext) NotifyAdmins(text string) {
	if ctx.Client.Config.AdminGroupID == 0 {
		return
	}
	if _, err := ctx.Client.Chat.SendMessage(ctx.Ctx, ctx.Client.Config.AdminGroupID, text); err != nil {
		logger.Warn("Could not notify the admin group: "+err.Error(), "Command")
	}
}

// Retract deletes messageID from the command chat, now and only if the bot
// administers the chat
func (ctx *CommandContext) Retract(messageID int) {
	if _, err := ctx.Client.Gate.Retract(ctx.Ctx, ctx.ChatID(), int64(messageID), 0); err != nil {
		logger.Warn("Could not retract message "+strconv.Itoa(messageID)+": "+err.Error(), "Command")
	}
}

// Audit stores a moderation record for the command
func (ctx *CommandContext) Audit(kind models.RecordKind, target, reason string) {
	rec := models.ModerationRecord{
		Kind:      kind,
		Scope:     ctx.ChatID(),
		Actor:     telegram.DisplayName(ctx.From()),
		Target:    target,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	if err := ctx.Client.Audit.Record(ctx.Ctx, rec); err != nil {
		logger.Warn("Could not store audit record: "+err.Error(), "Command")
	}
}

// Screen runs text through the blacklist. A rejected command message has
// already been retracted and the sender told why.
func (ctx *CommandContext) Screen(text string) (moderation.Verdict, error) {
	return ctx.Client.Gate.CheckContent(ctx.Ctx, EventFor(ctx.Message, text))
}

// Publish broadcasts a bot event, logging failures
func (ctx *CommandContext) Publish(kind string, payload interface{}) {
	if err := ctx.Client.Events.PublishEvent(kind, payload); err != nil {
		logger.Warn("Could not publish "+kind+": "+err.Error(), "Command")
	}
}
