package bot

import (
	"context"
	"fmt"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CommandHandler routes command messages through the moderation gate and the
// command guards before running them
type CommandHandler struct {
	client *ExtendedClient
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(client *ExtendedClient) *CommandHandler {
	return &CommandHandler{client: client}
}

// RegisterCommand adds a command to the handler
func (ch *CommandHandler) RegisterCommand(cmd *Command) {
	ch.client.Commands.Set(cmd.Name, cmd)
	logger.Debug("Command registered: /"+cmd.Name, "CommandHandler")
}

// Handle runs the command in msg
func (ch *CommandHandler) Handle(ctx context.Context, msg *tgbotapi.Message) {
	ch.Dispatch(ctx, msg.Command(), msg)
}

// Dispatch runs the command called name for msg. Flooding senders are dropped
// silently and unknown commands are retracted after the grace delay.
func (ch *CommandHandler) Dispatch(ctx context.Context, name string, msg *tgbotapi.Message) {
	if isGroup(msg.Chat) {
		v, err := ch.client.Gate.Evaluate(ctx, EventFor(msg, ""))
		if err != nil {
			logger.Warn("Moderation gate: "+err.Error(), "CommandHandler")
		}
		if !v.Accepted() {
			return
		}
	}

	cmd, ok := ch.client.Commands.Get(name)
	if !ok {
		metrics.Commands.WithLabelValues("unknown", "rejected").Inc()
		if _, err := ch.client.Gate.RetractLater(ctx, msg.Chat.ID, int64(msg.MessageID)); err != nil {
			logger.Warn("Could not schedule retraction: "+err.Error(), "CommandHandler")
		}
		return
	}

	ch.Run(ctx, cmd, msg)
}

// Run executes cmd for msg, bypassing the gate. Rejections retract msg and
// tell the sender why.
func (ch *CommandHandler) Run(ctx context.Context, cmd *Command, msg *tgbotapi.Message) Result {
	cctx := &CommandContext{Ctx: ctx, Message: msg, Client: ch.client}

	res, err := ch.guard(cctx, cmd)
	if err == nil && res.Accepted {
		res, err = cmd.Run(cctx)
	}

	if err != nil {
		metrics.Commands.WithLabelValues(cmd.Name, "error").Inc()
		if errors.IsExternal(err) {
			logger.Warn(fmt.Sprintf("Command /%s failed on a remote service: %v", cmd.Name, err), "CommandHandler")
		} else {
			logger.Error(fmt.Sprintf("Error executing command /%s: %v", cmd.Name, err), "CommandHandler")
		}
		if h := errors.Get(); h != nil {
			h.IncrementError()
		}
		return Reject("")
	}

	if !res.Accepted {
		metrics.Commands.WithLabelValues(cmd.Name, "rejected").Inc()
		if res.Blocked {
			return res
		}
		cctx.Retract(msg.MessageID)
		if res.Reason != "" {
			ch.client.ReplyOrPrivate(ctx, msg.Chat.ID, msg.From, res.Reason)
		}
		return res
	}

	metrics.Commands.WithLabelValues(cmd.Name, "accepted").Inc()
	return res
}

func (ch *CommandHandler) guard(ctx *CommandContext, cmd *Command) (Result, error) {
	if cmd.GroupOnly && !ctx.InAuthorizedGroup() {
		cfg := ctx.Client.Config
		return Reject(fmt.Sprintf(
			"Spiacente, questo bot funziona solo nel gruppo autorizzato con id %d (%s), non in %d (attuale)",
			cfg.AuthorizedGroupID, cfg.TelegramGroup, ctx.ChatID(),
		)), nil
	}

	if cmd.AdminOnly {
		admin, err := ctx.Client.Chat.IsAdmin(ctx.Ctx, ctx.ChatID(), ctx.From().ID)
		if err != nil {
			return Result{}, err
		}
		if !admin {
			return Reject("Spiacente, non sei un amministratore."), nil
		}
	}

	return Accept(), nil
}

func isGroup(chat *tgbotapi.Chat) bool {
	return chat.IsGroup() || chat.IsSuperGroup()
}
