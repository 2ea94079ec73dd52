package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/config"
	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/moderation"
	"github.com/PancyStudios/MarvinGo/pkg/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Options wires the services of an ExtendedClient. Audit and Events are optional.
type Options struct {
	Config  *config.Config
	Content *config.Content
	Chat    ChatService
	Reddit  ContentService
	Titles  TitleFetcher
	Gate    *moderation.Gate
	Audit   Auditor
	Events  Publisher
}

// ExtendedClient bundles the platform clients with command and event handling
type ExtendedClient struct {
	Config         *config.Config
	Content        *config.Content
	Chat           ChatService
	Reddit         ContentService
	Titles         TitleFetcher
	Gate           *moderation.Gate
	Audit          Auditor
	Events         Publisher
	Commands       *CommandCollection
	CommandHandler *CommandHandler
	EventHandler   *EventHandler
	StartTime      time.Time
}

// CommandCollection holds registered commands
type CommandCollection struct {
	commands map[string]*Command
	mu       sync.RWMutex
}

// NewCommandCollection creates a new CommandCollection
func NewCommandCollection() *CommandCollection {
	return &CommandCollection{
		commands: make(map[string]*Command),
	}
}

// Set adds or updates a command
func (cc *CommandCollection) Set(name string, cmd *Command) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.commands[name] = cmd
}

// Get retrieves a command by name
func (cc *CommandCollection) Get(name string) (*Command, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	cmd, ok := cc.commands[name]
	return cmd, ok
}

// Size returns the number of commands
func (cc *CommandCollection) Size() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.commands)
}

// All returns the commands sorted by name
func (cc *CommandCollection) All() []*Command {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	result := make([]*Command, 0, len(cc.commands))
	for _, cmd := range cc.commands {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// NewClient creates a new ExtendedClient
func NewClient(opts Options) *ExtendedClient {
	c := &ExtendedClient{
		Config:    opts.Config,
		Content:   opts.Content,
		Chat:      opts.Chat,
		Reddit:    opts.Reddit,
		Titles:    opts.Titles,
		Gate:      opts.Gate,
		Audit:     opts.Audit,
		Events:    opts.Events,
		Commands:  NewCommandCollection(),
		StartTime: time.Now(),
	}
	if c.Audit == nil {
		c.Audit = noopAuditor{}
	}
	if c.Events == nil {
		c.Events = noopPublisher{}
	}

	c.CommandHandler = NewCommandHandler(c)
	c.EventHandler = NewEventHandler(c)
	return c
}

// Run dispatches updates until the channel is closed or ctx is cancelled
func (c *ExtendedClient) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	logger.Success("Listening for Telegram updates", "Client")
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			c.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update. Panics are recovered so one broken
// update never stops the loop.
func (c *ExtendedClient) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer errors.RecoverMiddleware()()

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	if len(msg.NewChatMembers) > 0 {
		c.EventHandler.Emit(ctx, EventNewMembers, msg)
		return
	}

	if msg.From == nil {
		return
	}

	if msg.IsCommand() {
		c.CommandHandler.Handle(ctx, msg)
		return
	}
	c.EventHandler.Emit(ctx, EventMessage, msg)
}

// ReplyOrPrivate sends text to the sender privately. When Telegram refuses
// (the user never started the bot) it is posted in chatID with a mention.
func (c *ExtendedClient) ReplyOrPrivate(ctx context.Context, chatID int64, user *tgbotapi.User, text string) {
	if _, err := c.Chat.SendMessage(ctx, user.ID, text); err == nil {
		return
	}
	if _, err := c.Chat.SendMessage(ctx, chatID, telegram.Mention(user, text)); err != nil {
		logger.Warn(fmt.Sprintf("Could not reach %s: %v", telegram.DisplayName(user), err), "Client")
	}
}

// Explain tells the sender of a blacklisted message which word got it removed.
// It is the explanation hook of the moderation gate.
func (c *ExtendedClient) Explain(ctx context.Context, ev moderation.Event, token string) error {
	text := "Il tuo commento contiene la seguente parola bandita: " + token
	if _, err := c.Chat.SendMessage(ctx, ev.UserID, text); err == nil {
		return nil
	}
	_, err := c.Chat.SendMessage(ctx, ev.Scope, ev.Mention+"\n"+text)
	return err
}

// EventFor builds the moderation event of msg, screening text
func EventFor(msg *tgbotapi.Message, text string) moderation.Event {
	return moderation.Event{
		Scope:   msg.Chat.ID,
		Object:  int64(msg.MessageID),
		Sender:  strconv.FormatInt(msg.From.ID, 10),
		UserID:  msg.From.ID,
		Mention: telegram.MentionPrefix(msg.From),
		Text:    text,
	}
}

// BotCommands lists the commands shown by Telegram clients
func (c *ExtendedClient) BotCommands() []tgbotapi.BotCommand {
	var cmds []tgbotapi.BotCommand
	for _, cmd := range c.Commands.All() {
		if !cmd.Hidden {
			cmds = append(cmds, cmd.ToBotCommand())
		}
	}
	return cmds
}

// Uptime returns how long the client has been running
func (c *ExtendedClient) Uptime() time.Duration {
	return time.Since(c.StartTime)
}
