// Package telegram wraps the Telegram Bot API client used by the bot.
// Every outbound call waits on a shared rate limiter and failures are wrapped
// as external service errors.
package telegram

import (
	"context"
	"fmt"
	"sync"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const service = "telegram"

// Client is the chat service backed by the Telegram Bot API
type Client struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
	stop    sync.Once
}

var (
	client     *Client
	clientOnce sync.Once
)

// Init initializes the global Telegram client
func Init(token string, rps float64) (*Client, error) {
	var err error
	clientOnce.Do(func() {
		client, err = New(token, rps)
	})
	return client, err
}

// Get returns the global Telegram client
func Get() *Client {
	return client
}

// New logs in with token. rps bounds outbound calls per second.
func New(token string, rps float64) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.External(service, "getMe", err)
	}
	logger.Success(fmt.Sprintf("Logged in as @%s", api.Self.UserName), "Telegram")

	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

func (c *Client) wait(ctx context.Context, op string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.External(service, op, err)
	}
	return nil
}

// Self returns the bot account
func (c *Client) Self() tgbotapi.User {
	return c.api.Self
}

// SendMessage sends text to chatID and returns the new message id
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	return c.send(ctx, tgbotapi.NewMessage(chatID, text))
}

// Reply sends text to chatID as a reply to replyTo
func (c *Client) Reply(ctx context.Context, chatID int64, replyTo int, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	return c.send(ctx, msg)
}

func (c *Client) send(ctx context.Context, msg tgbotapi.MessageConfig) (int, error) {
	if err := c.wait(ctx, "sendMessage"); err != nil {
		return 0, err
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, errors.External(service, "sendMessage", err)
	}
	return sent.MessageID, nil
}

// DeleteMessage removes messageID from chatID
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	if err := c.wait(ctx, "deleteMessage"); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, int(messageID)))
	return errors.External(service, "deleteMessage", err)
}

// PinMessage pins messageID in chatID without notifying the members
func (c *Client) PinMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := c.wait(ctx, "pinChatMessage"); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.PinChatMessageConfig{
		ChatID:              chatID,
		MessageID:           messageID,
		DisableNotification: true,
	})
	return errors.External(service, "pinChatMessage", err)
}

// ChatAdministrators lists the administrators of chatID
func (c *Client) ChatAdministrators(ctx context.Context, chatID int64) ([]tgbotapi.User, error) {
	if err := c.wait(ctx, "getChatAdministrators"); err != nil {
		return nil, err
	}
	members, err := c.api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return nil, errors.External(service, "getChatAdministrators", err)
	}

	admins := make([]tgbotapi.User, 0, len(members))
	for _, m := range members {
		if m.User != nil {
			admins = append(admins, *m.User)
		}
	}
	return admins, nil
}

// IsAdmin reports whether userID administers or created chatID
func (c *Client) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if err := c.wait(ctx, "getChatMember"); err != nil {
		return false, err
	}
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return false, errors.External(service, "getChatMember", err)
	}
	return member.IsAdministrator() || member.IsCreator(), nil
}

// IsPrivileged reports whether the bot itself administers chatID.
// It is the permission probe of the moderation scheduler.
func (c *Client) IsPrivileged(ctx context.Context, chatID int64) (bool, error) {
	return c.IsAdmin(ctx, chatID, c.api.Self.ID)
}

// Updates long-polls Telegram until ctx is cancelled
func (c *Client) Updates(ctx context.Context) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message"}

	updates := c.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return updates
}

// Stop ends long polling
func (c *Client) Stop() {
	c.stop.Do(c.api.StopReceivingUpdates)
}

// Commands returns the command list shown by Telegram clients
func (c *Client) Commands(ctx context.Context) ([]tgbotapi.BotCommand, error) {
	if err := c.wait(ctx, "getMyCommands"); err != nil {
		return nil, err
	}
	cmds, err := c.api.GetMyCommands()
	if err != nil {
		return nil, errors.External(service, "getMyCommands", err)
	}
	return cmds, nil
}

// SetCommands replaces the command list
func (c *Client) SetCommands(ctx context.Context, cmds []tgbotapi.BotCommand) error {
	if err := c.wait(ctx, "setMyCommands"); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewSetMyCommands(cmds...))
	return errors.External(service, "setMyCommands", err)
}

// DeleteCommands clears the command list
func (c *Client) DeleteCommands(ctx context.Context) error {
	if err := c.wait(ctx, "deleteMyCommands"); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.NewDeleteMyCommands())
	return errors.External(service, "deleteMyCommands", err)
}
