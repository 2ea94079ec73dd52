package bot

import (
	"context"

	"github.com/PancyStudios/MarvinGo/pkg/models"
	"github.com/PancyStudios/MarvinGo/pkg/reddit"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatService is the part of the Telegram client the bot logic needs
type ChatService interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	Reply(ctx context.Context, chatID int64, replyTo int, text string) (int, error)
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	PinMessage(ctx context.Context, chatID int64, messageID int) error
	ChatAdministrators(ctx context.Context, chatID int64) ([]tgbotapi.User, error)
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
	Self() tgbotapi.User
}

// ContentService is the part of the Reddit client the bot logic needs
type ContentService interface {
	Subreddit() string
	Me() string
	SubmitLink(ctx context.Context, title, url string) (reddit.Post, error)
	SubmitText(ctx context.Context, title, body string) (reddit.Post, error)
	Reply(ctx context.Context, parentFullID, text string) (reddit.Comment, error)
	DistinguishAndSticky(ctx context.Context, fullID string) error
	Post(ctx context.Context, id string) (reddit.Post, error)
	Remove(ctx context.Context, fullID string) error
	Lock(ctx context.Context, fullID string) error
}

// TitleFetcher resolves the title of a web page
type TitleFetcher interface {
	Title(ctx context.Context, url string) (string, error)
}

// Auditor stores moderation records
type Auditor interface {
	Record(ctx context.Context, rec models.ModerationRecord) error
}

// Publisher broadcasts bot events to other services
type Publisher interface {
	PublishEvent(kind string, payload interface{}) error
}

type noopAuditor struct{}

func (noopAuditor) Record(context.Context, models.ModerationRecord) error { return nil }

type noopPublisher struct{}

func (noopPublisher) PublishEvent(string, interface{}) error { return nil }
