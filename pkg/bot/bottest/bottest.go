// Package bottest provides in-memory platform fakes and a ready ExtendedClient
// for testing commands and events.
package bottest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/config"
	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/models"
	"github.com/PancyStudios/MarvinGo/pkg/moderation"
	"github.com/PancyStudios/MarvinGo/pkg/reddit"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

const (
	GroupID      int64 = -1001
	AdminGroupID int64 = -2002
	OtherGroupID int64 = -3003
	BotID        int64 = 999

	Subreddit = "ItalyInformatica"
	Group     = "italyinformatica"
)

var (
	Admin  = tgbotapi.User{ID: 10, FirstName: "Moddo", UserName: "moddo"}
	Member = tgbotapi.User{ID: 20, FirstName: "Mario", UserName: "mario"}
	// Anonymous has no username
	Anonymous = tgbotapi.User{ID: 30, FirstName: "Anna", LastName: "Bianchi"}
)

// Sent is a message the fake chat delivered
type Sent struct {
	ChatID  int64
	ReplyTo int
	Text    string
}

// Chat is an in-memory ChatService and moderation Retractor
type Chat struct {
	mu          sync.Mutex
	admins      map[int64][]tgbotapi.User
	unreachable map[int64]bool
	privileged  bool
	adminsErr   error

	nextID  int
	sent    []Sent
	deleted []int64
	pinned  []int
}

// NewChat builds a chat where Admin and the bot administer GroupID
func NewChat() *Chat {
	self := tgbotapi.User{ID: BotID, FirstName: "Marvin", UserName: "marvin_bot", IsBot: true}
	return &Chat{
		admins:      map[int64][]tgbotapi.User{GroupID: {self, Admin}},
		unreachable: make(map[int64]bool),
		privileged:  true,
		nextID:      5000,
	}
}

// SetUnreachable makes private messages to userID fail
func (c *Chat) SetUnreachable(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unreachable[userID] = true
}

// SetPrivileged controls what the permission probe answers
func (c *Chat) SetPrivileged(p bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.privileged = p
}

// SetAdmins replaces the administrators of chatID
func (c *Chat) SetAdmins(chatID int64, admins ...tgbotapi.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.admins[chatID] = admins
}

// FailAdmins makes ChatAdministrators return err
func (c *Chat) FailAdmins(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adminsErr = err
}

func (c *Chat) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	return c.Reply(ctx, chatID, 0, text)
}

func (c *Chat) Reply(_ context.Context, chatID int64, replyTo int, text string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unreachable[chatID] {
		return 0, errors.External("telegram", "sendMessage", fmt.Errorf("Forbidden: bot can't initiate conversation with a user"))
	}
	c.nextID++
	c.sent = append(c.sent, Sent{ChatID: chatID, ReplyTo: replyTo, Text: text})
	return c.nextID, nil
}

func (c *Chat) DeleteMessage(_ context.Context, _, messageID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, messageID)
	return nil
}

func (c *Chat) PinMessage(_ context.Context, _ int64, messageID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pinned = append(c.pinned, messageID)
	return nil
}

func (c *Chat) ChatAdministrators(_ context.Context, chatID int64) ([]tgbotapi.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.adminsErr != nil {
		return nil, c.adminsErr
	}
	return append([]tgbotapi.User(nil), c.admins[chatID]...), nil
}

func (c *Chat) IsAdmin(_ context.Context, chatID, userID int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.admins[chatID] {
		if a.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (c *Chat) Self() tgbotapi.User {
	return tgbotapi.User{ID: BotID, FirstName: "Marvin", UserName: "marvin_bot", IsBot: true}
}

// IsPrivileged is the permission probe
func (c *Chat) IsPrivileged(context.Context, int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.privileged, nil
}

// Sent returns every delivered message
func (c *Chat) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// SentTo returns the texts delivered to chatID
func (c *Chat) SentTo(chatID int64) []string {
	var texts []string
	for _, s := range c.Sent() {
		if s.ChatID == chatID {
			texts = append(texts, s.Text)
		}
	}
	return texts
}

// Deleted returns the ids of the deleted messages
func (c *Chat) Deleted() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.deleted...)
}

// Pinned returns the ids of the pinned messages
func (c *Chat) Pinned() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.pinned...)
}

// Submission is a post created through the fake
type Submission struct {
	Title string
	URL   string
	Body  string
}

// ReplyCall is a comment created through the fake
type ReplyCall struct {
	Parent string
	Text   string
}

// Reddit is an in-memory ContentService
type Reddit struct {
	mu       sync.Mutex
	posts    map[string]reddit.Post
	nextID   int
	ReplyErr error

	Submitted []Submission
	Replies   []ReplyCall
	Removed   []string
	Locked    []string
	// Stickied holds the comments distinguished and pinned on their thread
	Stickied  []string
}

// NewReddit builds an empty subreddit
func NewReddit() *Reddit {
	return &Reddit{posts: make(map[string]reddit.Post)}
}

// AddPost makes p visible to Post
func (r *Reddit) AddPost(p reddit.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.FullID == "" {
		p.FullID = "t3_" + p.ID
	}
	r.posts[p.ID] = p
}

func (r *Reddit) Subreddit() string { return Subreddit }
func (r *Reddit) Me() string        { return "marvin" }

func (r *Reddit) SubmitLink(_ context.Context, title, url string) (reddit.Post, error) {
	return r.submit(Submission{Title: title, URL: url})
}

func (r *Reddit) SubmitText(_ context.Context, title, body string) (reddit.Post, error) {
	return r.submit(Submission{Title: title, Body: body})
}

func (r *Reddit) submit(s Submission) (reddit.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("new%d", r.nextID)
	p := reddit.Post{ID: id, FullID: "t3_" + id, Title: s.Title, Author: "marvin", Subreddit: Subreddit, URL: s.URL}
	r.posts[id] = p
	r.Submitted = append(r.Submitted, s)
	return p, nil
}

func (r *Reddit) Reply(_ context.Context, parentFullID, text string) (reddit.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ReplyErr != nil {
		return reddit.Comment{}, r.ReplyErr
	}
	r.nextID++
	id := fmt.Sprintf("c%d", r.nextID)
	r.Replies = append(r.Replies, ReplyCall{Parent: parentFullID, Text: text})
	post := strings.TrimPrefix(parentFullID, "t3_")
	return reddit.Comment{
		ID:        id,
		FullID:    "t1_" + id,
		Permalink: "/r/" + Subreddit + "/comments/" + post + "/_/" + id + "/",
	}, nil
}

func (r *Reddit) DistinguishAndSticky(_ context.Context, fullID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stickied = append(r.Stickied, fullID)
	return nil
}

func (r *Reddit) Post(_ context.Context, id string) (reddit.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return reddit.Post{}, errors.External("reddit", "post", fmt.Errorf("post %s not found", id))
	}
	return p, nil
}

func (r *Reddit) Remove(_ context.Context, fullID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Removed = append(r.Removed, fullID)
	return nil
}

func (r *Reddit) Lock(_ context.Context, fullID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Locked = append(r.Locked, fullID)
	return nil
}

// Titles maps page URLs to their titles. Unknown pages fail.
type Titles map[string]string

func (t Titles) Title(_ context.Context, url string) (string, error) {
	title, ok := t[url]
	if !ok {
		return "", errors.External("scraper", "title", fmt.Errorf("no title for %s", url))
	}
	return title, nil
}

// Auditor keeps records in memory
type Auditor struct {
	mu      sync.Mutex
	records []models.ModerationRecord
}

func (a *Auditor) Record(_ context.Context, rec models.ModerationRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return nil
}

// Records returns the stored records
func (a *Auditor) Records() []models.ModerationRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.ModerationRecord(nil), a.records...)
}

// Published is an event sent through the fake publisher
type Published struct {
	Kind    string
	Payload interface{}
}

// Publisher keeps events in memory
type Publisher struct {
	mu     sync.Mutex
	events []Published
}

func (p *Publisher) PublishEvent(kind string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{Kind: kind, Payload: payload})
	return nil
}

// Events returns the published events
func (p *Publisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.events...)
}

// Settings tunes the fixture
type Settings struct {
	FloodLimit int
	GraceDelay time.Duration
	Blacklist  []string
}

// Fixture is a client wired to fakes
type Fixture struct {
	Client *bot.ExtendedClient
	Gate   *moderation.Gate
	Chat   *Chat
	Reddit *Reddit
	Titles Titles
	Audit  *Auditor
	Events *Publisher
}

// New builds a fixture with generous flood limits
func New(t *testing.T) *Fixture {
	return NewWith(t, Settings{})
}

// NewWith builds a fixture from s
func NewWith(t *testing.T, s Settings) *Fixture {
	t.Helper()
	if s.FloodLimit == 0 {
		s.FloodLimit = 100
	}
	if s.GraceDelay == 0 {
		s.GraceDelay = time.Hour
	}
	if s.Blacklist == nil {
		s.Blacklist = []string{"idiota"}
	}

	f := &Fixture{
		Chat:   NewChat(),
		Reddit: NewReddit(),
		Titles: Titles{},
		Audit:  &Auditor{},
		Events: &Publisher{},
	}

	flood, err := moderation.NewRateWindow(moderation.RateWindowOptions{Timeframe: time.Minute, CountLimit: s.FloodLimit})
	require.NoError(t, err)
	bl, err := moderation.NewSortedBlacklist(s.Blacklist)
	require.NoError(t, err)

	var client *bot.ExtendedClient
	f.Gate = moderation.NewGate(moderation.GateOptions{
		Flood:     flood,
		Blacklist: bl,
		Scheduler: moderation.NewScheduler(moderation.NewPermissionCache(0), f.Chat.IsPrivileged, moderation.SchedulerOptions{}),
		Retractor: f.Chat,
		Explain: func(ctx context.Context, ev moderation.Event, token string) error {
			return client.Explain(ctx, ev, token)
		},
		GraceDelay: s.GraceDelay,
	})
	t.Cleanup(f.Gate.Close)

	client = bot.NewClient(bot.Options{
		Config: &config.Config{
			AuthorizedGroupID: GroupID,
			AdminGroupID:      AdminGroupID,
			TelegramGroup:     Group,
			Subreddit:         Subreddit,
			TitlePrefix:       "TG ",
			RulesLink:         "https://example.org/rules",
		},
		Content: &config.Content{
			Blacklist:      s.Blacklist,
			Rules:          map[int]string{1: "Niente spam", 2: "Solo informatica"},
			DefaultComment: "Post dal gruppo https://t.me/{TG_GROUP}{TG_MSG_ID} su r/{SUBREDDIT}",
			WelcomeMessage: "Benvenuto {USER}! Regole: {LINK}",
		},
		Chat:   f.Chat,
		Reddit: f.Reddit,
		Titles: f.Titles,
		Gate:   f.Gate,
		Audit:  f.Audit,
		Events: f.Events,
	})
	f.Client = client
	return f
}

// Run executes cmd for msg the way the command handler does
func (f *Fixture) Run(cmd *bot.Command, msg *tgbotapi.Message) bot.Result {
	return f.Client.CommandHandler.Run(context.Background(), cmd, msg)
}

var nextMessageID = struct {
	sync.Mutex
	n int
}{n: 100}

// Message builds a message from user in chatID. A leading "/word" becomes a
// bot_command entity and every word starting with http:// or https:// a url
// entity, with offsets in UTF-16 code units.
func Message(chatID int64, from tgbotapi.User, text string) *tgbotapi.Message {
	nextMessageID.Lock()
	nextMessageID.n++
	id := nextMessageID.n
	nextMessageID.Unlock()

	chatType := "supergroup"
	if chatID > 0 {
		chatType = "private"
	}

	user := from
	msg := &tgbotapi.Message{
		MessageID: id,
		From:      &user,
		Chat:      &tgbotapi.Chat{ID: chatID, Type: chatType},
		Date:      int(time.Now().Unix()),
		Text:      text,
		Entities:  Entities(text),
	}
	return msg
}

// Reply builds a message answering to
func Reply(to *tgbotapi.Message, from tgbotapi.User, text string) *tgbotapi.Message {
	msg := Message(to.Chat.ID, from, text)
	msg.ReplyToMessage = to
	return msg
}

// Entities finds the command and url entities of text
func Entities(text string) []tgbotapi.MessageEntity {
	var entities []tgbotapi.MessageEntity
	offset := 0
	for i, word := range strings.Split(text, " ") {
		length := len(utf16.Encode([]rune(word)))
		switch {
		case i == 0 && strings.HasPrefix(word, "/") && len(word) > 1:
			entities = append(entities, tgbotapi.MessageEntity{Type: "bot_command", Offset: offset, Length: length})
		case strings.HasPrefix(word, "http://") || strings.HasPrefix(word, "https://"):
			entities = append(entities, tgbotapi.MessageEntity{Type: "url", Offset: offset, Length: length})
		}
		offset += length + 1
	}
	return entities
}
