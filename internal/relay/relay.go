// Package relay announces new subreddit posts in Telegram.
package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/metrics"
	"github.com/PancyStudios/MarvinGo/pkg/models"
	"github.com/PancyStudios/MarvinGo/pkg/reddit"
	"github.com/cenkalti/backoff/v5"
	lru "github.com/hashicorp/golang-lru/v2"
)

// seenPosts bounds the ids remembered across stream restarts
const seenPosts = 1000

var errStreamClosed = errors.New("post stream closed")

// PostSource streams the posts of the subreddit
type PostSource interface {
	Stream(ctx context.Context, opts reddit.StreamOptions) (<-chan reddit.Post, <-chan error)
	Me() string
}

// Chat is where posts are announced
type Chat interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	PinMessage(ctx context.Context, chatID int64, messageID int) error
}

// Options configures a Relay
type Options struct {
	// AdminGroupID receives every post with its author; 0 disables it
	AdminGroupID int64
	// GroupID receives posts not written by the bot
	GroupID  int64
	AutoPins []models.AutoPinRule
	// Interval between subreddit polls
	Interval time.Duration
}

// Relay forwards new posts until its context is cancelled, restarting the
// stream with exponential back-off when it fails. Only the first stream skips
// the posts already on the subreddit: a restarted stream catches up on what
// was posted while it was down.
type Relay struct {
	source  PostSource
	chat    Chat
	opts    Options
	backoff *backoff.ExponentialBackOff

	seen    *lru.Cache[string, struct{}]
	since   time.Time
	started bool
	now     func() time.Time
}

// New creates a Relay
func New(source PostSource, chat Chat, opts Options) *Relay {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Second
	b.MaxInterval = 5 * time.Minute
	b.Reset()

	seen, _ := lru.New[string, struct{}](seenPosts)
	return &Relay{source: source, chat: chat, opts: opts, backoff: b, seen: seen, now: time.Now}
}

// Run blocks until ctx is cancelled
func (r *Relay) Run(ctx context.Context) {
	logger.System("Listening for new posts on the subreddit", "Relay")
	r.since = r.now()
	for {
		err := r.consume(ctx)
		if ctx.Err() != nil {
			logger.Info("Relay stopped", "Relay")
			return
		}

		wait := r.backoff.NextBackOff()
		logger.Warn(fmt.Sprintf("Post stream failed: %v. Restarting in %s", err, wait), "Relay")
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// consume relays posts until the stream reports an error
func (r *Relay) consume(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	posts, errs := r.source.Stream(ctx, reddit.StreamOptions{
		Interval:       r.opts.Interval,
		DiscardInitial: !r.started,
	})
	r.started = true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-posts:
			if !ok {
				return errStreamClosed
			}
			r.backoff.Reset()
			if r.fresh(p) {
				r.Relay(ctx, p)
			}
		case err, ok := <-errs:
			if !ok {
				return errStreamClosed
			}
			return err
		}
	}
}

// fresh reports whether p was created after the relay started and was not
// relayed before. Posts without a creation time only go through the id check.
func (r *Relay) fresh(p reddit.Post) bool {
	if !p.Created.IsZero() && p.Created.Before(r.since) {
		return false
	}
	if r.seen.Contains(p.FullID) {
		return false
	}
	r.seen.Add(p.FullID, struct{}{})
	return true
}

// Relay announces a single post
func (r *Relay) Relay(ctx context.Context, p reddit.Post) {
	metrics.RelayedPosts.Inc()

	if r.opts.AdminGroupID != 0 {
		text := p.Title + "\nPostato da: " + p.Author + "\n" + p.Shortlink()
		if _, err := r.chat.SendMessage(ctx, r.opts.AdminGroupID, text); err != nil {
			logger.Warn("Could not notify the admin group: "+err.Error(), "Relay")
		}
	}

	if strings.EqualFold(p.Author, r.source.Me()) {
		return
	}

	id, err := r.chat.SendMessage(ctx, r.opts.GroupID, p.Title+"\n"+p.Shortlink())
	if err != nil {
		logger.Warn("Could not announce post "+p.ID+": "+err.Error(), "Relay")
		return
	}

	if ShouldPin(r.opts.AutoPins, p) {
		if err := r.chat.PinMessage(ctx, r.opts.GroupID, id); err != nil {
			logger.Warn("Could not pin post "+p.ID+": "+err.Error(), "Relay")
			return
		}
		logger.Info("Pinned post "+p.ID, "Relay")
	}
}

// ShouldPin reports whether a rule matches p: the lowercased title contains
// the rule text and the author is one of the rule users. Rules are expected
// lowercased.
func ShouldPin(rules []models.AutoPinRule, p reddit.Post) bool {
	title := strings.ToLower(p.Title)
	author := strings.ToLower(p.Author)
	for _, rule := range rules {
		if !strings.Contains(title, rule.Text) {
			continue
		}
		for _, u := range rule.Users {
			if u == author {
				return true
			}
		}
	}
	return false
}
