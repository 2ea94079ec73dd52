// Package reddit is the content platform client: submissions, comments and
// moderation on the configured subreddit.
package reddit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/vartanbeno/go-reddit/v2/reddit"
)

const service = "reddit"

// Post is a subreddit submission
type Post struct {
	ID        string
	FullID    string
	Title     string
	Author    string
	Subreddit string
	Permalink string
	URL       string
	Locked    bool
	Created   time.Time
}

// Shortlink is the redd.it link of the post
func (p Post) Shortlink() string {
	return "https://redd.it/" + p.ID
}

// Comment is a created comment
type Comment struct {
	ID        string
	FullID    string
	Permalink string
}

// Link is the absolute URL of the comment
func (c Comment) Link() string {
	return "https://www.reddit.com" + c.Permalink
}

// Credentials of the script application the bot logs in with
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// Client talks to one subreddit
type Client struct {
	api       *reddit.Client
	subreddit string
	me        string
}

// New logs in and checks the account
func New(ctx context.Context, creds Credentials, subreddit string) (*Client, error) {
	api, err := reddit.NewClient(reddit.Credentials{
		ID:       creds.ClientID,
		Secret:   creds.ClientSecret,
		Username: creds.Username,
		Password: creds.Password,
	}, reddit.WithUserAgent(creds.UserAgent))
	if err != nil {
		return nil, errors.External(service, "login", err)
	}

	me := creds.Username
	if user, _, err := api.Account.Info(ctx); err != nil {
		return nil, errors.External(service, "me", err)
	} else if user != nil && user.Name != "" {
		me = user.Name
	}

	logger.Success(fmt.Sprintf("Connected to r/%s as u/%s", subreddit, me), "Reddit")
	return &Client{api: api, subreddit: subreddit, me: me}, nil
}

// Subreddit is the configured subreddit name
func (c *Client) Subreddit() string {
	return c.subreddit
}

// Me is the bot account name
func (c *Client) Me() string {
	return c.me
}

// SubmitLink creates a link post
func (c *Client) SubmitLink(ctx context.Context, title, url string) (Post, error) {
	sub, _, err := c.api.Post.SubmitLink(ctx, reddit.SubmitLinkRequest{
		Subreddit: c.subreddit,
		Title:     title,
		URL:       url,
	})
	if err != nil {
		return Post{}, errors.External(service, "submitLink", err)
	}
	return Post{ID: sub.ID, FullID: sub.FullID, Title: title, Author: c.me, Subreddit: c.subreddit, URL: sub.URL}, nil
}

// SubmitText creates a self post
func (c *Client) SubmitText(ctx context.Context, title, body string) (Post, error) {
	sub, _, err := c.api.Post.SubmitText(ctx, reddit.SubmitTextRequest{
		Subreddit: c.subreddit,
		Title:     title,
		Text:      body,
	})
	if err != nil {
		return Post{}, errors.External(service, "submitText", err)
	}
	return Post{ID: sub.ID, FullID: sub.FullID, Title: title, Author: c.me, Subreddit: c.subreddit, URL: sub.URL}, nil
}

// Reply comments on the post or comment with the given full id
func (c *Client) Reply(ctx context.Context, parentFullID, text string) (Comment, error) {
	comment, _, err := c.api.Comment.Submit(ctx, parentFullID, text)
	if err != nil {
		return Comment{}, errors.External(service, "comment", err)
	}
	return Comment{ID: comment.ID, FullID: comment.FullID, Permalink: comment.Permalink}, nil
}

// Post fetches a submission by its base36 id
func (c *Client) Post(ctx context.Context, id string) (Post, error) {
	pc, _, err := c.api.Post.Get(ctx, id)
	if err != nil {
		return Post{}, errors.External(service, "getPost", err)
	}
	if pc == nil || pc.Post == nil {
		return Post{}, errors.External(service, "getPost", fmt.Errorf("post %s not found", id))
	}
	return fromAPI(pc.Post), nil
}

// Remove takes down a post as moderator
func (c *Client) Remove(ctx context.Context, fullID string) error {
	_, err := c.api.Moderation.Remove(ctx, fullID)
	return errors.External(service, "remove", err)
}

// DistinguishAndSticky marks a comment of the bot as a moderator comment and
// pins it on top of its thread
func (c *Client) DistinguishAndSticky(ctx context.Context, fullID string) error {
	_, err := c.api.Moderation.DistinguishAndSticky(ctx, fullID)
	return errors.External(service, "distinguish", err)
}

// Lock prevents new comments on a post
func (c *Client) Lock(ctx context.Context, fullID string) error {
	_, err := c.api.Post.Lock(ctx, fullID)
	return errors.External(service, "lock", err)
}

// StreamOptions configures Stream
type StreamOptions struct {
	Interval time.Duration
	// DiscardInitial drops the posts of the first fetch, which already
	// existed when the stream started
	DiscardInitial bool
}

// Stream delivers the new posts of the subreddit until ctx is cancelled.
// Both channels are closed when the stream ends.
func (c *Client) Stream(ctx context.Context, opts StreamOptions) (<-chan Post, <-chan error) {
	streamOpts := []reddit.StreamOpt{reddit.StreamInterval(opts.Interval)}
	if opts.DiscardInitial {
		streamOpts = append(streamOpts, reddit.StreamDiscardInitial)
	}
	posts, errs, stop := c.api.Stream.Posts(c.subreddit, streamOpts...)

	out := make(chan Post)
	outErrs := make(chan error)
	go func() {
		defer close(out)
		defer close(outErrs)
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-posts:
				if !ok {
					return
				}
				select {
				case out <- fromAPI(p):
				case <-ctx.Done():
					return
				}
			case err, ok := <-errs:
				if !ok {
					return
				}
				select {
				case outErrs <- errors.External(service, "stream", err):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, outErrs
}

func fromAPI(p *reddit.Post) Post {
	var created time.Time
	if p.Created != nil {
		created = p.Created.Time
	}
	return Post{
		ID:        p.ID,
		FullID:    p.FullID,
		Title:     p.Title,
		Author:    p.Author,
		Subreddit: p.SubredditName,
		Permalink: p.Permalink,
		URL:       p.URL,
		Locked:    p.Locked,
		Created:   created,
	}
}

// SameSubreddit compares subreddit names the way Reddit does, ignoring case
func SameSubreddit(a, b string) bool {
	return strings.EqualFold(strings.TrimPrefix(a, "r/"), strings.TrimPrefix(b, "r/"))
}
