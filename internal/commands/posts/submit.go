package posts

import (
	"fmt"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/reddit"
	"github.com/PancyStudios/MarvinGo/pkg/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// PostEvent is published when a post is created from the group
type PostEvent struct {
	PostID    string `json:"postId"`
	Title     string `json:"title"`
	Shortlink string `json:"shortlink"`
	By        string `json:"by"`
	Source    int    `json:"source"`
}

// postTitle prefixes title with the author of the relayed message
func postTitle(ctx *bot.CommandContext, author *tgbotapi.User, title string) string {
	return "[" + ctx.Client.Config.TitlePrefix + telegram.DisplayName(author) + "] " + title
}

// announcePost pins the default comment on post and tells the group where it is.
// source is the group message the post was made from.
func announcePost(ctx *bot.CommandContext, post reddit.Post, source int) {
	text := ctx.Client.Content.RenderDefaultComment(source, ctx.Client.Reddit.Subreddit(), ctx.Client.Config.TelegramGroup)
	if comment, err := ctx.Client.Reddit.Reply(ctx.Ctx, post.FullID, text); err != nil {
		logger.Warn(fmt.Sprintf("Could not add the default comment to %s: %v", post.ID, err), "Posts")
	} else if err := ctx.Client.Reddit.DistinguishAndSticky(ctx.Ctx, comment.FullID); err != nil {
		logger.Warn(fmt.Sprintf("Could not sticky the default comment of %s: %v", post.ID, err), "Posts")
	} else {
		logger.Info("Default comment added to "+post.ID, "Posts")
	}

	by := telegram.DisplayName(ctx.From())
	if err := ctx.Announce(source, "Post creato: "+post.Shortlink()+" (da: "+by+")"); err != nil {
		logger.Warn("Could not announce post "+post.ID+": "+err.Error(), "Posts")
	}

	ctx.Publish("post_created", PostEvent{
		PostID:    post.ID,
		Title:     post.Title,
		Shortlink: post.Shortlink(),
		By:        by,
		Source:    source,
	})
}
