package posts

import (
	"fmt"
	"strconv"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/models"
	"github.com/PancyStudios/MarvinGo/pkg/reddit"
	"github.com/PancyStudios/MarvinGo/pkg/telegram"
)

func createCommentCommand() *bot.Command {
	return bot.NewCommand(
		"comment",
		"Commenta il post di reddit a cui rispondi",
		"posts",
		commentHandler,
	).InGroupOnly()
}

// commentHandler posts the command text as a comment of the linked post
func commentHandler(ctx *bot.CommandContext) (bot.Result, error) {
	replied := ctx.Replied()
	if replied == nil {
		return bot.Reject("Per usare /comment devi rispondere ad un messaggio"), nil
	}

	link, ok := telegram.LastURL(replied)
	if !ok {
		return bot.Reject("Per usare questo comando devi rispondere ad un messaggio del bot contenente un link"), nil
	}

	content := ctx.ArgMarkdown()
	if content == "" {
		return bot.Reject(""), nil
	}

	id, err := reddit.PostIDFromURL(link)
	if err != nil {
		return bot.Reject("Il link a cui hai risposto non è un link di reddit valido"), nil
	}

	post, err := ctx.Client.Reddit.Post(ctx.Ctx, id)
	if err != nil {
		return bot.Result{}, err
	}
	if !reddit.SameSubreddit(post.Subreddit, ctx.Client.Reddit.Subreddit()) {
		return bot.Reject("Non puoi inviare commenti a post che non appartengono al subreddit: " + ctx.Client.Reddit.Subreddit()), nil
	}
	if post.Locked {
		return bot.Reject("Non puoi commentare un post lockato!"), nil
	}

	text := commentHeader(ctx) + content
	v, err := ctx.Screen(text)
	if err != nil {
		logger.Warn("Could not retract blacklisted comment: "+err.Error(), "Posts")
	}
	if !v.Accepted() {
		ctx.Audit(models.RecordBlacklisted, strconv.Itoa(ctx.Message.MessageID), v.Token)
		return bot.Blocked(), nil
	}

	comment, err := ctx.Client.Reddit.Reply(ctx.Ctx, post.FullID, text)
	if err != nil {
		return bot.Result{}, err
	}

	by := telegram.DisplayName(ctx.From())
	if err := ctx.Announce(replied.MessageID, "Commento aggiunto al post! (da: "+by+")\n"+comment.Link()); err != nil {
		logger.Warn("Could not announce comment: "+err.Error(), "Posts")
	}
	logger.Info(fmt.Sprintf("Comment added to post with id: %s", id), "Posts")
	return bot.Accept(), nil
}

// commentHeader links the comment back to the group message and its author
func commentHeader(ctx *bot.CommandContext) string {
	msgLink := fmt.Sprintf("https://t.me/%s/%d/", ctx.Client.Config.TelegramGroup, ctx.Message.MessageID)
	author := telegram.DisplayName(ctx.From())
	if u := ctx.From().UserName; u != "" {
		author = "[" + author + "](https://t.me/" + u + ")"
	}
	return "\\[[Telegram](" + msgLink + ") - " + author + "\\]  \n"
}
