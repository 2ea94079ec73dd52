package posts

import (
	"unicode/utf8"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
)

const minTitleLength = 6

func createPostTextCommand() *bot.Command {
	return bot.NewCommand(
		"posttext",
		"Pubblica sul subreddit il messaggio a cui rispondi con il titolo indicato",
		"posts",
		postTextHandler,
	).InGroupOnly()
}

// postTextHandler submits the replied message as a self post
func postTextHandler(ctx *bot.CommandContext) (bot.Result, error) {
	replied := ctx.Replied()
	if replied == nil {
		return bot.Reject("Per usare /posttext devi rispondere ad un messaggio"), nil
	}

	title := ctx.ArgText()
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		return bot.Reject("Utilizzando il comando, aggiungi un titolo al post:\n/posttext <titolo>"), nil
	case n < minTitleLength:
		return bot.Reject("Serve un titolo più lungo! Riprova"), nil
	}

	body := replied.Text
	if body == "" {
		body = replied.Caption
	}

	post, err := ctx.Client.Reddit.SubmitText(ctx.Ctx, postTitle(ctx, replied.From, title), body)
	if err != nil {
		return bot.Result{}, err
	}

	announcePost(ctx, post, replied.MessageID)
	logger.Info("New text-post submitted: "+post.ID, "Posts")
	return bot.Accept(), nil
}
