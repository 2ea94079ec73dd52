package posts

import (
	"net/url"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/telegram"
)

func createPostLinkCommand() *bot.Command {
	return bot.NewCommand(
		"postlink",
		"Pubblica sul subreddit il link a cui rispondi (E per i contenuti in inglese)",
		"posts",
		postLinkHandler,
	).InGroupOnly()
}

// postLinkHandler submits the single link of the replied message
func postLinkHandler(ctx *bot.CommandContext) (bot.Result, error) {
	replied := ctx.Replied()
	if replied == nil {
		return bot.Reject("Per usare /postlink devi rispondere ad un messaggio"), nil
	}

	urls := telegram.URLs(replied)
	switch {
	case len(urls) == 0:
		return bot.Reject("Il messaggio originale deve contenere un URL"), nil
	case len(urls) > 1:
		return bot.Reject("Il messaggio originale deve contenere un **solo** URL"), nil
	}

	link, ok := normalizeLink(urls[0])
	if !ok {
		return bot.Reject("Il messaggio originale deve contenere un link HTTP(S)"), nil
	}

	title, err := ctx.Client.Titles.Title(ctx.Ctx, link)
	if err != nil || title == "" {
		if err != nil {
			logger.Warn("Could not fetch title of "+link+": "+err.Error(), "Posts")
		}
		return bot.Reject("Non sono riuscito a trovare il titolo della pagina"), nil
	}

	tag := ""
	if args := ctx.Args(); len(args) > 0 && args[0] == "E" {
		tag = "[ENG] "
	}

	post, err := ctx.Client.Reddit.SubmitLink(ctx.Ctx, postTitle(ctx, replied.From, tag+title), link)
	if err != nil {
		return bot.Result{}, err
	}

	announcePost(ctx, post, replied.MessageID)
	logger.Info("New link-post submitted: "+post.ID, "Posts")
	return bot.Accept(), nil
}

// normalizeLink defaults a missing scheme to https and refuses anything
// that is not http(s)
func normalizeLink(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "":
		return "https://" + raw, true
	case "http", "https":
		return raw, true
	default:
		return "", false
	}
}
