// Package mod - /delrule command
package mod

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/models"
	"github.com/PancyStudios/MarvinGo/pkg/reddit"
	"github.com/PancyStudios/MarvinGo/pkg/telegram"
)

// RemovalEvent is published when a post is removed for a rule violation
type RemovalEvent struct {
	PostID string `json:"postId"`
	URL    string `json:"url"`
	Rule   int    `json:"rule"`
	Note   string `json:"note,omitempty"`
	By     string `json:"by"`
}

func createDelRuleCommand() *bot.Command {
	return bot.NewCommand(
		"delrule",
		"Rimuove un post citando la regola violata: /delrule <numero regola> <note>",
		"mod",
		delRuleHandler,
	).InGroupOnly().AsAdmin()
}

// delRuleHandler removes and locks a post, explaining the rule in a comment.
// The link comes from the replied message or, without a reply, from the
// command itself, right before the rule number.
func delRuleHandler(ctx *bot.CommandContext) (bot.Result, error) {
	replied := ctx.Replied()
	args := ctx.Args()

	var link string
	var ok bool
	if replied != nil {
		if link, ok = telegram.LastURL(replied); !ok {
			return bot.Reject("Se rispondi ad un messaggio per eliminare un post, il messaggio a cui rispondi deve contenere un link"), nil
		}
	} else {
		if link, ok = telegram.LastURL(ctx.Message); !ok {
			return bot.Reject("Il messaggio originale deve contenere una URL o rispondere ad un messaggio con una URL"), nil
		}
		args = withoutLink(args, link)
	}

	id, err := reddit.PostIDFromURL(link)
	if err != nil {
		return bot.Reject("Il link a cui hai risposto non è un link di reddit valido"), nil
	}

	if len(args) == 0 {
		return bot.Reject("Non hai fornito il numero di regola per rimuovere il post..."), nil
	}
	number, err := strconv.Atoi(args[0])
	if err != nil {
		return bot.Reject("Hai fornito un numero di regola non valido... Utilizza il comando con /delrule <numero regola> <note(opzionale)>"), nil
	}
	rule, ok := ctx.Client.Content.Rule(number)
	if !ok {
		return bot.Reject("Hai fornito un numero di regola non presente nella lista..."), nil
	}
	note := strings.Join(args[1:], " ")

	post, err := ctx.Client.Reddit.Post(ctx.Ctx, id)
	if err != nil {
		return bot.Result{}, err
	}
	subreddit := ctx.Client.Reddit.Subreddit()
	if !reddit.SameSubreddit(post.Subreddit, subreddit) {
		return bot.Reject("Non puoi cancellare post che non appartengono al subreddit: " + subreddit), nil
	}

	comment, err := ctx.Client.Reddit.Reply(ctx.Ctx, post.FullID, removalComment(rule, note, subreddit))
	if err != nil {
		return bot.Result{}, err
	}
	if err := ctx.Client.Reddit.DistinguishAndSticky(ctx.Ctx, comment.FullID); err != nil {
		logger.Warn(fmt.Sprintf("Could not sticky the removal comment of %s: %v", post.ID, err), "Mod")
	}
	if err := ctx.Client.Reddit.Remove(ctx.Ctx, post.FullID); err != nil {
		return bot.Result{}, err
	}
	if err := ctx.Client.Reddit.Lock(ctx.Ctx, post.FullID); err != nil {
		return bot.Result{}, err
	}

	if replied != nil {
		ctx.Retract(replied.MessageID)
	}
	ctx.Retract(ctx.Message.MessageID)

	by := telegram.DisplayName(ctx.From())
	ctx.NotifyAdmins("Il post (" + link + ") è stato cancellato! (da: " + by + ")")
	ctx.Audit(models.RecordPostRemoved, post.FullID, strings.TrimSpace(rule+" "+note))
	ctx.Publish("post_removed", RemovalEvent{PostID: post.ID, URL: link, Rule: number, Note: note, By: by})

	logger.Info(fmt.Sprintf("Post with id: %s has been deleted from Telegram", id), "Mod")
	return bot.Accept(), nil
}

// removalComment is the moderator explanation stickied on a removed post
func removalComment(rule, note, subreddit string) string {
	var b strings.Builder
	b.WriteString("Il tuo post è stato rimosso per la violazione del seguente articolo del regolamento:\n\n")
	b.WriteString("* " + rule + "\n\n")
	if len(note) > 1 {
		b.WriteString(note + "\n\n")
	}
	b.WriteString("Se hai dubbi o domande, ti preghiamo di inviare un messaggio in ")
	b.WriteString("[modmail](https://www.reddit.com/message/compose?to=%2Fr%2F" + subreddit + ").\n\n")
	return b.String()
}

// withoutLink drops the words of args that are link
func withoutLink(args []string, link string) []string {
	out := args[:0:0]
	for _, a := range args {
		if a != link {
			out = append(out, a)
		}
	}
	return out
}
