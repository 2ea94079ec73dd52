package telegram

import (
	"sort"
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// URLs returns the text of every "url" entity of msg, in order.
// Entity offsets count UTF-16 code units.
func URLs(msg *tgbotapi.Message) []string {
	if msg == nil {
		return nil
	}

	text, entities := msg.Text, msg.Entities
	if text == "" {
		text, entities = msg.Caption, msg.CaptionEntities
	}

	var units []uint16
	var urls []string
	for _, e := range entities {
		if e.Type != "url" {
			continue
		}
		if units == nil {
			units = utf16.Encode([]rune(text))
		}
		end := e.Offset + e.Length
		if e.Offset < 0 || end > len(units) || e.Length <= 0 {
			continue
		}
		urls = append(urls, string(utf16.Decode(units[e.Offset:end])))
	}
	return urls
}

// LastURL is the last link of msg
func LastURL(msg *tgbotapi.Message) (string, bool) {
	urls := URLs(msg)
	if len(urls) == 0 {
		return "", false
	}
	return urls[len(urls)-1], true
}

// DisplayName is "@username" when the user has one, the full name otherwise
func DisplayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return FullName(u)
}

// FullName joins first and last name
func FullName(u *tgbotapi.User) string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Mention prefixes text so that it reaches u when posted in a group
func Mention(u *tgbotapi.User, text string) string {
	return MentionPrefix(u) + "\n" + text
}

// MentionPrefix tags u. Users without a username are asked to set one.
func MentionPrefix(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return "[" + FullName(u) + ", imposta un username!]"
}

// CommandArgs returns the words following the command in msg
func CommandArgs(msg *tgbotapi.Message) []string {
	return strings.Fields(msg.CommandArguments())
}

// ArgumentsMarkdown is the text following the command of msg with its
// formatting rewritten as Reddit markdown
func ArgumentsMarkdown(msg *tgbotapi.Message) string {
	if msg == nil || !msg.IsCommand() {
		return ""
	}

	units := utf16.Encode([]rune(msg.Text))
	cmd := msg.Entities[0]
	start := cmd.Offset + cmd.Length
	if start < len(units) && (units[start] == ' ' || units[start] == '\n') {
		start++
	}
	if start >= len(units) {
		return ""
	}

	var shifted []tgbotapi.MessageEntity
	for _, e := range msg.Entities {
		if e.Offset < start {
			continue
		}
		e.Offset -= start
		shifted = append(shifted, e)
	}
	return strings.TrimSpace(RedditMarkdown(string(utf16.Decode(units[start:])), shifted))
}

// RedditMarkdown rewrites the formatting entities of text as Reddit markdown.
// Entities Reddit cannot render are dropped and their text kept.
func RedditMarkdown(text string, entities []tgbotapi.MessageEntity) string {
	units := utf16.Encode([]rune(text))

	spans := make([]tgbotapi.MessageEntity, 0, len(entities))
	for _, e := range entities {
		if _, _, ok := markers(e); !ok {
			continue
		}
		if e.Offset < 0 || e.Length <= 0 || e.Offset+e.Length > len(units) {
			continue
		}
		spans = append(spans, e)
	}
	if len(spans) == 0 {
		return text
	}
	// outer entities first when two start together
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Offset != spans[j].Offset {
			return spans[i].Offset < spans[j].Offset
		}
		return spans[i].Length > spans[j].Length
	})

	var b strings.Builder
	last := 0
	flush := func(pos int) {
		if pos > last {
			b.WriteString(string(utf16.Decode(units[last:pos])))
			last = pos
		}
	}

	var open []tgbotapi.MessageEntity
	next := 0
	for pos := 0; pos <= len(units); pos++ {
		for len(open) > 0 {
			top := open[len(open)-1]
			if top.Offset+top.Length > pos {
				break
			}
			flush(pos)
			_, closer, _ := markers(top)
			b.WriteString(closer)
			open = open[:len(open)-1]
		}
		for next < len(spans) && spans[next].Offset == pos {
			flush(pos)
			opener, _, _ := markers(spans[next])
			b.WriteString(opener)
			open = append(open, spans[next])
			next++
		}
	}
	flush(len(units))
	return b.String()
}

func markers(e tgbotapi.MessageEntity) (opener, closer string, ok bool) {
	switch e.Type {
	case "bold":
		return "**", "**", true
	case "italic":
		return "*", "*", true
	case "strikethrough":
		return "~~", "~~", true
	case "code":
		return "`", "`", true
	case "pre":
		return "\n```\n", "\n```\n", true
	case "spoiler":
		return ">!", "!<", true
	case "text_link":
		if e.URL == "" {
			return "", "", false
		}
		return "[", "](" + e.URL + ")", true
	}
	return "", "", false
}
