package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func urlEntity(offset, length int) tgbotapi.MessageEntity {
	return tgbotapi.MessageEntity{Type: "url", Offset: offset, Length: length}
}

func TestURLs(t *testing.T) {
	msg := &tgbotapi.Message{
		Text: "guarda https://example.org e poi redd.it/abc123",
		Entities: []tgbotapi.MessageEntity{
			urlEntity(7, 19),
			{Type: "bold", Offset: 0, Length: 6},
			urlEntity(33, 14),
		},
	}
	assert.Equal(t, []string{"https://example.org", "redd.it/abc123"}, URLs(msg))
}

func TestURLsCountsUTF16Units(t *testing.T) {
	// the emoji is two UTF-16 code units, "è" is one
	msg := &tgbotapi.Message{
		Text:     "😀 è qui: https://go.dev",
		Entities: []tgbotapi.MessageEntity{urlEntity(10, 14)},
	}
	assert.Equal(t, []string{"https://go.dev"}, URLs(msg))
}

func TestURLsFromCaption(t *testing.T) {
	msg := &tgbotapi.Message{
		Caption:         "foto: https://i.redd.it/x.png",
		CaptionEntities: []tgbotapi.MessageEntity{urlEntity(6, 23)},
	}
	assert.Equal(t, []string{"https://i.redd.it/x.png"}, URLs(msg))
}

func TestURLsIgnoresBadEntities(t *testing.T) {
	msg := &tgbotapi.Message{
		Text:     "corto",
		Entities: []tgbotapi.MessageEntity{urlEntity(2, 40), urlEntity(-1, 2)},
	}
	assert.Empty(t, URLs(msg))
	assert.Empty(t, URLs(nil))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "@mario", DisplayName(&tgbotapi.User{UserName: "mario", FirstName: "Mario"}))
	assert.Equal(t, "Mario Rossi", DisplayName(&tgbotapi.User{FirstName: "Mario", LastName: "Rossi"}))
	assert.Equal(t, "Mario", DisplayName(&tgbotapi.User{FirstName: "Mario"}))
	assert.Equal(t, "", DisplayName(nil))
}

func TestMention(t *testing.T) {
	assert.Equal(t, "@mario\nciao", Mention(&tgbotapi.User{UserName: "mario"}, "ciao"))
	assert.Equal(t, "[Mario Rossi, imposta un username!]\nciao",
		Mention(&tgbotapi.User{FirstName: "Mario", LastName: "Rossi"}, "ciao"))
}

func TestCommandArgs(t *testing.T) {
	msg := &tgbotapi.Message{
		Text:     "/delrule 3  post fuori tema",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 8}},
	}
	assert.Equal(t, []string{"3", "post", "fuori", "tema"}, CommandArgs(msg))
}

func TestRedditMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		entities []tgbotapi.MessageEntity
		want     string
	}{
		{"plain", "nessuna formattazione", nil, "nessuna formattazione"},
		{
			"bold and italic",
			"molto importante davvero",
			[]tgbotapi.MessageEntity{{Type: "bold", Offset: 0, Length: 5}, {Type: "italic", Offset: 6, Length: 10}},
			"**molto** *importante* davvero",
		},
		{
			"nested",
			"tutto grassetto",
			[]tgbotapi.MessageEntity{{Type: "italic", Offset: 6, Length: 9}, {Type: "bold", Offset: 0, Length: 15}},
			"**tutto *grassetto***",
		},
		{
			"text link",
			"leggi qui",
			[]tgbotapi.MessageEntity{{Type: "text_link", Offset: 6, Length: 3, URL: "https://go.dev"}},
			"leggi [qui](https://go.dev)",
		},
		{
			"utf16 offsets",
			"😀 codice",
			[]tgbotapi.MessageEntity{{Type: "code", Offset: 3, Length: 6}},
			"😀 `codice`",
		},
		{
			"unsupported entities keep their text",
			"@mario https://go.dev",
			[]tgbotapi.MessageEntity{{Type: "mention", Offset: 0, Length: 6}, urlEntity(7, 14)},
			"@mario https://go.dev",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedditMarkdown(tt.text, tt.entities))
		})
	}
}

func TestArgumentsMarkdown(t *testing.T) {
	msg := &tgbotapi.Message{
		Text: "/comment ottimo lavoro post",
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: 8},
			{Type: "bold", Offset: 9, Length: 6},
			{Type: "strikethrough", Offset: 16, Length: 6},
		},
	}
	assert.Equal(t, "**ottimo** ~~lavoro~~ post", ArgumentsMarkdown(msg))

	assert.Empty(t, ArgumentsMarkdown(&tgbotapi.Message{
		Text:     "/comment",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 8}},
	}))
	assert.Empty(t, ArgumentsMarkdown(&tgbotapi.Message{Text: "non un comando"}))
}
