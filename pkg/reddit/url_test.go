package reddit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostIDFromURL(t *testing.T) {
	fixtures := []struct {
		url string
		id  string
	}{
		{"https://www.reddit.com/r/ItalyInformatica/comments/abc123/titolo_del_post/", "abc123"},
		{"https://old.reddit.com/r/ItalyInformatica/comments/abc123", "abc123"},
		{"https://reddit.com/comments/x9y8z7", "x9y8z7"},
		{"www.reddit.com/r/ItalyInformatica/comments/q1w2e3/", "q1w2e3"},
		{"https://www.reddit.com/gallery/g4ll3r", "g4ll3r"},
		{"https://redd.it/abc123", "abc123"},
		{"redd.it/abc123", "abc123"},
	}
	for _, fix := range fixtures {
		id, err := PostIDFromURL(fix.url)
		assert.NoError(t, err, fix.url)
		assert.Equal(t, fix.id, id, fix.url)
	}
}

func TestPostIDFromURLRejects(t *testing.T) {
	for _, raw := range []string{
		"https://example.org/comments/abc123",
		"https://www.reddit.com/r/ItalyInformatica/",
		"https://www.reddit.com/r/ItalyInformatica/comments/",
		"https://redd.it/",
		"https://redd.it/ABC!",
		"https://notreddit.com/comments/abc123",
	} {
		_, err := PostIDFromURL(raw)
		assert.Error(t, err, raw)
	}
}

func TestSameSubreddit(t *testing.T) {
	assert.True(t, SameSubreddit("ItalyInformatica", "italyinformatica"))
	assert.True(t, SameSubreddit("r/ItalyInformatica", "ItalyInformatica"))
	assert.False(t, SameSubreddit("golang", "ItalyInformatica"))
}

func TestShortlinkAndCommentLink(t *testing.T) {
	assert.Equal(t, "https://redd.it/abc123", Post{ID: "abc123"}.Shortlink())
	assert.Equal(t, "https://www.reddit.com/r/x/comments/abc/_/def/",
		Comment{Permalink: "/r/x/comments/abc/_/def/"}.Link())
}
