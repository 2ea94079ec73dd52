package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/models"
	"github.com/goccy/go-json"
)

// Content file names, relative to Config.ContentDir
const (
	BlacklistFile      = "words_blacklist.json"
	RulesFile          = "delete_post_rules.json"
	AutoPinFile        = "auto_pinned_posts.json"
	DefaultCommentFile = "defaultComment.txt"
	WelcomeFile        = "welcome_message.txt"
	CookieFile         = "cookies.json"
)

// Content holds the moderator-edited files. Every file is required.
type Content struct {
	Blacklist      []string
	Rules          map[int]string
	AutoPins       []models.AutoPinRule
	DefaultComment string
	WelcomeMessage string
}

// LoadContent reads and validates every content file under dir
func LoadContent(dir string) (*Content, error) {
	c := &Content{Rules: make(map[int]string)}

	var words models.WordsFile
	if err := readJSON(dir, BlacklistFile, &words); err != nil {
		return nil, err
	}
	c.Blacklist = words.Words

	var rules models.RulesFile
	if err := readJSON(dir, RulesFile, &rules); err != nil {
		return nil, err
	}
	for _, r := range rules.Rules {
		field := fmt.Sprintf("%s: rule %d", RulesFile, r.Number)
		if _, dup := c.Rules[r.Number]; dup {
			return nil, errors.NewConfigurationError(field, "duplicate rule number")
		}
		if strings.TrimSpace(r.Text) == "" {
			return nil, errors.NewConfigurationError(field, "empty rule text")
		}
		c.Rules[r.Number] = r.Text
	}

	if err := readJSON(dir, AutoPinFile, &c.AutoPins); err != nil {
		return nil, err
	}
	for i := range c.AutoPins {
		c.AutoPins[i].Text = strings.ToLower(c.AutoPins[i].Text)
		for j, u := range c.AutoPins[i].Users {
			c.AutoPins[i].Users[j] = strings.ToLower(u)
		}
	}

	var err error
	if c.DefaultComment, err = readText(dir, DefaultCommentFile); err != nil {
		return nil, err
	}
	if c.WelcomeMessage, err = readText(dir, WelcomeFile); err != nil {
		return nil, err
	}

	return c, nil
}

// Rule returns the text of rule n
func (c *Content) Rule(n int) (string, bool) {
	text, ok := c.Rules[n]
	return text, ok
}

// RenderDefaultComment fills the default comment template. A zero msgID drops
// the message part of the Telegram link.
func (c *Content) RenderDefaultComment(msgID int, subreddit, group string) string {
	id := ""
	if msgID != 0 {
		id = "/" + strconv.Itoa(msgID)
	}
	return strings.NewReplacer(
		"{TG_MSG_ID}", id,
		"{SUBREDDIT}", subreddit,
		"{TG_GROUP}", group,
	).Replace(c.DefaultComment)
}

// RenderWelcome fills the welcome message template
func (c *Content) RenderWelcome(user, link string) string {
	return strings.NewReplacer("{USER}", user, "{LINK}", link).Replace(c.WelcomeMessage)
}

func readJSON(dir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return errors.NewConfigurationError(name, err.Error())
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.NewConfigurationError(name, err.Error())
	}
	return nil
}

func readText(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", errors.NewConfigurationError(name, err.Error())
	}
	return string(data), nil
}
