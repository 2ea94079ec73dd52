// Package config provides configuration management for the bot.
// It loads environment variables (optionally from a .env file) and the content
// files the moderators edit, and makes them available throughout the application.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Telegram
	TelegramToken     string  `env:"TELEGRAM_TOKEN"`
	AuthorizedGroupID int64   `env:"AUTHORIZED_GROUP_ID"`
	AdminGroupID      int64   `env:"ADMIN_GROUP_ID"`
	TelegramGroup     string  `env:"TG_GROUP"`
	TelegramRate      float64 `env:"TELEGRAM_RATE" envDefault:"25"`

	// Reddit
	RedditClientID     string `env:"REDDIT_CLIENT_ID"`
	RedditClientSecret string `env:"REDDIT_CLIENT_SECRET"`
	RedditUsername     string `env:"REDDIT_USERNAME"`
	RedditPassword     string `env:"REDDIT_PASSWORD"`
	RedditUserAgent    string `env:"REDDIT_USER_AGENT" envDefault:"telegram:marvin-go:v1.0"`
	Subreddit          string `env:"REDDIT_SUBREDDIT"`
	TitlePrefix        string `env:"REDDIT_TITLE_PREFIX"`
	RulesLink          string `env:"RULES_LINK" envDefault:"https://www.reddit.com/r/ItalyInformatica/wiki/telegramrules"`

	// Moderation
	FloodTimeframe       time.Duration `env:"FLOOD_TIMEFRAME" envDefault:"10s"`
	FloodCountLimit      int           `env:"FLOOD_COUNT_LIMIT" envDefault:"5"`
	GraceDelay           time.Duration `env:"GRACE_DELAY" envDefault:"5s"`
	BlacklistDeleteDelay time.Duration `env:"BLACKLIST_DELETE_DELAY" envDefault:"0s"`
	RecheckDelayed       bool          `env:"RECHECK_DELAYED" envDefault:"false"`

	// Content files
	ContentDir string `env:"CONTENT_DIR" envDefault:"content"`
	LogsDir    string `env:"LOGS_DIR" envDefault:"logs"`

	// MongoDB
	MongoDBURL string `env:"MONGODB_URL" envDefault:"mongodb://localhost:27017"`
	DBName     string `env:"DB_NAME" envDefault:"Marvin"`

	// MQTT
	MQTTHost     string `env:"MQTT_HOST" envDefault:"localhost"`
	MQTTPort     string `env:"MQTT_PORT" envDefault:"1883"`
	MQTTUser     string `env:"MQTT_USER"`
	MQTTPassword string `env:"MQTT_PASSWORD"`

	// Web Server
	Port string `env:"PORT" envDefault:"3000"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
}

var (
	Version   = "Dev-Local"
	BuildTime = "Today"
)

// cfg holds the global configuration instance
var (
	cfg     *Config
	cfgErr  error
	cfgOnce sync.Once
)

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgErr = nil
	cfgOnce = sync.Once{}
}

// loadConfig performs the actual configuration loading
func loadConfig() {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	c := &Config{}
	if err := env.Parse(c); err != nil {
		cfgErr = errors.NewConfigurationError("env", err.Error())
	}
	cfg = c
}

// Load initializes the configuration from environment variables
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, cfgErr
}

// Get returns the current configuration
func Get() *Config {
	cfgOnce.Do(loadConfig)
	return cfg
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// MQTTBroker returns the tcp URL of the MQTT broker
func (c *Config) MQTTBroker() string {
	return fmt.Sprintf("tcp://%s:%s", c.MQTTHost, c.MQTTPort)
}

// Validate checks the values the bot cannot start without.
// It returns a *errors.ConfigurationError naming the first bad field.
func (c *Config) Validate() error {
	switch {
	case c.TelegramToken == "":
		return errors.NewConfigurationError("TELEGRAM_TOKEN", "is required")
	case c.AuthorizedGroupID == 0:
		return errors.NewConfigurationError("AUTHORIZED_GROUP_ID", "is required")
	case c.Subreddit == "":
		return errors.NewConfigurationError("REDDIT_SUBREDDIT", "is required")
	case c.FloodTimeframe <= 0:
		return errors.NewConfigurationError("FLOOD_TIMEFRAME", "must be positive")
	case c.FloodCountLimit <= 0:
		return errors.NewConfigurationError("FLOOD_COUNT_LIMIT", "must be positive")
	case c.GraceDelay < 0:
		return errors.NewConfigurationError("GRACE_DELAY", "must not be negative")
	case c.BlacklistDeleteDelay < 0:
		return errors.NewConfigurationError("BLACKLIST_DELETE_DELAY", "must not be negative")
	case c.TelegramRate <= 0:
		return errors.NewConfigurationError("TELEGRAM_RATE", "must be positive")
	}
	return nil
}
