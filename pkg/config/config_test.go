package config

import (
	"os"
	"testing"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
)

func TestLoad(t *testing.T) {
	// Set up test environment variables
	t.Setenv("TELEGRAM_TOKEN", "test-token")
	t.Setenv("AUTHORIZED_GROUP_ID", "-1001234")
	t.Setenv("PORT", "3001")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("FLOOD_TIMEFRAME", "15s")
	t.Setenv("FLOOD_COUNT_LIMIT", "3")

	// Reset global config
	resetForTesting()

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if config.TelegramToken != "test-token" {
		t.Errorf("TelegramToken = %v, want %v", config.TelegramToken, "test-token")
	}

	if config.AuthorizedGroupID != -1001234 {
		t.Errorf("AuthorizedGroupID = %v, want %v", config.AuthorizedGroupID, -1001234)
	}

	if config.Port != "3001" {
		t.Errorf("Port = %v, want %v", config.Port, "3001")
	}

	if config.Environment != "test" {
		t.Errorf("Environment = %v, want %v", config.Environment, "test")
	}

	if config.FloodTimeframe != 15*time.Second {
		t.Errorf("FloodTimeframe = %v, want %v", config.FloodTimeframe, 15*time.Second)
	}

	if config.FloodCountLimit != 3 {
		t.Errorf("FloodCountLimit = %v, want %v", config.FloodCountLimit, 3)
	}
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("FLOOD_COUNT_LIMIT", "five")
	resetForTesting()
	defer resetForTesting()

	_, err := Load()
	if !errors.IsConfiguration(err) {
		t.Fatalf("Load() error = %v, want a configuration error", err)
	}
}

func TestIsProd(t *testing.T) {
	resetForTesting()
	t.Setenv("ENVIRONMENT", "prod")
	config, _ := Load()

	if !config.IsProd() {
		t.Error("IsProd() should return true when environment is 'prod'")
	}

	resetForTesting()
	t.Setenv("ENVIRONMENT", "dev")
	config, _ = Load()

	if config.IsProd() {
		t.Error("IsProd() should return false when environment is not 'prod'")
	}
}

func TestGet(t *testing.T) {
	resetForTesting()

	// Get should create a new config if none exists
	config := Get()
	if config == nil {
		t.Fatal("Get() returned nil")
	}

	// Get should return the same config on subsequent calls
	config2 := Get()
	if config != config2 {
		t.Error("Get() should return the same config on subsequent calls")
	}
}

func TestDefaultValues(t *testing.T) {
	for _, key := range []string{
		"MONGODB_URL", "DB_NAME", "MQTT_HOST", "MQTT_PORT", "PORT", "ENVIRONMENT",
		"FLOOD_TIMEFRAME", "FLOOD_COUNT_LIMIT", "GRACE_DELAY", "BLACKLIST_DELETE_DELAY",
		"RECHECK_DELAYED", "CONTENT_DIR",
	} {
		os.Unsetenv(key)
	}

	resetForTesting()
	config, _ := Load()

	// Check default values
	if config.MongoDBURL != "mongodb://localhost:27017" {
		t.Errorf("MongoDBURL default = %v, want %v", config.MongoDBURL, "mongodb://localhost:27017")
	}

	if config.DBName != "Marvin" {
		t.Errorf("DBName default = %v, want %v", config.DBName, "Marvin")
	}

	if config.MQTTBroker() != "tcp://localhost:1883" {
		t.Errorf("MQTTBroker() default = %v, want %v", config.MQTTBroker(), "tcp://localhost:1883")
	}

	if config.Port != "3000" {
		t.Errorf("Port default = %v, want %v", config.Port, "3000")
	}

	if config.Environment != "dev" {
		t.Errorf("Environment default = %v, want %v", config.Environment, "dev")
	}

	if config.FloodTimeframe != 10*time.Second || config.FloodCountLimit != 5 {
		t.Errorf("flood defaults = %v/%d, want 10s/5", config.FloodTimeframe, config.FloodCountLimit)
	}

	if config.GraceDelay != 5*time.Second {
		t.Errorf("GraceDelay default = %v, want %v", config.GraceDelay, 5*time.Second)
	}

	if config.BlacklistDeleteDelay != 0 || config.RecheckDelayed {
		t.Error("blacklisted content should be retracted immediately without a delayed recheck by default")
	}

	if config.ContentDir != "content" {
		t.Errorf("ContentDir default = %v, want %v", config.ContentDir, "content")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			TelegramToken:     "token",
			AuthorizedGroupID: -100,
			Subreddit:         "ItalyInformatica",
			FloodTimeframe:    10 * time.Second,
			FloodCountLimit:   5,
			GraceDelay:        5 * time.Second,
			TelegramRate:      25,
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	cases := map[string]func(c *Config){
		"TELEGRAM_TOKEN":         func(c *Config) { c.TelegramToken = "" },
		"AUTHORIZED_GROUP_ID":    func(c *Config) { c.AuthorizedGroupID = 0 },
		"REDDIT_SUBREDDIT":       func(c *Config) { c.Subreddit = "" },
		"FLOOD_TIMEFRAME":        func(c *Config) { c.FloodTimeframe = 0 },
		"FLOOD_COUNT_LIMIT":      func(c *Config) { c.FloodCountLimit = 0 },
		"GRACE_DELAY":            func(c *Config) { c.GraceDelay = -time.Second },
		"BLACKLIST_DELETE_DELAY": func(c *Config) { c.BlacklistDeleteDelay = -time.Second },
		"TELEGRAM_RATE":          func(c *Config) { c.TelegramRate = 0 },
	}

	for field, mutate := range cases {
		c := valid()
		mutate(c)

		var cfgErr *errors.ConfigurationError
		if err := c.Validate(); !errors.As(err, &cfgErr) {
			t.Errorf("%s: Validate() = %v, want a configuration error", field, err)
			continue
		}
		if cfgErr.Field != field {
			t.Errorf("Validate() field = %v, want %v", cfgErr.Field, field)
		}
	}
}
