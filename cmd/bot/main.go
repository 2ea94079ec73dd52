// Package main is the entry point for Marvin.
// It initializes all systems and starts the Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/PancyStudios/MarvinGo/internal/commands"
	"github.com/PancyStudios/MarvinGo/internal/events"
	"github.com/PancyStudios/MarvinGo/internal/relay"
	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/config"
	"github.com/PancyStudios/MarvinGo/pkg/database"
	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/models"
	"github.com/PancyStudios/MarvinGo/pkg/moderation"
	"github.com/PancyStudios/MarvinGo/pkg/mqtt"
	"github.com/PancyStudios/MarvinGo/pkg/reddit"
	"github.com/PancyStudios/MarvinGo/pkg/scraper"
	"github.com/PancyStudios/MarvinGo/pkg/telegram"
	"github.com/PancyStudios/MarvinGo/pkg/web"
)

// RejectionEvent is published for every message the gate rejects
type RejectionEvent struct {
	Scope  int64  `json:"scope"`
	Object int64  `json:"object"`
	Sender string `json:"sender"`
	Reason string `json:"reason"`
	Token  string `json:"token,omitempty"`
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.LogsDir)
	defer log.Close()

	logger.System(fmt.Sprintf("Starting Marvin %s (built %s)...", config.Version, config.BuildTime), "Main")
	logger.Info(fmt.Sprintf("Working directory: %s", getCurrentDir()), "Main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	content, err := config.LoadContent(cfg.ContentDir)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error loading content files: %v", err), "Main")
		os.Exit(1)
	}

	// Initialize Telegram client
	tg, err := telegram.Init(cfg.TelegramToken, cfg.TelegramRate)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Telegram client: %v", err), "Main")
		os.Exit(1)
	}
	defer tg.Stop()

	if cfg.AdminGroupID != 0 {
		log.SetAlertSink(logger.LevelError, func(level logger.LogLevel, prefix, message string) {
			_, _ = tg.SendMessage(context.Background(), cfg.AdminGroupID, logger.FormatAlert(level, prefix, message))
		})
	}

	// Initialize error handler
	errors.Init(func(title, message string) {
		if cfg.AdminGroupID != 0 {
			_, _ = tg.SendMessage(context.Background(), cfg.AdminGroupID, title+"\n"+message)
		}
	}, stop)

	// Initialize Reddit client
	rd, err := reddit.New(ctx, reddit.Credentials{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		Username:     cfg.RedditUsername,
		Password:     cfg.RedditPassword,
		UserAgent:    cfg.RedditUserAgent,
	}, cfg.Subreddit)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error logging in to Reddit: %v", err), "Main")
		os.Exit(1)
	}
	logger.Success("Logged in to Reddit as "+rd.Me(), "Main")

	// Initialize database
	db, err := database.Init(cfg.MongoDBURL, cfg.DBName)
	if err != nil {
		logger.Error(fmt.Sprintf("Error connecting to database: %v", err), "Main")
		// Continue without database, it will attempt to reconnect
	}
	defer func() {
		if err := db.Disconnect(); err != nil {
			logger.Warn("Error disconnecting from database: "+err.Error(), "Main")
		}
	}()
	audit := database.NewAuditStore(db)

	// Initialize MQTT
	mqttClientID := "marvin"
	if !cfg.IsProd() {
		mqttClientID = "marvin_canary"
	}
	mqttClient := mqtt.Init(cfg.MQTTBroker(), cfg.MQTTUser, cfg.MQTTPassword, mqttClientID)
	defer mqttClient.Destroy()

	// Moderation
	gate, err := newGate(cfg, content.Blacklist, tg)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error building the moderation gate: %v", err), "Main")
		os.Exit(1)
	}
	defer gate.Close()

	client := bot.NewClient(bot.Options{
		Config:  cfg,
		Content: content,
		Chat:    tg,
		Reddit:  rd,
		Titles:  scraper.New(filepath.Join(cfg.ContentDir, config.CookieFile)),
		Gate:    gate,
		Audit:   audit,
		Events:  mqttClient,
	})
	gate.SetExplain(client.Explain)

	gate.OnReject(func(ctx context.Context, ev moderation.Event, v moderation.Verdict) {
		if err := mqttClient.PublishEvent("rejected", RejectionEvent{
			Scope:  ev.Scope,
			Object: ev.Object,
			Sender: ev.Sender,
			Reason: string(v.Reason),
			Token:  v.Token,
		}); err != nil {
			logger.Debug("Could not publish rejection: "+err.Error(), "Main")
		}
		if v.Reason == moderation.ReasonRateLimited {
			rec := models.ModerationRecord{
				Kind:   models.RecordRateLimited,
				Scope:  ev.Scope,
				Actor:  ev.Mention,
				Target: strconv.FormatInt(ev.Object, 10),
				Reason: string(v.Reason),
			}
			if err := audit.Record(ctx, rec); err != nil {
				logger.Warn("Could not store audit record: "+err.Error(), "Main")
			}
		}
	})

	mqttClient.On("status", func(map[string]interface{}) (interface{}, error) {
		return gate.Stats(), nil
	})

	// Register commands and events
	commands.RegisterAll(client)
	events.RegisterAll(client)

	if err := tg.SetCommands(ctx, client.BotCommands()); err != nil {
		logger.Warn("Could not publish the command list: "+err.Error(), "Main")
	}

	// Relay subreddit posts to the groups
	go relay.New(rd, tg, relay.Options{
		AdminGroupID: cfg.AdminGroupID,
		GroupID:      cfg.AuthorizedGroupID,
		AutoPins:     content.AutoPins,
	}).Run(ctx)

	// Initialize web server
	webServer := web.Init(web.DefaultRateLimit)
	web.SetupAPIRoutes(webServer, web.Sources{
		StartTime: client.StartTime,
		Gate:      gate.Stats,
		Database:  db,
		Audit:     audit,
		MQTT:      mqttClient.IsConnected,
	})
	webServer.StartAsync(cfg.Port)

	logger.Success(fmt.Sprintf("Marvin started as @%s", tg.Self().UserName), "Main")

	client.Run(ctx, tg.Updates(ctx))

	logger.System("Shutting down Marvin...", "Main")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Error stopping the web server: "+err.Error(), "Main")
	}
}

// newGate builds the moderation gate from the configuration. The explanation
// hook is installed once the client exists.
func newGate(cfg *config.Config, words []string, tg *telegram.Client) (*moderation.Gate, error) {
	flood, err := moderation.NewRateWindow(moderation.RateWindowOptions{
		Timeframe:  cfg.FloodTimeframe,
		CountLimit: cfg.FloodCountLimit,
	})
	if err != nil {
		return nil, err
	}

	blacklist, err := moderation.NewSortedBlacklist(words)
	if err != nil {
		return nil, err
	}

	scheduler := moderation.NewScheduler(moderation.NewPermissionCache(0), tg.IsPrivileged, moderation.SchedulerOptions{
		RecheckDelayed: cfg.RecheckDelayed,
	})

	return moderation.NewGate(moderation.GateOptions{
		Flood:          flood,
		Blacklist:      blacklist,
		Scheduler:      scheduler,
		Retractor:      tg,
		GraceDelay:     cfg.GraceDelay,
		BlacklistDelay: cfg.BlacklistDeleteDelay,
	}), nil
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
