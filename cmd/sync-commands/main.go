// Package main provides a utility to sync the Telegram command list.
// This removes stale commands and ensures only currently-defined commands are shown by clients.
//
// Usage:
//
//	go run cmd/sync-commands/main.go [options]
//
// Options:
//
//	-list   List the commands currently published
//	-clean  Remove all commands without publishing new ones
//	-sync   Publish the current commands - default behavior
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/PancyStudios/MarvinGo/internal/commands"
	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/config"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// commandAPI is the part of the Telegram client the utility drives
type commandAPI interface {
	Commands(ctx context.Context) ([]tgbotapi.BotCommand, error)
	SetCommands(ctx context.Context, cmds []tgbotapi.BotCommand) error
	DeleteCommands(ctx context.Context) error
}

func main() {
	// Parse command line flags
	listCmd := flag.Bool("list", false, "List the published commands")
	cleanCmd := flag.Bool("clean", false, "Remove all commands without publishing new ones")
	syncCmd := flag.Bool("sync", false, "Sync commands (remove stale, publish current)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init("")
	defer log.Close()

	logger.System("Starting the command sync utility...", "SyncCommands")

	tg, err := telegram.New(cfg.TelegramToken, cfg.TelegramRate)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Telegram client: %v", err), "SyncCommands")
		os.Exit(1)
	}
	logger.Success("Connected to Telegram as @"+tg.Self().UserName, "SyncCommands")

	// Register commands to know what we should have
	client := bot.NewClient(bot.Options{Config: cfg})
	commands.RegisterAll(client)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch {
	case *listCmd:
		err = listCommands(ctx, tg)
	case *cleanCmd:
		err = cleanCommands(ctx, tg)
	case *syncCmd:
		err = syncCommands(ctx, tg, client.BotCommands())
	default:
		err = syncCommands(ctx, tg, client.BotCommands())
	}
	if err != nil {
		logger.Error(err.Error(), "SyncCommands")
		os.Exit(1)
	}

	logger.Success("Operation completed", "SyncCommands")
}

// listCommands logs the commands currently published
func listCommands(ctx context.Context, api commandAPI) error {
	logger.Info("Listing published commands...", "SyncCommands")

	cmds, err := api.Commands(ctx)
	if err != nil {
		return fmt.Errorf("error fetching commands: %w", err)
	}
	if len(cmds) == 0 {
		logger.Info("No commands published", "SyncCommands")
		return nil
	}

	logger.Info(fmt.Sprintf("Commands found: %d", len(cmds)), "SyncCommands")
	for i, cmd := range cmds {
		logger.Info(fmt.Sprintf("  %d. /%s - %s", i+1, cmd.Command, cmd.Description), "SyncCommands")
	}
	return nil
}

// cleanCommands removes every published command
func cleanCommands(ctx context.Context, api commandAPI) error {
	logger.Info("Removing all commands...", "SyncCommands")
	if err := api.DeleteCommands(ctx); err != nil {
		return fmt.Errorf("error removing commands: %w", err)
	}
	logger.Success("All commands removed", "SyncCommands")
	return nil
}

// syncCommands publishes want, logging what changes
func syncCommands(ctx context.Context, api commandAPI, want []tgbotapi.BotCommand) error {
	logger.Info("Syncing commands...", "SyncCommands")

	current, err := api.Commands(ctx)
	if err != nil {
		return fmt.Errorf("error fetching commands: %w", err)
	}

	added, removed := diffCommands(current, want)
	for _, name := range removed {
		logger.Info("Removing stale command: /"+name, "SyncCommands")
	}
	for _, name := range added {
		logger.Info("Adding command: /"+name, "SyncCommands")
	}

	if err := api.SetCommands(ctx, want); err != nil {
		return fmt.Errorf("error publishing commands: %w", err)
	}
	logger.Success(fmt.Sprintf("Published %d commands", len(want)), "SyncCommands")
	return nil
}

// diffCommands returns the names only in want and the names only in current
func diffCommands(current, want []tgbotapi.BotCommand) (added, removed []string) {
	have := make(map[string]bool, len(current))
	for _, c := range current {
		have[c.Command] = true
	}
	keep := make(map[string]bool, len(want))
	for _, c := range want {
		keep[c.Command] = true
		if !have[c.Command] {
			added = append(added, c.Command)
		}
	}
	for _, c := range current {
		if !keep[c.Command] {
			removed = append(removed, c.Command)
		}
	}
	return added, removed
}
