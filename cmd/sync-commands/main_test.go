package main

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/PancyStudios/MarvinGo/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	published []tgbotapi.BotCommand
	deleted   bool
}

func (f *fakeAPI) Commands(context.Context) ([]tgbotapi.BotCommand, error) {
	return f.published, nil
}

func (f *fakeAPI) SetCommands(_ context.Context, cmds []tgbotapi.BotCommand) error {
	f.published = cmds
	return nil
}

func (f *fakeAPI) DeleteCommands(context.Context) error {
	f.published = nil
	f.deleted = true
	return nil
}

func TestMain(m *testing.M) {
	logger.Init("").SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestDiffCommands(t *testing.T) {
	current := []tgbotapi.BotCommand{{Command: "help"}, {Command: "ping"}}
	want := []tgbotapi.BotCommand{{Command: "help"}, {Command: "comment"}}

	added, removed := diffCommands(current, want)

	assert.Equal(t, []string{"comment"}, added)
	assert.Equal(t, []string{"ping"}, removed)
}

func TestSyncAndClean(t *testing.T) {
	api := &fakeAPI{published: []tgbotapi.BotCommand{{Command: "ping"}}}
	want := []tgbotapi.BotCommand{{Command: "help", Description: "Elenco dei comandi"}}

	require.NoError(t, syncCommands(context.Background(), api, want))
	assert.Equal(t, want, api.published)
	require.NoError(t, listCommands(context.Background(), api))

	require.NoError(t, cleanCommands(context.Background(), api))
	assert.True(t, api.deleted)
	assert.Empty(t, api.published)
}
