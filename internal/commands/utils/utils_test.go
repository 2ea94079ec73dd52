package utils

import (
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/bot/bottest"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init("").SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestStartInPrivate(t *testing.T) {
	f := bottest.New(t)

	res := f.Run(createStartCommand(), bottest.Message(bottest.Member.ID, bottest.Member, "/start"))

	require.True(t, res.Accepted)
	sent := f.Chat.SentTo(bottest.Member.ID)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], projectURL)
}

func TestStartInGroupIsRetracted(t *testing.T) {
	f := bottest.New(t)
	msg := bottest.Message(bottest.GroupID, bottest.Member, "/start")

	res := f.Run(createStartCommand(), msg)

	assert.False(t, res.Accepted)
	assert.Empty(t, f.Chat.Sent())
	assert.Equal(t, []int64{int64(msg.MessageID)}, f.Chat.Deleted())
}

func TestHelpListsVisibleCommands(t *testing.T) {
	f := bottest.New(t)
	RegisterUtilsCommands(f.Client)
	msg := bottest.Message(bottest.GroupID, bottest.Member, "/help")

	res := f.Run(createHelpCommand(), msg)
	require.True(t, res.Accepted)

	sent := f.Chat.SentTo(bottest.Member.ID)
	require.Len(t, sent, 1)
	assert.True(t, strings.HasPrefix(sent[0], "Comandi disponibili:\n"))
	assert.Contains(t, sent[0], "/help - Elenco dei comandi\n")
	assert.Contains(t, sent[0], "/start - Informazioni sul bot\n")
	assert.NotContains(t, sent[0], "/stats")
	assert.Equal(t, []int64{int64(msg.MessageID)}, f.Chat.Deleted())
}

func TestStatsIsForAdmins(t *testing.T) {
	f := bottest.New(t)
	RegisterUtilsCommands(f.Client)

	res := f.Run(createStatsCommand(), bottest.Message(bottest.GroupID, bottest.Member, "/stats"))
	assert.Equal(t, "Spiacente, non sei un amministratore.", res.Reason)

	res = f.Run(createStatsCommand(), bottest.Message(bottest.GroupID, bottest.Admin, "/stats"))
	require.True(t, res.Accepted)

	sent := f.Chat.SentTo(bottest.Admin.ID)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Statistiche di Marvin")
	assert.Contains(t, sent[0], "Database: 🔴 | Non configurato")
	assert.Contains(t, sent[0], "Parole bandite: 0 (lista di 1)")
	assert.Contains(t, sent[0], "Comandi registrati: 4")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 secondi"},
		{45 * time.Second, "45 secondi"},
		{2*time.Hour + 5*time.Minute, "2 ore, 5 minuti"},
		{26*time.Hour + 3*time.Second, "1 giorni, 2 ore, 3 secondi"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestPingAnswersPrivately(t *testing.T) {
	f := bottest.New(t)
	msg := bottest.Message(bottest.GroupID, bottest.Member, "/ping")

	res := f.Run(createPingCommand(), msg)
	require.True(t, res.Accepted)

	sent := f.Chat.SentTo(bottest.Member.ID)
	require.Len(t, sent, 2)
	assert.Equal(t, "🏓 Pong!", sent[0])
	assert.True(t, strings.HasPrefix(sent[1], "Latenza: "))
	assert.Equal(t, []int64{int64(msg.MessageID)}, f.Chat.Deleted())
}
