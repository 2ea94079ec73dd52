package bot_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/bot/bottest"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/moderation"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init("").SetOutput(io.Discard)
	os.Exit(m.Run())
}

func update(msg *tgbotapi.Message) tgbotapi.Update {
	return tgbotapi.Update{Message: msg}
}

func countingCommand(name string, calls *int) *bot.Command {
	return bot.NewCommand(name, "test", "test", func(ctx *bot.CommandContext) (bot.Result, error) {
		*calls++
		return bot.Accept(), nil
	})
}

func TestUnknownCommandIsRetractedLater(t *testing.T) {
	f := bottest.New(t)
	msg := bottest.Message(bottest.GroupID, bottest.Member, "/boh")

	f.Client.HandleUpdate(context.Background(), update(msg))

	assert.Equal(t, 1, f.Gate.Stats().PendingTasks)
	assert.Empty(t, f.Chat.Deleted())
	assert.Empty(t, f.Chat.Sent())
}

func TestGroupOnlyCommandOutsideGroup(t *testing.T) {
	f := bottest.New(t)
	calls := 0
	f.Client.CommandHandler.RegisterCommand(countingCommand("solo", &calls).InGroupOnly())

	msg := bottest.Message(bottest.OtherGroupID, bottest.Member, "/solo")
	f.Client.HandleUpdate(context.Background(), update(msg))

	assert.Zero(t, calls)
	assert.Equal(t, []int64{int64(msg.MessageID)}, f.Chat.Deleted())

	private := f.Chat.SentTo(bottest.Member.ID)
	require.Len(t, private, 1)
	assert.Contains(t, private[0], "solo nel gruppo autorizzato con id -1001 (italyinformatica), non in -3003")
}

func TestAdminGuard(t *testing.T) {
	f := bottest.New(t)
	calls := 0
	cmd := countingCommand("boss", &calls).AsAdmin()

	res := f.Run(cmd, bottest.Message(bottest.GroupID, bottest.Member, "/boss"))
	assert.False(t, res.Accepted)
	assert.Equal(t, "Spiacente, non sei un amministratore.", res.Reason)
	assert.Zero(t, calls)
	assert.Equal(t, []string{"Spiacente, non sei un amministratore."}, f.Chat.SentTo(bottest.Member.ID))

	res = f.Run(cmd, bottest.Message(bottest.GroupID, bottest.Admin, "/boss"))
	assert.True(t, res.Accepted)
	assert.Equal(t, 1, calls)
}

func TestRejectionFallsBackToMention(t *testing.T) {
	f := bottest.New(t)
	f.Chat.SetUnreachable(bottest.Member.ID)
	cmd := bot.NewCommand("no", "test", "test", func(ctx *bot.CommandContext) (bot.Result, error) {
		return bot.Reject("non si può"), nil
	})

	f.Run(cmd, bottest.Message(bottest.GroupID, bottest.Member, "/no"))

	assert.Equal(t, []string{"@mario\nnon si può"}, f.Chat.SentTo(bottest.GroupID))
}

func TestRejectionWithoutPrivilegesKeepsMessage(t *testing.T) {
	f := bottest.New(t)
	f.Chat.SetPrivileged(false)
	cmd := bot.NewCommand("no", "test", "test", func(ctx *bot.CommandContext) (bot.Result, error) {
		return bot.Reject(""), nil
	})

	res := f.Run(cmd, bottest.Message(bottest.GroupID, bottest.Member, "/no"))

	assert.False(t, res.Accepted)
	assert.Empty(t, f.Chat.Deleted())
	assert.Empty(t, f.Chat.Sent())
}

func TestCommandErrorIsSwallowed(t *testing.T) {
	f := bottest.New(t)
	cmd := bot.NewCommand("rotto", "test", "test", func(ctx *bot.CommandContext) (bot.Result, error) {
		return bot.Result{}, fmt.Errorf("reddit is down")
	})

	res := f.Run(cmd, bottest.Message(bottest.GroupID, bottest.Member, "/rotto"))

	assert.False(t, res.Accepted)
	assert.Empty(t, f.Chat.Deleted())
	assert.Empty(t, f.Chat.Sent())
}

func TestBlockedResultIsLeftToTheGate(t *testing.T) {
	f := bottest.New(t)
	cmd := bot.NewCommand("bloccato", "test", "test", func(ctx *bot.CommandContext) (bot.Result, error) {
		return bot.Blocked(), nil
	})

	res := f.Run(cmd, bottest.Message(bottest.GroupID, bottest.Member, "/bloccato"))

	assert.True(t, res.Blocked)
	assert.Empty(t, f.Chat.Deleted())
}

func TestScreenExplainsBlacklistedText(t *testing.T) {
	f := bottest.New(t)
	msg := bottest.Message(bottest.GroupID, bottest.Member, "/comment sei un idiota")
	cmd := bot.NewCommand("comment", "test", "test", func(ctx *bot.CommandContext) (bot.Result, error) {
		v, err := ctx.Screen(ctx.ArgText())
		require.NoError(t, err)
		assert.Equal(t, moderation.ReasonBlacklisted, v.Reason)
		assert.Equal(t, "idiota", v.Token)
		return bot.Blocked(), nil
	})

	f.Run(cmd, msg)

	assert.Equal(t, []int64{int64(msg.MessageID)}, f.Chat.Deleted())
	assert.Equal(t, []string{"Il tuo commento contiene la seguente parola bandita: idiota"}, f.Chat.SentTo(bottest.Member.ID))
}

func TestFloodingSenderIsDropped(t *testing.T) {
	f := bottest.NewWith(t, bottest.Settings{FloodLimit: 2})
	calls := 0
	f.Client.CommandHandler.RegisterCommand(countingCommand("help", &calls))

	for i := 0; i < 3; i++ {
		f.Client.HandleUpdate(context.Background(), update(bottest.Message(bottest.GroupID, bottest.Member, "/help")))
	}

	assert.Equal(t, 1, calls)
	stats := f.Gate.Stats()
	assert.Equal(t, uint64(2), stats.RateLimited)
	assert.Equal(t, 2, stats.PendingTasks)
}

func TestPrivateCommandsSkipTheGate(t *testing.T) {
	f := bottest.NewWith(t, bottest.Settings{FloodLimit: 2})
	calls := 0
	f.Client.CommandHandler.RegisterCommand(countingCommand("start", &calls))

	for i := 0; i < 3; i++ {
		f.Client.HandleUpdate(context.Background(), update(bottest.Message(bottest.Member.ID, bottest.Member, "/start")))
	}

	assert.Equal(t, 3, calls)
	assert.Zero(t, f.Gate.Stats().RateLimited)
}

func TestEmitRecoversPanics(t *testing.T) {
	f := bottest.New(t)
	reached := false
	f.Client.EventHandler.RegisterEvent(bot.EventMessage, func(context.Context, *bot.ExtendedClient, *tgbotapi.Message) {
		panic("boom")
	})
	f.Client.EventHandler.RegisterEvent(bot.EventMessage, func(context.Context, *bot.ExtendedClient, *tgbotapi.Message) {
		reached = true
	})

	f.Client.HandleUpdate(context.Background(), update(bottest.Message(bottest.GroupID, bottest.Member, "ciao a tutti")))

	assert.True(t, reached)
	assert.Equal(t, 2, f.Client.EventHandler.Count())
}

func TestNewMembersEvent(t *testing.T) {
	f := bottest.New(t)
	var got []tgbotapi.User
	f.Client.EventHandler.RegisterEvent(bot.EventNewMembers, func(_ context.Context, _ *bot.ExtendedClient, msg *tgbotapi.Message) {
		got = append(got, msg.NewChatMembers...)
	})
	messages := 0
	f.Client.EventHandler.RegisterEvent(bot.EventMessage, func(context.Context, *bot.ExtendedClient, *tgbotapi.Message) {
		messages++
	})

	msg := bottest.Message(bottest.GroupID, bottest.Admin, "")
	msg.NewChatMembers = []tgbotapi.User{bottest.Member}
	f.Client.HandleUpdate(context.Background(), update(msg))

	assert.Equal(t, []tgbotapi.User{bottest.Member}, got)
	assert.Zero(t, messages)
}

func TestRunStopsWhenUpdatesClose(t *testing.T) {
	f := bottest.New(t)
	calls := 0
	f.Client.CommandHandler.RegisterCommand(countingCommand("start", &calls))

	updates := make(chan tgbotapi.Update, 1)
	updates <- update(bottest.Message(bottest.Member.ID, bottest.Member, "/start"))
	close(updates)

	done := make(chan struct{})
	go func() {
		f.Client.Run(context.Background(), updates)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, 1, calls)
}

func TestEventFor(t *testing.T) {
	msg := bottest.Message(bottest.GroupID, bottest.Anonymous, "ciao")
	ev := bot.EventFor(msg, "testo")

	assert.Equal(t, bottest.GroupID, ev.Scope)
	assert.Equal(t, int64(msg.MessageID), ev.Object)
	assert.Equal(t, "30", ev.Sender)
	assert.Equal(t, int64(30), ev.UserID)
	assert.Equal(t, "[Anna Bianchi, imposta un username!]", ev.Mention)
	assert.Equal(t, "testo", ev.Text)
}

func TestExplainFallsBackToGroup(t *testing.T) {
	f := bottest.New(t)
	f.Chat.SetUnreachable(bottest.Member.ID)
	ev := bot.EventFor(bottest.Message(bottest.GroupID, bottest.Member, "x"), "x")

	require.NoError(t, f.Client.Explain(context.Background(), ev, "idiota"))

	assert.Equal(t, []string{"@mario\nIl tuo commento contiene la seguente parola bandita: idiota"}, f.Chat.SentTo(bottest.GroupID))
}

func TestBotCommandsHidesHidden(t *testing.T) {
	f := bottest.New(t)
	calls := 0
	f.Client.CommandHandler.RegisterCommand(countingCommand("visibile", &calls))
	f.Client.CommandHandler.RegisterCommand(countingCommand("nascosto", &calls).AsHidden())
	f.Client.CommandHandler.RegisterCommand(countingCommand("altro", &calls))

	cmds := f.Client.BotCommands()

	require.Len(t, cmds, 2)
	assert.Equal(t, "altro", cmds[0].Command)
	assert.Equal(t, "visibile", cmds[1].Command)
	assert.Equal(t, 3, f.Client.Commands.Size())
}
