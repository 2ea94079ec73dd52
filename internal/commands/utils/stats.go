package utils

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/bot"
	"github.com/PancyStudios/MarvinGo/pkg/config"
	"github.com/PancyStudios/MarvinGo/pkg/database"
)

// createStatsCommand creates the /stats command
func createStatsCommand() *bot.Command {
	return bot.NewCommand(
		"stats",
		"Statistiche del bot e della moderazione",
		"utils",
		statsHandler,
	).AsAdmin().AsHidden()
}

// statsHandler sends runtime and moderation counters to the admin privately
func statsHandler(ctx *bot.CommandContext) (bot.Result, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	s := ctx.Client.Gate.Stats()
	db := database.Get()
	dbStatus, _ := db.GetStatus()
	if n := db.QueueLength(); n > 0 {
		dbStatus += fmt.Sprintf(" (%d scritture in coda)", n)
	}

	text := fmt.Sprintf(
		"📊 Statistiche di Marvin\n"+
			"• Versione: %s (Go %s)\n"+
			"• Uptime: %s\n"+
			"• RAM: %.2f MB, %d goroutine\n"+
			"• Database: %s\n"+
			"• Messaggi accettati: %d\n"+
			"• Flood bloccati: %d\n"+
			"• Parole bandite: %d (lista di %d)\n"+
			"• Cancellazioni in attesa: %d\n"+
			"• Chat conosciute: %d (%d verifiche permessi)\n"+
			"• Comandi registrati: %d",
		config.Version, strings.TrimPrefix(runtime.Version(), "go"),
		formatDuration(ctx.Client.Uptime()),
		float64(m.Alloc)/1024/1024, runtime.NumGoroutine(),
		dbStatus,
		s.Accepted, s.RateLimited, s.Blacklisted, s.BlacklistSize,
		s.PendingTasks, s.KnownScopes, s.PermissionProbes,
		ctx.Client.Commands.Size(),
	)

	ctx.Client.ReplyOrPrivate(ctx.Ctx, ctx.ChatID(), ctx.From(), text)
	ctx.Retract(ctx.Message.MessageID)
	return bot.Accept(), nil
}

// formatDuration formats a time.Duration into a human-readable string
func formatDuration(dur time.Duration) string {
	days := int(dur.Hours() / 24)
	hours := int(dur.Hours()) % 24
	minutes := int(dur.Minutes()) % 60
	seconds := int(dur.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d giorni", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d ore", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minuti", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d secondi", seconds))
	}

	return strings.Join(parts, ", ")
}
