package bot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/globeguess/internal/commands"
)

type Bot struct {
	session *discordgo.Session
	guess   *commands.Guess
	expiry  *expiryWorker
}

// New wires the /guess command. A positive maxAge closes rounds left open
// longer than that.
func New(token string, g *commands.Guess, maxAge time.Duration) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session: session,
		guess:   g,
	}
	if maxAge > 0 {
		bot.expiry = newExpiryWorker(session, g.Service, maxAge)
	}

	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onGuildCreate)
	session.AddHandler(bot.onInteractionCreate)

	// slash commands only, no message content needed
	session.Identify.Intents = discordgo.IntentsGuilds

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.expiry.start()
	slog.Info("discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.expiry.stop()
	return b.session.Close()
}
