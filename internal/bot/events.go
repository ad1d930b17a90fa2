package bot

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/globeguess/internal/commands"
)

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	slog.Info("discord connected", "user", event.User.Username, "guilds", len(event.Guilds))

	for _, guild := range event.Guilds {
		if err := b.registerGuildCommands(guild.ID); err != nil {
			slog.Error("failed to register commands", "guild_id", guild.ID, "error", err)
		}
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	slog.Info("guild available, ensuring commands", "guild", event.Name, "guild_id", event.ID)
	if err := b.registerGuildCommands(event.ID); err != nil {
		slog.Error("failed to register commands", "guild_id", event.ID, "error", err)
	}
}

func (b *Bot) registerGuildCommands(guildID string) error {
	// Delete existing commands and register new ones
	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, guildID, commands.GetCommands())
	if err != nil {
		return err
	}
	slog.Debug("registered application commands", "guild_id", guildID)
	return nil
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch name := i.ApplicationCommandData().Name; name {
	case "guess":
		commands.HandleGuess(s, i, b.guess)
	default:
		slog.Debug("ignoring unknown command", "command", name, "guild_id", i.GuildID)
	}
}
