package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/globeguess/internal/geourl"
	"github.com/susu3304/globeguess/internal/geoscore"
	"github.com/susu3304/globeguess/internal/guess"
	"github.com/susu3304/globeguess/internal/location"
)

// discord rejects messages longer than this
const maxMessageLen = 2000

// Guess carries what the /guess command needs.
type Guess struct {
	Service      *guess.Service
	Resolver     *geourl.Resolver
	ImageBaseURL string
}

func HandleGuess(s *discordgo.Session, i *discordgo.InteractionCreate, g *Guess) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		respondText(s, i, "No subcommand given")
		return
	}

	sub := data.Options[0]
	channelID := i.ChannelID
	userID := interactionUserID(i)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch sub.Name {
	case "start":
		gid := ParseGuildID(i.GuildID)
		if gid == 0 {
			respondText(s, i, "Could not determine the server")
			return
		}
		var region *location.Region
		if opt := getStringOption(sub.Options, "region"); opt != nil && *opt != "" {
			r, err := location.ParseRegion(*opt)
			if err != nil {
				respondText(s, i, "Unknown region: "+*opt)
				return
			}
			region = &r
		}

		loc, err := g.Service.StartSession(ctx, channelID, gid, userID, region, nil)
		if err != nil {
			respondText(s, i, errorMessage("Failed to start the round", err))
			return
		}
		respondText(s, i, startMessage(loc, g.ImageBaseURL))

	case "stop":
		if err := g.Service.StopSession(ctx, channelID); err != nil {
			respondText(s, i, errorMessage("Failed to end the round", err))
			return
		}
		respondText(s, i, "✅ Round ended")

	case "guess":
		input := getStringOption(sub.Options, "location")
		if input == nil {
			respondText(s, i, "A location is required")
			return
		}

		// expanding a short link can take a while
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
		}); err != nil {
			slog.Warn("failed to defer response", "guild_id", i.GuildID, "channel_id", channelID, "error", err)
			return
		}

		c, source, err := g.Resolver.Resolve(ctx, *input)
		if err != nil {
			editText(s, i, errorMessage("Could not read coordinates", err))
			return
		}
		if err := g.Service.AddGuess(ctx, channelID, userID, c, source); err != nil {
			editText(s, i, errorMessage("Failed to record your guess", err))
			return
		}
		editText(s, i, fmt.Sprintf("✅ Guess recorded at %s", c))
		if _, err := s.ChannelMessageSend(channelID, fmt.Sprintf("📌 <@%s> has guessed", userID)); err != nil {
			slog.Warn("failed to announce guess", "guild_id", i.GuildID, "channel_id", channelID, "error", err)
		}

	case "answer":
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		}); err != nil {
			slog.Warn("failed to defer response", "guild_id", i.GuildID, "channel_id", channelID, "error", err)
			return
		}

		var answer *geoscore.Coordinate
		var answerURL string
		if input := getStringOption(sub.Options, "location"); input != nil && *input != "" {
			c, source, err := g.Resolver.Resolve(ctx, *input)
			if err != nil {
				editText(s, i, errorMessage("Could not read coordinates", err))
				return
			}
			answer, answerURL = &c, source
		}

		rev, err := g.Service.SetAnswer(ctx, channelID, answer, answerURL)
		if err != nil {
			editText(s, i, errorMessage("Failed to score the round", err))
			return
		}
		editText(s, i, formatReveal(rev))

	default:
		respondText(s, i, "Unknown subcommand")
	}
}

func errorMessage(prefix string, err error) string {
	switch {
	case errors.Is(err, guess.ErrNoActiveSession):
		return "There is no round in this channel\nStart one with `/guess start`"
	case errors.Is(err, guess.ErrSessionAlreadyExists):
		return "A round is already running in this channel"
	case errors.Is(err, guess.ErrAlreadyGuessed):
		return "You have already guessed in this round"
	case errors.Is(err, guess.ErrAlreadyRevealed):
		return "The answer has already been revealed"
	case errors.Is(err, guess.ErrAnswerNotSet):
		return "This round has no stored answer, pass one with `/guess answer location:`"
	case errors.Is(err, location.ErrNotFound):
		return "There are no pictures for that region yet"
	case errors.Is(err, geoscore.ErrInvalidCoordinate), errors.Is(err, geourl.ErrNoCoordinates):
		return prefix + ": " + err.Error() + "\nUse a Google Maps link, a geo: URI or `lat,lng`"
	}
	return prefix + ": " + err.Error()
}

func startMessage(loc *location.Location, imageBase string) string {
	if loc == nil {
		return "✅ Round started!\nSend your guess with `/guess guess location:` and reveal it with `/guess answer location:`"
	}
	return fmt.Sprintf("✅ Round started! Where was this picture taken? (%s)\n%s\nSend your guess with `/guess guess location:`",
		loc.Region.DisplayName(), imageURL(imageBase, loc.Image))
}

func imageURL(base, path string) string {
	if base == "" {
		return path
	}
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func formatReveal(rev *guess.Reveal) string {
	var b strings.Builder
	if rev.Location != nil {
		fmt.Fprintf(&b, "📍 **Answer**: %s\n%s\n\n", rev.Location.Name, rev.AnswerURL)
	} else {
		fmt.Fprintf(&b, "📍 **Answer**: %s\n\n", rev.AnswerURL)
	}

	if len(rev.Results) == 0 {
		b.WriteString("Nobody guessed this round")
		return b.String()
	}

	fmt.Fprintf(&b, "🏆 **Results** (%d players)\n", len(rev.Results))
	for idx, r := range rev.Results {
		rank := idx + 1
		medal := ""
		switch rank {
		case 1:
			medal = "🥇 "
		case 2:
			medal = "🥈 "
		case 3:
			medal = "🥉 "
		}
		line := fmt.Sprintf("%s%d. <@%s>: **%d pts** (%s)\n", medal, rank, r.UserID, r.Score, guess.FormatDistance(r))
		if b.Len()+len(line) > maxMessageLen-len("…") {
			b.WriteString("…")
			break
		}
		b.WriteString(line)
	}
	return strings.TrimRight(b.String(), "\n")
}
