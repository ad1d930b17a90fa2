package commands

import (
	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/globeguess/internal/location"
)

func GetCommands() []*discordgo.ApplicationCommand {
	regions := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(location.Regions))
	for _, r := range location.Regions {
		regions = append(regions, &discordgo.ApplicationCommandOptionChoice{
			Name:  r.DisplayName(),
			Value: r.String(),
		})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:         "guess",
			Description:  "Play a location guessing round in this channel",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "start",
					Description: "Start a round",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "region",
							Description: "Draw a picture from this region (leave empty to set your own answer)",
							Required:    false,
							Choices:     regions,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "guess",
					Description: "Submit your guess",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "location",
							Description: "Google Maps link, geo: URI or lat,lng",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "answer",
					Description: "Reveal the answer and the ranking",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "location",
							Description: "The answer (not needed when the picture came from a region)",
							Required:    false,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stop",
					Description: "End the round in this channel",
				},
			},
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
