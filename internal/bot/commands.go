package bot

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	cmdLogEvent        = "logevent"
	cmdSetLogChannel   = "setlogchannel"
	cmdAddEventType    = "addeventtype"
	cmdRemoveEventType = "removeeventtype"

	optEventType = "eventtype"
	optProof     = "proof"
	optChannel   = "channel"
	optType      = "type"
)

func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        cmdLogEvent,
			Description: "Submit a log for an event.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         optEventType,
					Description:  "The type of event you are logging.",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        optProof,
					Description: "The image proof for the event.",
					Required:    true,
				},
			},
		},
		{
			Name:        cmdSetLogChannel,
			Description: "Sets the channel for event logs (Admin only).",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        optChannel,
					Description: "The channel to send logs to.",
					Required:    true,
				},
			},
		},
		{
			Name:        cmdAddEventType,
			Description: "Adds a new type to the event list (Admin only).",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optType,
					Description: "The new event type to add.",
					Required:    true,
				},
			},
		},
		{
			Name:        cmdRemoveEventType,
			Description: "Removes a type from the event list (Admin only).",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         optType,
					Description:  "The event type to remove.",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
	}
}

// registerCommands replaces the registered command set in one call: guild
// scoped when a guild is configured, global otherwise. Failures are logged
// and left alone.
func (b *Bot) registerCommands(appID string) {
	if appID == "" {
		b.logger.Error("command registration skipped: no application id")
		return
	}
	guildID := b.cfg.GuildID
	b.logger.Info("refreshing application commands", zap.String("guild_id", guildID))

	registered, err := b.gateway.OverwriteCommands(appID, guildID, Commands())
	if err != nil {
		b.logger.Error("command registration failed", zap.String("guild_id", guildID), zap.Error(err))
		return
	}
	b.logger.Info("application commands reloaded", zap.String("guild_id", guildID), zap.Int("count", len(registered)))
}
