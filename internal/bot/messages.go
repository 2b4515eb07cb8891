package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	modalEventLog   = "eventLogModal"
	modalTitle      = "Event Log Submission"
	fieldHost       = "hostUsername"
	fieldEventTime  = "eventTime"
	labelHost       = "What is the host's username?"
	labelEventTime  = "Event Time (e.g., 8:30 PM EST)"
	maxAutocomplete = 25

	msgInvalidProof    = "Please attach a valid image file as proof."
	msgNoPermission    = "You do not have permission to use this command."
	msgSessionNotFound = "An error occurred: session data not found. Please try again."
	msgNoLogChannel    = "Error: The log channel could not be found. Please ask an admin to set it with `/setlogchannel`."
	msgLogged          = "Your event has been logged successfully! Thank you."
	msgSaveFailed      = "Error: the configuration could not be saved. Please try again."
)

func msgChannelSet(channelID string) string {
	return fmt.Sprintf("Log channel has been set to <#%s>", channelID)
}

func msgTypeExists(name string) string {
	return fmt.Sprintf("'%s' is already in the event list.", name)
}

func msgTypeAdded(name string) string {
	return fmt.Sprintf("Event type '%s' has been added.", name)
}

func msgTypeRemoved(name string) string {
	return fmt.Sprintf("Event type '%s' has been removed.", name)
}

func (b *Bot) respond(interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := b.gateway.Respond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		b.logger.Warn("interaction respond failed", zap.String("interaction_id", interaction.ID), zap.Error(err))
	}
}

func (b *Bot) respondChoices(interaction *discordgo.InteractionCreate, choices []*discordgo.ApplicationCommandOptionChoice) {
	if len(choices) > maxAutocomplete {
		choices = choices[:maxAutocomplete]
	}
	err := b.gateway.Respond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		b.logger.Warn("autocomplete respond failed", zap.String("interaction_id", interaction.ID), zap.Error(err))
	}
}

func eventLogModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: modalEventLog,
			Title:    modalTitle,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID: fieldHost,
							Label:    labelHost,
							Style:    discordgo.TextInputShort,
							Required: true,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID: fieldEventTime,
							Label:    labelEventTime,
							Style:    discordgo.TextInputShort,
							Required: true,
						},
					},
				},
			},
		},
	}
}
