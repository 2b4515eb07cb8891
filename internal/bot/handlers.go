package bot

import (
	"context"
	"errors"
	"strings"

	"eventlogger/internal/eventconfig"
	"eventlogger/internal/metrics"
	"eventlogger/internal/modules/audit"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	b.handleInteraction(context.Background(), interaction)
}

// handleInteraction routes one interaction to exactly one handler.
func (b *Bot) handleInteraction(ctx context.Context, interaction *discordgo.InteractionCreate) {
	if interaction == nil || interaction.Interaction == nil {
		return
	}

	switch interaction.Type {
	case discordgo.InteractionApplicationCommandAutocomplete:
		data := interaction.ApplicationCommandData()
		b.metrics.Interaction(metrics.KindAutocomplete, data.Name)
		b.handleAutocomplete(interaction, data)
	case discordgo.InteractionApplicationCommand:
		data := interaction.ApplicationCommandData()
		b.metrics.Interaction(metrics.KindCommand, data.Name)
		switch data.Name {
		case cmdLogEvent:
			b.handleLogEvent(interaction, data)
		case cmdSetLogChannel, cmdAddEventType, cmdRemoveEventType:
			b.handleAdminCommand(ctx, interaction, data)
		}
	case discordgo.InteractionModalSubmit:
		data := interaction.ModalSubmitData()
		if data.CustomID != modalEventLog {
			return
		}
		b.metrics.Interaction(metrics.KindModal, data.CustomID)
		b.handleEventLogSubmit(ctx, interaction, data)
	}
}

func (b *Bot) handleAutocomplete(interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if data.Name != cmdLogEvent && data.Name != cmdRemoveEventType {
		return
	}
	matches := FilterEventTypes(b.events.EventTypes(), focusedValue(data.Options))
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(matches))
	for _, name := range matches {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}
	b.respondChoices(interaction, choices)
}

// FilterEventTypes keeps the types whose name starts with prefix, ignoring case.
func FilterEventTypes(types []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	matches := make([]string, 0, len(types))
	for _, name := range types {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			matches = append(matches, name)
		}
	}
	return matches
}

func (b *Bot) handleLogEvent(interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	eventType := stringOption(data.Options, optEventType)
	attachment := attachmentOption(data, optProof)
	if !isImageAttachment(attachment) {
		b.metrics.Rejection("invalid_proof")
		b.respond(interaction, msgInvalidProof, true)
		return
	}

	user := interactionUser(interaction)
	if user == nil {
		return
	}
	b.pending.Put(user.ID, attachment.URL, eventType)
	b.metrics.SetPending(b.pending.Len())

	if err := b.gateway.Respond(interaction.Interaction, eventLogModal()); err != nil {
		b.logger.Warn("show modal failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (b *Bot) handleAdminCommand(ctx context.Context, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !memberIsAdmin(interaction) {
		b.metrics.Rejection("not_admin")
		b.respond(interaction, msgNoPermission, true)
		return
	}

	userID := ""
	if user := interactionUser(interaction); user != nil {
		userID = user.ID
	}

	record := func(event audit.Event, key, value string) {
		b.audit.Record(ctx, audit.Entry{
			GuildID: interaction.GuildID,
			UserID:  userID,
			Event:   event,
			Fields:  map[string]string{key: value},
		})
	}

	switch data.Name {
	case cmdSetLogChannel:
		channelID := stringOption(data.Options, optChannel)
		if err := b.events.SetLogChannel(channelID); err != nil {
			b.saveFailed(interaction, data.Name, err)
			record(audit.EventConfigSaveError, "op", data.Name)
			return
		}
		b.metrics.ConfigMutation(data.Name, "ok")
		record(audit.EventLogChannelSet, "channel", channelID)
		b.respond(interaction, msgChannelSet(channelID), true)
	case cmdAddEventType:
		name := stringOption(data.Options, optType)
		err := b.events.AddEventType(name)
		if errors.Is(err, eventconfig.ErrAlreadyExists) {
			b.metrics.ConfigMutation(data.Name, "exists")
			record(audit.EventTypeExists, "type", name)
			b.respond(interaction, msgTypeExists(name), true)
			return
		}
		if err != nil {
			b.saveFailed(interaction, data.Name, err)
			record(audit.EventConfigSaveError, "op", data.Name)
			return
		}
		b.metrics.ConfigMutation(data.Name, "ok")
		record(audit.EventTypeAdded, "type", name)
		b.respond(interaction, msgTypeAdded(name), true)
	case cmdRemoveEventType:
		name := stringOption(data.Options, optType)
		if err := b.events.RemoveEventType(name); err != nil {
			b.saveFailed(interaction, data.Name, err)
			record(audit.EventConfigSaveError, "op", data.Name)
			return
		}
		b.metrics.ConfigMutation(data.Name, "ok")
		record(audit.EventTypeRemoved, "type", name)
		b.respond(interaction, msgTypeRemoved(name), true)
	}
}

func (b *Bot) saveFailed(interaction *discordgo.InteractionCreate, op string, err error) {
	b.logger.Error("event config save failed", zap.String("op", op), zap.String("path", b.events.Path()), zap.Error(err))
	b.metrics.ConfigMutation(op, "error")
	b.respond(interaction, msgSaveFailed, true)
}

func memberIsAdmin(interaction *discordgo.InteractionCreate) bool {
	if interaction.Member == nil {
		return false
	}
	return interaction.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func interactionUser(interaction *discordgo.InteractionCreate) *discordgo.User {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User
	}
	return interaction.User
}

func isImageAttachment(attachment *discordgo.MessageAttachment) bool {
	return attachment != nil && strings.HasPrefix(attachment.ContentType, "image/")
}

func findOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt != nil && opt.Name == name {
			return opt
		}
	}
	return nil
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	opt := findOption(options, name)
	if opt == nil {
		return ""
	}
	value, _ := opt.Value.(string)
	return value
}

func focusedValue(options []*discordgo.ApplicationCommandInteractionDataOption) string {
	for _, opt := range options {
		if opt != nil && opt.Focused {
			value, _ := opt.Value.(string)
			return value
		}
	}
	return ""
}

func attachmentOption(data discordgo.ApplicationCommandInteractionData, name string) *discordgo.MessageAttachment {
	id := stringOption(data.Options, name)
	if id == "" || data.Resolved == nil {
		return nil
	}
	return data.Resolved.Attachments[id]
}
