package bot

import (
	"context"
	"fmt"
	"time"

	"eventlogger/internal/metrics"
	"eventlogger/internal/modules/audit"
	"eventlogger/internal/pending"
	"eventlogger/internal/storage"
	"eventlogger/internal/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventLog is everything that goes into one posted notification.
type EventLog struct {
	Submitter    *discordgo.User
	HostUsername string
	EventType    string
	EventTime    string
	ProofURL     string
	SubmittedAt  time.Time
}

// handleEventLogSubmit clears the pending entry before anything else can
// fail, so a submission is posted at most once.
func (b *Bot) handleEventLogSubmit(ctx context.Context, interaction *discordgo.InteractionCreate, data discordgo.ModalSubmitInteractionData) {
	hostUsername := modalValue(data.Components, fieldHost)
	eventTime := modalValue(data.Components, fieldEventTime)

	user := interactionUser(interaction)
	if user == nil {
		b.metrics.Submission(metrics.OutcomeNoSession)
		b.respond(interaction, msgSessionNotFound, true)
		return
	}

	sub, err := b.pending.TakeAndClear(user.ID)
	b.metrics.SetPending(b.pending.Len())
	if err != nil {
		b.metrics.Submission(metrics.OutcomeNoSession)
		b.respond(interaction, msgSessionNotFound, true)
		return
	}

	channelID := b.events.LogChannelID()
	if channelID == "" {
		b.metrics.Submission(metrics.OutcomeNoChannel)
		b.respond(interaction, msgNoLogChannel, true)
		return
	}
	channel, err := b.gateway.Channel(channelID)
	if err != nil || channel == nil {
		b.logger.Warn("log channel unresolved", zap.String("channel_id", channelID), zap.Error(err))
		b.metrics.Submission(metrics.OutcomeNoChannel)
		b.respond(interaction, msgNoLogChannel, true)
		return
	}

	entry := EventLog{
		Submitter:    user,
		HostUsername: hostUsername,
		EventType:    sub.EventType,
		EventTime:    eventTime,
		ProofURL:     sub.ProofURL,
		SubmittedAt:  b.now(),
	}
	msg, err := b.gateway.SendEmbed(channel.ID, b.buildEventLogEmbed(entry))
	if err != nil {
		b.logger.Error("event log send failed", zap.String("channel_id", channel.ID), zap.String("user_id", user.ID), zap.Error(err))
		b.metrics.Submission(metrics.OutcomeSendFailed)
		return
	}

	b.metrics.Submission(metrics.OutcomeDelivered)
	b.recordSubmission(ctx, interaction.GuildID, channel.ID, msg, entry, sub)
	b.respond(interaction, msgLogged, true)
}

func (b *Bot) buildEventLogEmbed(entry EventLog) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: b.cfg.Embed.Title,
		Color: b.cfg.Embed.Color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Submitted By", Value: fmt.Sprintf("<@%s> (%s)", entry.Submitter.ID, userTag(entry.Submitter)), Inline: true},
			{Name: "Host's Username", Value: entry.HostUsername, Inline: true},
			{Name: "Event Type", Value: entry.EventType, Inline: true},
			{Name: "Event Time", Value: entry.EventTime, Inline: false},
		},
		Image:     &discordgo.MessageEmbedImage{URL: entry.ProofURL},
		Timestamp: entry.SubmittedAt.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: b.cfg.Embed.Footer},
	}
}

func (b *Bot) recordSubmission(ctx context.Context, guildID, channelID string, msg *discordgo.Message, entry EventLog, sub pending.Submission) {
	messageID := ""
	if msg != nil {
		messageID = msg.ID
	}
	record := storage.Submission{
		ID:           uuid.NewString(),
		GuildID:      guildID,
		UserID:       entry.Submitter.ID,
		Username:     userTag(entry.Submitter),
		HostUsername: entry.HostUsername,
		EventType:    entry.EventType,
		EventTime:    entry.EventTime,
		ProofURL:     entry.ProofURL,
		ProofHost:    utils.URLHost(entry.ProofURL),
		ChannelID:    channelID,
		MessageID:    messageID,
		CreatedAt:    entry.SubmittedAt,
	}
	if b.store != nil {
		if err := b.store.AddSubmission(ctx, record); err != nil {
			b.logger.Warn("submission history write failed", zap.String("submission_id", record.ID), zap.Error(err))
		}
	}
	b.audit.Record(ctx, audit.Entry{
		GuildID: guildID,
		UserID:  entry.Submitter.ID,
		Event:   audit.EventLogged,
		Fields: map[string]string{
			"submission_id": record.ID,
			"type":          record.EventType,
			"host":          record.HostUsername,
			"proof_host":    record.ProofHost,
			"waited":        entry.SubmittedAt.Sub(sub.CreatedAt).Round(time.Second).String(),
		},
	})
}

// modalValue finds a text input by custom id in a submitted modal.
func modalValue(components []discordgo.MessageComponent, customID string) string {
	for _, component := range components {
		var children []discordgo.MessageComponent
		switch row := component.(type) {
		case *discordgo.ActionsRow:
			children = row.Components
		case discordgo.ActionsRow:
			children = row.Components
		}
		for _, child := range children {
			switch input := child.(type) {
			case *discordgo.TextInput:
				if input.CustomID == customID {
					return input.Value
				}
			case discordgo.TextInput:
				if input.CustomID == customID {
					return input.Value
				}
			}
		}
	}
	return ""
}

func userTag(user *discordgo.User) string {
	if user.Discriminator != "" && user.Discriminator != "0" {
		return user.Username + "#" + user.Discriminator
	}
	return user.Username
}
