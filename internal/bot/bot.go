package bot

import (
	"context"
	"time"

	"eventlogger/internal/config"
	"eventlogger/internal/eventconfig"
	"eventlogger/internal/metrics"
	"eventlogger/internal/modules/audit"
	"eventlogger/internal/pending"
	"eventlogger/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Gateway is the slice of the Discord API the bot talks to.
type Gateway interface {
	Respond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	Channel(channelID string) (*discordgo.Channel, error)
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
	OverwriteCommands(appID, guildID string, commands []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error)
}

type sessionGateway struct {
	session *discordgo.Session
}

func (g sessionGateway) Respond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return g.session.InteractionRespond(interaction, resp)
}

func (g sessionGateway) Channel(channelID string) (*discordgo.Channel, error) {
	if g.session.State != nil {
		if channel, err := g.session.State.Channel(channelID); err == nil {
			return channel, nil
		}
	}
	return g.session.Channel(channelID)
}

func (g sessionGateway) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return g.session.ChannelMessageSendEmbed(channelID, embed)
}

func (g sessionGateway) OverwriteCommands(appID, guildID string, commands []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	return g.session.ApplicationCommandBulkOverwrite(appID, guildID, commands)
}

type Bot struct {
	cfg     config.Config
	logger  *zap.Logger
	events  *eventconfig.Store
	pending *pending.Table
	store   *storage.Store
	audit   *audit.Logger
	metrics *metrics.Metrics
	session *discordgo.Session
	gateway Gateway
	now     func() time.Time

	closeSession func() error
}

func New(cfg config.Config, logger *zap.Logger, events *eventconfig.Store, pendingTable *pending.Table, store *storage.Store, auditLogger *audit.Logger, m *metrics.Metrics) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := newBot(cfg, logger, events, pendingTable, store, auditLogger, m, sessionGateway{session: session})
	b.session = session
	b.closeSession = session.Close
	return b, nil
}

func newBot(cfg config.Config, logger *zap.Logger, events *eventconfig.Store, pendingTable *pending.Table, store *storage.Store, auditLogger *audit.Logger, m *metrics.Metrics, gateway Gateway) *Bot {
	return &Bot{
		cfg:     cfg,
		logger:  logger,
		events:  events,
		pending: pendingTable,
		store:   store,
		audit:   auditLogger,
		metrics: m,
		gateway: gateway,
		now:     time.Now,
	}
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	appID := b.cfg.ApplicationID
	if appID == "" && b.session.State != nil && b.session.State.User != nil {
		appID = b.session.State.User.ID
	}
	b.registerCommands(appID)

	if b.cfg.PendingTTLMinutes > 0 {
		ttl := time.Duration(b.cfg.PendingTTLMinutes) * time.Minute
		b.pending.StartSweeper(sweepInterval(ttl), func(removed int) {
			b.logger.Info("expired pending submissions", zap.Int("removed", removed))
			b.metrics.SetPending(b.pending.Len())
		})
	}

	return nil
}

// Close stops the sweeper and closes the gateway session, giving up when ctx
// is done.
func (b *Bot) Close(ctx context.Context) error {
	b.pending.Stop()
	if b.closeSession == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- b.closeSession()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	username := ""
	if event.User != nil {
		username = event.User.Username
	}
	b.logger.Info("discord ready", zap.String("user", username), zap.Int("guilds", len(event.Guilds)))
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}
