// Package audit records administrative changes and delivered event logs.
package audit

import (
	"context"
	"sort"
	"strings"
	"time"

	"eventlogger/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
)

type Event string

const (
	EventLogChannelSet   Event = "log_channel_set"
	EventTypeAdded       Event = "event_type_added"
	EventTypeExists      Event = "event_type_exists"
	EventTypeRemoved     Event = "event_type_removed"
	EventConfigSaveError Event = "config_save_failed"
	EventLogged          Event = "event_logged"
)

// Level is WARN for events where nothing changed as asked.
func (e Event) Level() string {
	switch e {
	case EventTypeExists, EventConfigSaveError:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// Entry is one audited action. Fields end up in Details as sorted key=value pairs.
type Entry struct {
	GuildID string
	UserID  string
	Event   Event
	Fields  map[string]string
}

type Logger struct {
	store  *storage.Store
	logger *zap.Logger
	notify func(context.Context, storage.AuditLog)
	now    func() time.Time
}

func NewLogger(store *storage.Store, logger *zap.Logger) *Logger {
	return &Logger{store: store, logger: logger, now: time.Now}
}

// SetNotifier registers a callback run after each entry is persisted.
func (l *Logger) SetNotifier(notify func(context.Context, storage.AuditLog)) {
	l.notify = notify
}

// Record persists entry and mirrors it to the log. A nil Logger records nothing.
func (l *Logger) Record(ctx context.Context, entry Entry) {
	if l == nil {
		return
	}
	row := storage.AuditLog{
		ID:        uuid.NewString(),
		GuildID:   entry.GuildID,
		UserID:    entry.UserID,
		Level:     entry.Event.Level(),
		Event:     string(entry.Event),
		Details:   FormatFields(entry.Fields),
		CreatedAt: l.now(),
	}
	if l.store != nil {
		if err := l.store.AddAuditLog(ctx, row); err != nil {
			l.logger.Warn("audit persist failed", zap.String("event", row.Event), zap.Error(err))
		}
	}
	if l.notify != nil {
		l.notify(ctx, row)
	}

	fields := []zap.Field{
		zap.String("audit_id", row.ID),
		zap.String("guild_id", row.GuildID),
		zap.String("user_id", row.UserID),
		zap.String("event", row.Event),
	}
	for _, key := range sortedKeys(entry.Fields) {
		fields = append(fields, zap.String(key, entry.Fields[key]))
	}
	if row.Level == LevelWarn {
		l.logger.Warn("audit", fields...)
		return
	}
	l.logger.Info("audit", fields...)
}

func FormatFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, key := range sortedKeys(fields) {
		parts = append(parts, key+"="+fields[key])
	}
	return strings.Join(parts, " ")
}

func sortedKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
