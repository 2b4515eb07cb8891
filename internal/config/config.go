package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"
)

var ErrMissingToken = errors.New("DISCORD_TOKEN is required")

type Config struct {
	DiscordToken      string       `yaml:"discord_token"`
	ApplicationID     string       `yaml:"application_id"`
	GuildID           string       `yaml:"guild_id"`
	EventConfigPath   string       `yaml:"event_config_path"`
	DatabaseURL       string       `yaml:"database_url"`
	PendingTTLMinutes int          `yaml:"pending_ttl_minutes"`
	Log               LogConfig    `yaml:"log"`
	Health            HealthConfig `yaml:"health"`
	Embed             EmbedConfig  `yaml:"embed"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type EmbedConfig struct {
	Title  string `yaml:"title"`
	Color  int    `yaml:"color"`
	Footer string `yaml:"footer"`
}

func DefaultConfig() Config {
	return Config{
		EventConfigPath:   "config.json",
		DatabaseURL:       "eventlog.db",
		PendingTTLMinutes: 0,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Health: HealthConfig{Enabled: false, Addr: ":8080"},
		Embed: EmbedConfig{
			Title:  "New Event Log Submitted",
			Color:  0x00AE86,
			Footer: "Event Logger",
		},
	}
}

// Load layers config.yaml and the environment (after .env) over DefaultConfig.
func Load() (Config, error) {
	cfg := DefaultConfig()

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if info, err := os.Stat(envFile); err == nil && !info.IsDir() {
		// godotenv.Load never overrides variables already present.
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, err
		}
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, ErrMissingToken
	}
	if cfg.PendingTTLMinutes < 0 {
		cfg.PendingTTLMinutes = 0
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.ApplicationID = envString("CLIENT_ID", cfg.ApplicationID)
	cfg.GuildID = envString("GUILD_ID", cfg.GuildID)
	cfg.EventConfigPath = envString("EVENT_CONFIG_PATH", cfg.EventConfigPath)
	cfg.DatabaseURL = envString("DATABASE_URL", cfg.DatabaseURL)
	cfg.PendingTTLMinutes = envInt("PENDING_TTL_MINUTES", cfg.PendingTTLMinutes)
	cfg.Log.Level = envString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = envString("LOG_FILE", cfg.Log.File)
	cfg.Log.MaxSizeMB = envInt("LOG_MAX_SIZE_MB", cfg.Log.MaxSizeMB)
	cfg.Log.MaxBackups = envInt("LOG_MAX_BACKUPS", cfg.Log.MaxBackups)
	cfg.Log.MaxAgeDays = envInt("LOG_MAX_AGE_DAYS", cfg.Log.MaxAgeDays)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Embed.Title = envString("EMBED_TITLE", cfg.Embed.Title)
	cfg.Embed.Color = envInt("EMBED_COLOR", cfg.Embed.Color)
	cfg.Embed.Footer = envString("EMBED_FOOTER", cfg.Embed.Footer)
}

func BuildLogger(logCfg LogConfig) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(strings.ToLower(logCfg.Level)))

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if logCfg.File == "" {
		return logger, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   logCfg.File,
		MaxSize:    logCfg.MaxSizeMB,
		MaxBackups: logCfg.MaxBackups,
		MaxAge:     logCfg.MaxAgeDays,
		Compress:   true,
	}
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), zapcore.AddSync(rotator), cfg.Level)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 0, 64); err == nil {
			return int(parsed)
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
