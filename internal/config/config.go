package config

import (
	"time"

	"github.com/sthagen/pycontribs-jira/internal/log"
	"github.com/sthagen/pycontribs-jira/jira"
)

type Config struct {
	Settings SettingsConfig `mapstructure:"settings"`
	Client   jira.Options   `mapstructure:"client"`
	Session  SessionConfig  `mapstructure:"session"`
	Output   OutputConfig   `mapstructure:"output"`
}

type SettingsConfig struct {
	LogLevel  log.Level  `mapstructure:"log_level"`
	LogFormat log.Format `mapstructure:"log_format"`
}

type SessionConfig struct {
	MaxRetries        int           `mapstructure:"max_retries"`
	MaxRetryDelay     time.Duration `mapstructure:"max_retry_delay"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
}

type OutputConfig struct {
	Format  string `mapstructure:"format" validate:"omitempty,oneof=text json"`
	NoColor bool   `mapstructure:"no_color"`
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:  log.LevelInfo,
			LogFormat: log.FormatText,
		},
		Client: *jira.DefaultOptions(),
		Session: SessionConfig{
			MaxRetryDelay: 60 * time.Second,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}
