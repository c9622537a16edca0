package app

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/sthagen/pycontribs-jira/internal/config"
	"github.com/sthagen/pycontribs-jira/internal/errors"
	"github.com/sthagen/pycontribs-jira/internal/log"
	"github.com/sthagen/pycontribs-jira/jira"
)

// BuildClientFromViper assembles a ready-to-use client from the merged
// configuration sources: defaults, config file, environment and flags.
func BuildClientFromViper(ctx context.Context, v *viper.Viper) (*Client, error) {
	cfg := config.DefaultConfig()
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseError, "failed to unmarshal configuration")
	}

	logCfg := log.Config{Level: cfg.Settings.LogLevel, Format: cfg.Settings.LogFormat}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
	}
	logger.Debugf(ctx, "logger initialized (level: %s, format: %s)", cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "using configuration file: %s", v.ConfigFileUsed())
	}

	if headerOverride := v.GetString("headers"); headerOverride != "" {
		overrides, err := parseHeaderOverrides(headerOverride)
		if err != nil {
			return nil, err
		}
		if cfg.Client.Headers == nil {
			cfg.Client.Headers = map[string]string{}
		}
		for k, val := range overrides {
			cfg.Client.Headers[k] = val
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	opts := cfg.Client
	opts.Logger = logger
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	session := jira.NewResilientSession(jira.SessionConfig{
		MaxRetries:        cfg.Session.MaxRetries,
		MaxRetryDelay:     cfg.Session.MaxRetryDelay,
		RequestsPerSecond: cfg.Session.RequestsPerSecond,
		DefaultHeaders:    opts.Headers,
		Logger:            logger,
	})

	return &Client{
		Config:  cfg,
		Logger:  logger,
		Options: &opts,
		Session: session,
	}, nil
}

func validateConfig(cfg *config.Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg.Output); err != nil {
		return errors.Wrap(err, errors.CodeConfigValidation, "invalid output configuration")
	}
	return nil
}
