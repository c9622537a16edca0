package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apperrors "github.com/sthagen/pycontribs-jira/internal/errors"
)

var (
	cfgFile         string
	logLevel        string
	logFormat       string
	server          string
	outputFormat    string
	headersOverride string
)

var rootCmd = &cobra.Command{
	Use:   "jirac",
	Short: "Fetches and renders resources from a Jira REST API server.",
	Long: `jirac addresses any REST resource of a Jira server by kind and
identifier, fetches it and renders its fields, resolving nested objects to
their typed representations along the way.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	SilenceUsage: true,
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if appErr := (*apperrors.AppError)(nil); errors.As(err, &appErr) {
			fmt.Fprintf(os.Stderr, "ERROR [%s]: %s\n", appErr.Code, appErr.Message)
			if appErr.Details != "" {
				fmt.Fprintf(os.Stderr, "Details: %s\n", appErr.Details)
			}
		} else {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default is .jirac.yaml in . or $HOME)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log format (text, json)")
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", "", "Base URL of the Jira server")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "Output format (text, json)")
	rootCmd.PersistentFlags().StringVar(&headersOverride, "headers", "", "Extra request headers (e.g. 'Authorization=Bearer x;X-Foo=1')")

	viper.BindPFlag("settings.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("settings.log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("client.server", rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("headers", rootCmd.PersistentFlags().Lookup("headers"))

	viper.SetEnvPrefix("JIRA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func initializeConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".jirac")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return apperrors.Wrap(err, apperrors.CodeConfigReadError, "failed to read config file")
		}
	}

	return nil
}
