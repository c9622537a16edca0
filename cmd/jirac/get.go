package main

import (
	"context"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sthagen/pycontribs-jira/internal/app"
	apperrors "github.com/sthagen/pycontribs-jira/internal/errors"
	jsonreport "github.com/sthagen/pycontribs-jira/internal/reporting/json"
	"github.com/sthagen/pycontribs-jira/internal/reporting/text"
	"github.com/sthagen/pycontribs-jira/jira"
)

var (
	getURL    string
	getParams []string
)

var getCmd = &cobra.Command{
	Use:   "get KIND ID [ID...]",
	Short: "Fetch a resource by kind and identifier, or by its URL.",
	Long: `Fetches a single resource and renders it. Identifiers fill the kind's
resource path positionally, so nested kinds take several:

  jirac get issue FOO-17
  jirac get comment FOO-17 10023
  jirac get --url https://jira.example.com/rest/api/2/project/FOO`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, err := app.BuildClientFromViper(ctx, viper.GetViper())
		if err != nil {
			return err
		}
		defer client.Close()

		params, err := parseParams(getParams)
		if err != nil {
			return err
		}

		var res jira.ResourceObject
		switch {
		case getURL != "":
			res, err = client.GetByURL(ctx, getURL, params)
		case len(args) >= 1:
			kind, kerr := resolveKind(args[0])
			if kerr != nil {
				return kerr
			}
			res, err = client.Get(ctx, kind, params, args[1:]...)
		default:
			return apperrors.New(apperrors.CodeConfigValidation,
				"either KIND and ID arguments or --url is required")
		}
		if err != nil {
			return err
		}

		return report(ctx, client, res)
	},
}

func init() {
	getCmd.Flags().StringVar(&getURL, "url", "", "Fetch by resource URL instead of kind and identifier")
	getCmd.Flags().StringArrayVar(&getParams, "param", nil, "Query parameter as key=value (repeatable)")
	rootCmd.AddCommand(getCmd)
}

func resolveKind(name string) (jira.Kind, error) {
	for _, kind := range jira.Kinds() {
		if strings.EqualFold(string(kind), name) {
			return kind, nil
		}
	}
	return "", apperrors.Newf(apperrors.CodeConfigValidation, "unknown resource kind %q", name)
}

func parseParams(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := url.Values{}
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, apperrors.Newf(apperrors.CodeConfigValidation,
				"malformed query parameter %q: expected key=value", pair)
		}
		params.Add(parts[0], parts[1])
	}
	return params, nil
}

func report(ctx context.Context, client *app.Client, res jira.ResourceObject) error {
	if client.Config.Output.Format == jsonreport.ReporterTypeJSON {
		reporter, err := jsonreport.NewReporter(jsonreport.Config{}, client.Logger)
		if err != nil {
			return err
		}
		return reporter.Report(ctx, res)
	}

	reporter, err := text.NewReporter(text.Config{NoColor: client.Config.Output.NoColor}, client.Logger)
	if err != nil {
		return err
	}
	return reporter.Report(ctx, res)
}
