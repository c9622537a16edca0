package json

import (
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/sthagen/pycontribs-jira/jira"
)

const ReporterTypeJSON = "json"

type Config struct{}

// Reporter writes the resource's raw server payload as indented JSON.
type Reporter struct {
	config Config
	writer io.Writer
	logger jira.Logger
}

func NewReporter(cfg Config, logger jira.Logger) (*Reporter, error) {
	return &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}, nil
}

func (r *Reporter) Report(ctx context.Context, res jira.ResourceObject) error {
	if res == nil || !res.Loaded() {
		fmt.Fprintln(r.writer, "{}")
		return nil
	}

	encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(res.Raw()); err != nil {
		r.logger.Errorf(ctx, err, "failed to encode resource as JSON")
		return fmt.Errorf("encoding resource as JSON: %w", err)
	}
	return nil
}
