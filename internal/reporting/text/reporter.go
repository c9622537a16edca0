package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/sthagen/pycontribs-jira/jira"
	"github.com/sthagen/pycontribs-jira/pkg/convert"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `mapstructure:"no_color"`
}

// Reporter renders a fetched resource as an aligned field table on stdout.
type Reporter struct {
	config Config
	writer io.Writer
	logger jira.Logger
}

func NewReporter(cfg Config, logger jira.Logger) (*Reporter, error) {
	if cfg.NoColor || !isTerminal(os.Stdout) {
		color.NoColor = true
	}

	return &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}, nil
}

func isTerminal(f *os.File) bool {
	stat, _ := f.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) Report(ctx context.Context, res jira.ResourceObject) error {
	if res == nil || !res.Loaded() {
		fmt.Fprintln(r.writer, "No resource loaded.")
		return nil
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Fprintf(r.writer, "%s %s\n", cyan(string(res.Kind())), green(res.String()))
	if self := res.Self(); self != "" {
		fmt.Fprintf(r.writer, "%s\n", self)
	}
	fmt.Fprintln(r.writer)

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	raw := res.Raw()
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if key == "self" {
			continue
		}
		value, err := res.Field(key)
		if err != nil {
			r.logger.Warnf(ctx, "skipping field %q: %v", key, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", key, renderValue(value))
	}

	return nil
}

func renderValue(value any) string {
	switch v := value.(type) {
	case jira.ResourceObject:
		return fmt.Sprintf("%s (%s)", v.String(), v.Kind())
	case *jira.Container:
		return fmt.Sprintf("{%d fields}", v.Len())
	case []any:
		if len(v) == 0 {
			return "[]"
		}
		out := "["
		for i, elem := range v {
			if i > 0 {
				out += ", "
			}
			out += renderValue(elem)
		}
		return out + "]"
	default:
		return convert.ToString(v)
	}
}
