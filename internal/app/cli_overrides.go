package app

import (
	"strings"

	"github.com/sthagen/pycontribs-jira/internal/errors"
)

// parseHeaderOverrides parses a flag value like
// "Authorization=Bearer x;X-Atlassian-Token=no-check" into a header map.
func parseHeaderOverrides(override string) (map[string]string, error) {
	if override == "" {
		return nil, nil
	}
	parsed := make(map[string]string)
	pairs := strings.Split(override, ";")
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Newf(errors.CodeConfigValidation,
				"malformed header override %q: expected NAME=VALUE", pair)
		}

		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, errors.Newf(errors.CodeConfigValidation,
				"malformed header override %q: empty header name", pair)
		}
		parsed[name] = strings.TrimSpace(parts[1])
	}
	return parsed, nil
}
