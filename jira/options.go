package jira

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/sthagen/pycontribs-jira/internal/errors"
)

// Base URL templates combined with Options to address a resource path.
const (
	baseURLTemplate        = "{server}/rest/{rest_path}/{rest_api_version}/{path}"
	agileBaseURLTemplate   = "{server}/rest/{agile_rest_path}/{agile_rest_api_version}/{path}"
	serviceBaseURLTemplate = "{server}/rest/servicedeskapi/{path}"
)

// Options carries everything a resource needs to build URLs and decide
// mutation behavior. The same Options value is shared by every resource
// materialized from one root fetch; resources copy it before expanding
// templates and never mutate it in place.
type Options struct {
	Server              string            `mapstructure:"server" validate:"required,url"`
	RestPath            string            `mapstructure:"rest_path" validate:"required"`
	RestAPIVersion      string            `mapstructure:"rest_api_version" validate:"required"`
	AgileRestPath       string            `mapstructure:"agile_rest_path"`
	AgileRestAPIVersion string            `mapstructure:"agile_rest_api_version"`
	Async               bool              `mapstructure:"async"`
	AutoFix             string            `mapstructure:"autofix"`
	DelayReload         time.Duration     `mapstructure:"delay_reload"`
	Headers             map[string]string `mapstructure:"headers"`
	Logger              Logger            `mapstructure:"-"`
}

func DefaultOptions() *Options {
	return &Options{
		RestPath:            "api",
		RestAPIVersion:      "2",
		AgileRestPath:       "agile",
		AgileRestAPIVersion: "1.0",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

func (o *Options) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(o); err != nil {
		var details strings.Builder
		details.WriteString("client options validation failed:")
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				details.WriteString(fmt.Sprintf(" field '%s' failed '%s';", fe.Namespace(), fe.Tag()))
			}
		}
		return apperrors.New(apperrors.CodeConfigValidation, details.String())
	}
	return nil
}

func (o *Options) logger() Logger {
	if o == nil || o.Logger == nil {
		return nopLogger{}
	}
	return o.Logger
}

// templateVars returns a fresh map of template variables so concurrent
// resources sharing one Options never observe interleaved mutation.
func (o *Options) templateVars() map[string]string {
	return map[string]string{
		"server":                 strings.TrimRight(o.Server, "/"),
		"rest_path":              o.RestPath,
		"rest_api_version":       o.RestAPIVersion,
		"agile_rest_path":        o.AgileRestPath,
		"agile_rest_api_version": o.AgileRestAPIVersion,
	}
}

var namedVarPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

func expandTemplate(template string, vars map[string]string) string {
	return namedVarPattern.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}

var positionalVarPattern = regexp.MustCompile(`\{(\d+)\}`)

// expandPath fills positional placeholders like "issue/{0}/comment/{1}" from
// ids. An id count that does not cover every placeholder is an error.
func expandPath(template string, ids ...string) (string, error) {
	var missing string
	out := positionalVarPattern.ReplaceAllStringFunc(template, func(m string) string {
		idx, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || idx >= len(ids) {
			missing = m
			return m
		}
		return ids[idx]
	})
	if missing != "" {
		return "", apperrors.Newf(apperrors.CodeInternal,
			"resource path %q: no identifier for placeholder %s", template, missing)
	}
	return out, nil
}
