package jira

import (
	"regexp"
	"sort"

	apperrors "github.com/sthagen/pycontribs-jira/internal/errors"
)

// Factory builds a concrete resource kind. A nil raw constructs an empty,
// unloaded resource awaiting Find; a non-nil raw hydrates it immediately.
type Factory func(opts *Options, session Session, raw map[string]any) (ResourceObject, error)

type registration struct {
	pattern *regexp.Regexp
	kind    Kind
	factory Factory
}

// registrations is consulted in declaration order and the first matching
// pattern wins. Ordering is correctness-relevant: several patterns overlap
// (a project's permission scheme vs a bare project), so the more specific
// path shapes must come first. Appending is the only supported mutation.
var registrations []registration

// Register appends a (URL-path pattern, factory) pair to the dispatch table.
// Called at package initialization; not safe for concurrent use.
func Register(pattern string, kind Kind, factory Factory) {
	registrations = append(registrations, registration{
		pattern: regexp.MustCompile(pattern),
		kind:    kind,
		factory: factory,
	})
}

// KindFor resolves the resource kind for a self URL. The lookup is total:
// URLs matching no registered pattern resolve to KindUnknown.
func KindFor(resourceURL string) Kind {
	for _, reg := range registrations {
		if reg.pattern.MatchString(resourceURL) {
			return reg.kind
		}
	}
	return KindUnknown
}

func factoryFor(resourceURL string) Factory {
	for _, reg := range registrations {
		if reg.pattern.MatchString(resourceURL) {
			return reg.factory
		}
	}
	return wrapFactory(NewUnknownResource)
}

// New constructs an empty resource of the given kind, ready for Find.
func New(kind Kind, opts *Options, session Session) (ResourceObject, error) {
	factory, ok := kindFactories[kind]
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeInternal, "no factory registered for kind %q", kind)
	}
	return factory(opts, session, nil)
}

// Kinds lists every constructible kind in sorted order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindFactories))
	for k := range kindFactories {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
