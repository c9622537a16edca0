package jira

import "sort"

// The materializer walks a raw JSON object and produces a mixed graph of
// typed resources and plain containers. Any nested object carrying a "self"
// link becomes the registered resource kind for that URL; everything else
// stays a Container. Sequences keep their element order; scalars pass through
// unchanged.

func materializeInto(raw map[string]any, set func(name string, value any), opts *Options, session Session) error {
	for _, key := range sortedKeys(raw) {
		value, err := materializeValue(key, raw[key], opts, session)
		if err != nil {
			return err
		}
		set(key, value)
	}
	return nil
}

func materializeValue(key string, value any, opts *Options, session Session) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		if _, ok := v["self"]; ok {
			selfURL, _ := v["self"].(string)
			return factoryFor(selfURL)(opts, session, v)
		}
		// Time-tracking blocks have a dedicated shape but no self link.
		if key == "timetracking" {
			return NewTimeTracking(opts, session, v)
		}
		sub := newContainer()
		if err := materializeInto(v, sub.set, opts, session); err != nil {
			return nil, err
		}
		return sub, nil
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			m, err := materializeValue(key, elem, opts, session)
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
		return out, nil
	default:
		return value, nil
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Go maps are unordered; sorted traversal keeps materialization
	// deterministic across runs.
	sort.Strings(keys)
	return keys
}
