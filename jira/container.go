package jira

import "sort"

// Container is the attribute bag produced for nested JSON objects that carry
// no self link. It has no identity of its own and cannot be fetched or
// updated independently.
type Container struct {
	fields map[string]any
}

func newContainer() *Container {
	return &Container{fields: make(map[string]any)}
}

func (c *Container) set(name string, value any) {
	c.fields[name] = value
}

func (c *Container) Get(name string) (any, bool) {
	v, ok := c.fields[name]
	return v, ok
}

func (c *Container) Has(name string) bool {
	_, ok := c.fields[name]
	return ok
}

func (c *Container) Len() int {
	return len(c.fields)
}

// Keys returns the field names in deterministic sorted order.
func (c *Container) Keys() []string {
	keys := make([]string, 0, len(c.fields))
	for k := range c.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
