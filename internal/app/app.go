package app

import (
	"context"
	"net/url"

	"github.com/sthagen/pycontribs-jira/internal/config"
	"github.com/sthagen/pycontribs-jira/internal/errors"
	"github.com/sthagen/pycontribs-jira/jira"
)

// Client bundles the configured pieces a command needs to talk to a server.
type Client struct {
	Config  *config.Config
	Logger  jira.Logger
	Options *jira.Options
	Session *jira.ResilientSession
}

// Get fetches the resource of the given kind identified by ids.
func (c *Client) Get(ctx context.Context, kind jira.Kind, params url.Values, ids ...string) (jira.ResourceObject, error) {
	res, err := jira.New(kind, c.Options, c.Session)
	if err != nil {
		return nil, err
	}
	if err := res.Find(ctx, params, ids...); err != nil {
		return nil, err
	}
	return res, nil
}

// GetByURL fetches whatever resource the given self URL denotes, dispatching
// the representation from the URL path.
func (c *Client) GetByURL(ctx context.Context, selfURL string, params url.Values) (jira.ResourceObject, error) {
	kind := jira.KindFor(selfURL)
	res, err := jira.New(kind, c.Options, c.Session)
	if err != nil {
		return nil, err
	}
	if err := res.FindByURL(ctx, selfURL, params); err != nil {
		return nil, err
	}
	return res, nil
}

// Close waits for any fire-and-forget mutations still in flight.
func (c *Client) Close() error {
	if err := c.Session.Drain(); err != nil {
		return errors.Wrap(err, errors.CodeTransport, "pending background requests failed")
	}
	return nil
}
