package jira

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/sthagen/pycontribs-jira/internal/errors"
	"github.com/sthagen/pycontribs-jira/pkg/convert"
)

// Kind names a concrete resource representation. The registry resolves a
// Kind from the path of a resource's self URL.
type Kind string

// ResourceObject is what the materializer produces for every JSON object
// carrying a self link. All concrete kinds embed Resource and satisfy it.
type ResourceObject interface {
	Kind() Kind
	Self() string
	Raw() map[string]any
	Loaded() bool
	Field(name string) (any, error)
	Find(ctx context.Context, params url.Values, ids ...string) error
	FindByURL(ctx context.Context, fullURL string, params url.Values) error
	Update(ctx context.Context, fields map[string]any, uo *UpdateOptions) error
	Delete(ctx context.Context, params url.Values) (*Response, error)
	fmt.Stringer
}

// Field names most likely to uniquely identify a resource, in priority
// order. Equality and hashing are defined over this list only.
var hashIDFields = [...]string{"self", "type", "key", "id", "name"}

// Field names most likely to hold a human-readable name, in priority order.
var readableIDFields = [...]string{
	"displayName", "key", "name", "accountId", "filename",
	"value", "scope", "votes", "id", "mimeType", "closed",
}

// Resource models a URL-addressable entity on the server. It is constructed
// either empty (raw nil, awaiting Find) or hydrated from a JSON object. The
// last-fetched snapshot is replaced wholesale by Find and Update, never
// merged field by field. Delete removes the server-side entity only; the
// local object remains as a stale handle.
type Resource struct {
	kind         Kind
	resourcePath string
	baseURL      string
	opts         *Options
	session      Session
	logger       Logger

	raw   map[string]any
	attrs *Container
}

func newResource(kind Kind, resourcePath, baseURL string, opts *Options, session Session) Resource {
	return Resource{
		kind:         kind,
		resourcePath: resourcePath,
		baseURL:      baseURL,
		opts:         opts,
		session:      session,
		logger:       opts.logger().WithFields(map[string]any{"kind": string(kind)}),
	}
}

// init hydrates the resource when a raw payload is supplied at construction.
func (r *Resource) init(raw map[string]any) error {
	if raw == nil {
		return nil
	}
	return r.parseRaw(raw)
}

func (r *Resource) parseRaw(raw map[string]any) error {
	if len(raw) == 0 {
		return apperrors.Newf(apperrors.CodeConstruction,
			"cannot instantiate an empty %s resource", r.kind)
	}
	r.raw = raw
	r.attrs = newContainer()
	return materializeInto(raw, r.attrs.set, r.opts, r.session)
}

func (r *Resource) Kind() Kind { return r.kind }

func (r *Resource) Loaded() bool { return r.raw != nil }

// Raw returns the last-fetched JSON snapshot, or nil if never loaded.
func (r *Resource) Raw() map[string]any { return r.raw }

func (r *Resource) Self() string {
	if r.raw == nil {
		return ""
	}
	self, _ := r.raw["self"].(string)
	return self
}

// Field returns the materialized value for any key present in the loaded
// payload. Missing keys fail with a field-access error naming the field.
func (r *Resource) Field(name string) (any, error) {
	if r.attrs != nil {
		if v, ok := r.attrs.Get(name); ok {
			return v, nil
		}
	}
	if r.raw != nil {
		if v, ok := r.raw[name]; ok {
			return v, nil
		}
	}
	return nil, apperrors.Newf(apperrors.CodeFieldAccess,
		"%s resource has no attribute %q", r.kind, name)
}

// String picks the first present readable field, appending any child
// sub-resource to support nested select options. With nothing readable it
// falls back to a generic placeholder.
func (r *Resource) String() string {
	if r.raw != nil {
		for _, name := range readableIDFields {
			if v, ok := r.raw[name]; ok {
				pretty := convert.ToString(v)
				if r.attrs != nil {
					if child, ok := r.attrs.Get("child"); ok {
						pretty += " - " + convert.ToString(child)
					}
				}
				return pretty
			}
		}
	}
	return fmt.Sprintf("<JIRA %s at %p>", r.kind, r)
}

// Equal reports whether other denotes the same server entity: the concrete
// kinds must match and every identity field present on r must be present and
// equal on other.
func (r *Resource) Equal(other ResourceObject) bool {
	if other == nil || other.Kind() != r.kind {
		return false
	}
	for _, name := range hashIDFields {
		mine, ok := r.identityField(name)
		if !ok {
			continue
		}
		theirs, err := other.Field(name)
		if err != nil {
			return false
		}
		if !convert.LooseEqual(mine, theirs) {
			return false
		}
	}
	return true
}

// HashKey folds the present identity fields, in priority order, into a
// stable hash. A resource with none of them is unhashable and fails loudly.
func (r *Resource) HashKey() (uint64, error) {
	h := fnv.New64a()
	h.Write([]byte(r.kind))
	found := false
	for _, name := range hashIDFields {
		if v, ok := r.identityField(name); ok {
			found = true
			h.Write([]byte{0})
			h.Write([]byte(name))
			h.Write([]byte{0})
			h.Write([]byte(convert.ToString(v)))
		}
	}
	if !found {
		return 0, apperrors.Newf(apperrors.CodeNotHashable, "%s resource is not hashable", r.kind)
	}
	return h.Sum64(), nil
}

func (r *Resource) identityField(name string) (any, bool) {
	if r.raw == nil {
		return nil, false
	}
	v, ok := r.raw[name]
	return v, ok
}

func (r *Resource) getURL(path string) string {
	vars := r.opts.templateVars()
	vars["path"] = path
	return expandTemplate(r.baseURL, vars)
}

// Find loads the resource identified by ids, substituted positionally into
// the resource path template. Retry is the session's responsibility; none
// happens at this layer.
func (r *Resource) Find(ctx context.Context, params url.Values, ids ...string) error {
	path, err := expandPath(r.resourcePath, ids...)
	if err != nil {
		return err
	}
	return r.FindByURL(ctx, r.getURL(path), params)
}

// FindByURL loads the resource from an explicit URL, bypassing the resource
// path template.
func (r *Resource) FindByURL(ctx context.Context, fullURL string, params url.Values) error {
	return r.load(ctx, fullURL, nil, params)
}

func (r *Resource) load(ctx context.Context, fullURL string, headers map[string]string, params url.Values) error {
	resp, err := r.session.Get(ctx, fullURL, headers, params)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeTransport, "GET "+fullURL)
	}
	if resp.StatusCode >= 400 {
		return r.statusError(ctx, resp, apperrors.CodeTransport, "GET "+fullURL)
	}
	raw, err := resp.JSONMap()
	if err != nil {
		r.logger.Errorf(ctx, err, "failed to decode response from %s", fullURL)
		return err
	}
	return r.parseRaw(raw)
}

// setSelf overrides the recorded canonical URL. Some endpoints (issue
// properties) omit self from their payloads.
func (r *Resource) setSelf(fullURL string) {
	if r.raw == nil {
		r.raw = map[string]any{}
	}
	r.raw["self"] = fullURL
	if r.attrs != nil {
		r.attrs.set("self", fullURL)
	}
}

// validateSelfURL rewrites the canonical URL's scheme and host to the
// configured server's when they differ, preserving path, query and fragment.
// Happens before every mutation so a client traversing a proxy hostname
// still writes to the configured server.
func (r *Resource) validateSelfURL() {
	self := r.Self()
	if self == "" {
		return
	}
	selfParsed, err := url.Parse(self)
	if err != nil {
		return
	}
	serverParsed, err := url.Parse(r.opts.Server)
	if err != nil {
		return
	}
	if selfParsed.Host == serverParsed.Host {
		return
	}
	selfParsed.Scheme = serverParsed.Scheme
	selfParsed.Host = serverParsed.Host
	r.setSelf(selfParsed.String())
}

// UpdateOptions tunes a single Update call. The zero value notifies
// watchers, inherits the async flag from Options and applies no extras.
type UpdateOptions struct {
	// SuppressNotify sets notifyUsers=false on the request. Admin or project
	// admin permissions are required server-side.
	SuppressNotify bool
	// Async overrides Options.Async when non-nil.
	Async *bool
	// Provisioner, when set, lets the auto-repair protocol create
	// placeholder accounts for users the server does not know.
	Provisioner UserProvisioner
	// Extra is merged into the payload after fields.
	Extra map[string]any
}

func (uo *UpdateOptions) async(opts *Options) bool {
	if uo != nil && uo.Async != nil {
		return *uo.Async
	}
	return opts.Async
}

// Server error texts the auto-repair protocol knows how to remediate. The
// matching is inherently fragile against server message changes; the set is
// closed on purpose.
const (
	errReporterNotUser = "The reporter specified is not a user."
	errMustBeAssigned  = "Issues must be assigned."
	errSubtaskNoParent = "Issue type is a sub-task but parent issue key or id not specified."
	errSummaryNewlines = "The summary is invalid because it contains newline characters."
)

var (
	userNotFoundPattern  = regexp.MustCompile(`^User '(.*)' was not found in the system\.`)
	userNotExistsPattern = regexp.MustCompile(`^User '(.*)' does not exist\.`)
)

// Update writes fields (plus uo.Extra) to the resource's canonical URL and,
// on success, re-fetches the resource after the configured reload delay.
// When an auto-repair identity is configured, a 400 response triggers the
// remediation heuristics and exactly one retried PUT.
func (r *Resource) Update(ctx context.Context, fields map[string]any, uo *UpdateOptions) error {
	data := map[string]any{}
	for k, v := range fields {
		data[k] = v
	}
	if uo != nil {
		for k, v := range uo.Extra {
			data[k] = v
		}
	}

	querystring := ""
	if uo != nil && uo.SuppressNotify {
		querystring = "?notifyUsers=false"
	}

	r.validateSelfURL()
	self := r.Self()

	resp, err := r.session.Put(ctx, self+querystring, data)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeTransport, "PUT "+self)
	}

	switch {
	case r.opts.AutoFix != "" && resp.StatusCode == 400:
		if err := r.autoFixRetry(ctx, resp, data, uo); err != nil {
			return err
		}
	case resp.StatusCode >= 400:
		return r.statusError(ctx, resp, apperrors.CodeMutationRejected, "PUT "+self)
	}

	if err := sleepCtx(ctx, r.opts.DelayReload); err != nil {
		return err
	}
	return r.load(ctx, self, nil, nil)
}

// autoFixRetry applies whichever known remediations match the server's
// structured error list, then issues exactly one retried PUT (or enqueues it
// when async mode is requested). A failing retry surfaces; there is no loop.
func (r *Resource) autoFixRetry(ctx context.Context, resp *Response, data map[string]any, uo *UpdateOptions) error {
	errorList := parseErrorList(resp)
	r.logger.Errorf(ctx, nil, "update rejected by server: %s", strings.Join(errorList, "; "))

	fieldsMap, _ := data["fields"].(map[string]any)
	autofix := r.opts.AutoFix

	var missingUser string
	for _, msg := range errorList {
		switch {
		case msg == errReporterNotUser:
			if fieldsMap != nil && !hasKey(fieldsMap, "reporter") {
				r.logger.Warnf(ctx, "autofix: setting reporter to %q and retrying the update", autofix)
				fieldsMap["reporter"] = map[string]any{"name": autofix}
			}
		case msg == errMustBeAssigned:
			if fieldsMap != nil && !hasKey(fieldsMap, "assignee") {
				r.logger.Warnf(ctx, "autofix: setting assignee to %q and retrying the update", autofix)
				fieldsMap["assignee"] = map[string]any{"name": autofix}
			}
		case msg == errSubtaskNoParent:
			if fieldsMap != nil {
				r.logger.Warnf(ctx, "autofix: recasting parentless sub-task to Bug")
				fieldsMap["issuetype"] = map[string]any{"name": "Bug"}
			}
		case msg == errSummaryNewlines:
			if fieldsMap != nil {
				r.logger.Warnf(ctx, "autofix: stripping newlines from summary")
				fieldsMap["summary"] = stripNewlines(r.currentSummary(fieldsMap))
			}
		default:
			if m := userNotFoundPattern.FindStringSubmatch(msg); m != nil {
				missingUser = m[1]
			} else if m := userNotExistsPattern.FindStringSubmatch(msg); m != nil {
				missingUser = m[1]
			}
		}
	}

	if missingUser != "" && uo != nil && uo.Provisioner != nil {
		r.logger.Warnf(ctx, "autofix: provisioning missing user %q to complete the failed update", missingUser)
		if err := uo.Provisioner.AddUser(ctx, missingUser, "noreply@example.com", false); err != nil {
			return apperrors.Wrap(err, apperrors.CodeProvisioning,
				"provisioning user "+missingUser)
		}
	}

	self := r.Self()
	if uo.async(r.opts) {
		r.session.Enqueue(func(jobCtx context.Context) error {
			_, err := r.session.Put(jobCtx, self, data)
			return err
		})
		return nil
	}

	retry, err := r.session.Put(ctx, self, data)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeTransport, "PUT "+self)
	}
	if retry.StatusCode >= 400 {
		return r.statusError(ctx, retry, apperrors.CodeMutationRejected, "PUT "+self+" (after autofix)")
	}
	return nil
}

func (r *Resource) currentSummary(fieldsMap map[string]any) string {
	if s, ok := fieldsMap["summary"].(string); ok {
		return s
	}
	if rawFields, ok := r.raw["fields"].(map[string]any); ok {
		if s, ok := rawFields["summary"].(string); ok {
			return s
		}
	}
	return ""
}

// Delete removes the server-side entity. The in-memory object keeps its
// last snapshot and must be treated as stale afterward. In async mode the
// delete is enqueued and no response is returned.
func (r *Resource) Delete(ctx context.Context, params url.Values) (*Response, error) {
	r.validateSelfURL()
	self := r.Self()

	if r.opts.Async {
		r.session.Enqueue(func(jobCtx context.Context) error {
			_, err := r.session.Delete(jobCtx, self, params)
			return err
		})
		return nil, nil
	}

	resp, err := r.session.Delete(ctx, self, params)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "DELETE "+self)
	}
	if resp.StatusCode >= 400 {
		return resp, r.statusError(ctx, resp, apperrors.CodeMutationRejected, "DELETE "+self)
	}
	return resp, nil
}

func (r *Resource) statusError(ctx context.Context, resp *Response, code apperrors.Code, op string) error {
	if resp.StatusCode == 404 {
		code = apperrors.CodeNotFound
	}
	errorList := parseErrorList(resp)
	if len(errorList) > 0 {
		r.logger.Warnf(ctx, "%s returned %d: %s", op, resp.StatusCode, strings.Join(errorList, "; "))
	}
	return apperrors.Newf(code, "%s returned status %d", op, resp.StatusCode).
		WithDetails(strings.Join(errorList, "; "))
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func stripNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "")
	return strings.ReplaceAll(s, "\n", "")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), apperrors.CodeTransport, "canceled while waiting for server to settle")
	case <-time.After(d):
		return nil
	}
}
