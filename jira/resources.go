package jira

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/sthagen/pycontribs-jira/internal/errors"
	"github.com/sthagen/pycontribs-jira/pkg/convert"
)

const (
	KindAttachment               Kind = "Attachment"
	KindComponent                Kind = "Component"
	KindCustomFieldOption        Kind = "CustomFieldOption"
	KindDashboard                Kind = "Dashboard"
	KindDashboardItemPropertyKey Kind = "DashboardItemPropertyKey"
	KindDashboardItemProperty    Kind = "DashboardItemProperty"
	KindDashboardGadget          Kind = "DashboardGadget"
	KindField                    Kind = "Field"
	KindFilter                   Kind = "Filter"
	KindIssue                    Kind = "Issue"
	KindComment                  Kind = "Comment"
	KindPinnedComment            Kind = "PinnedComment"
	KindRemoteLink               Kind = "RemoteLink"
	KindVotes                    Kind = "Votes"
	KindWatchers                 Kind = "Watchers"
	KindTimeTracking             Kind = "TimeTracking"
	KindWorklog                  Kind = "Worklog"
	KindIssueProperty            Kind = "IssueProperty"
	KindIssueLink                Kind = "IssueLink"
	KindIssueLinkType            Kind = "IssueLinkType"
	KindIssueType                Kind = "IssueType"
	KindIssueTypeScheme          Kind = "IssueTypeScheme"
	KindIssueSecurityLevelScheme Kind = "IssueSecurityLevelScheme"
	KindNotificationScheme       Kind = "NotificationScheme"
	KindPermissionScheme         Kind = "PermissionScheme"
	KindPriorityScheme           Kind = "PriorityScheme"
	KindWorkflowScheme           Kind = "WorkflowScheme"
	KindPriority                 Kind = "Priority"
	KindProject                  Kind = "Project"
	KindRole                     Kind = "Role"
	KindResolution               Kind = "Resolution"
	KindSecurityLevel            Kind = "SecurityLevel"
	KindStatus                   Kind = "Status"
	KindStatusCategory           Kind = "StatusCategory"
	KindUser                     Kind = "User"
	KindGroup                    Kind = "Group"
	KindVersion                  Kind = "Version"
	KindSprint                   Kind = "Sprint"
	KindBoard                    Kind = "Board"
	KindCustomer                 Kind = "Customer"
	KindServiceDesk              Kind = "ServiceDesk"
	KindRequestType              Kind = "RequestType"
	KindUnknown                  Kind = "Unknown"
)

func wrapFactory[T ResourceObject](fn func(*Options, Session, map[string]any) (T, error)) Factory {
	return func(opts *Options, session Session, raw map[string]any) (ResourceObject, error) {
		return fn(opts, session, raw)
	}
}

var kindFactories = map[Kind]Factory{}

func register(pattern string, kind Kind, factory Factory) {
	Register(pattern, kind, factory)
	kindFactories[kind] = factory
}

func registerUnrouted(kind Kind, factory Factory) {
	kindFactories[kind] = factory
}

func init() {
	// Declaration order mirrors the server's URL space from most to least
	// specific where patterns overlap; first match wins.
	register(`attachment/[^/]+$`, KindAttachment, wrapFactory(NewAttachment))
	register(`component/[^/]+$`, KindComponent, wrapFactory(NewComponent))
	register(`customFieldOption/[^/]+$`, KindCustomFieldOption, wrapFactory(NewCustomFieldOption))
	register(`dashboard/[^/]+$`, KindDashboard, wrapFactory(NewDashboard))
	register(`dashboard/[^/]+/items/[^/]+/properties$`, KindDashboardItemPropertyKey, wrapFactory(NewDashboardItemPropertyKey))
	register(`dashboard/[^/]+/items/[^/]+/properties/[^/]+$`, KindDashboardItemProperty, wrapFactory(NewDashboardItemProperty))
	register(`dashboard/[^/]+/gadget/[^/]+$`, KindDashboardGadget, wrapFactory(NewDashboardGadget))
	register(`filter/[^/]+$`, KindFilter, wrapFactory(NewFilter))
	register(`issue/[^/]+$`, KindIssue, wrapFactory(NewIssue))
	register(`issue/[^/]+/comment/[^/]+$`, KindComment, wrapFactory(NewComment))
	register(`issue/[^/]+/pinned-comments$`, KindPinnedComment, wrapFactory(NewPinnedComment))
	register(`issue/[^/]+/votes$`, KindVotes, wrapFactory(NewVotes))
	register(`issue/[^/]+/watchers$`, KindWatchers, wrapFactory(NewWatchers))
	register(`issue/[^/]+/worklog/[^/]+$`, KindWorklog, wrapFactory(NewWorklog))
	register(`issue/[^/]+/properties/[^/]+$`, KindIssueProperty, wrapFactory(NewIssueProperty))
	register(`issueLink/[^/]+$`, KindIssueLink, wrapFactory(NewIssueLink))
	register(`issueLinkType/[^/]+$`, KindIssueLinkType, wrapFactory(NewIssueLinkType))
	register(`issuetype/[^/]+$`, KindIssueType, wrapFactory(NewIssueType))
	register(`issuetypescheme/[^/]+$`, KindIssueTypeScheme, wrapFactory(NewIssueTypeScheme))
	register(`project/[^/]+/issuesecuritylevelscheme[^/]+$`, KindIssueSecurityLevelScheme, wrapFactory(NewIssueSecurityLevelScheme))
	register(`project/[^/]+/notificationscheme[^/]+$`, KindNotificationScheme, wrapFactory(NewNotificationScheme))
	register(`project/[^/]+/priorityscheme[^/]+$`, KindPriorityScheme, wrapFactory(NewPriorityScheme))
	register(`priority/[^/]+$`, KindPriority, wrapFactory(NewPriority))
	register(`project/[^/]+$`, KindProject, wrapFactory(NewProject))
	register(`project/[^/]+/role/[^/]+$`, KindRole, wrapFactory(NewRole))
	register(`project/[^/]+/permissionscheme[^/]+$`, KindPermissionScheme, wrapFactory(NewPermissionScheme))
	register(`project/[^/]+/workflowscheme[^/]+$`, KindWorkflowScheme, wrapFactory(NewWorkflowScheme))
	register(`resolution/[^/]+$`, KindResolution, wrapFactory(NewResolution))
	register(`securitylevel/[^/]+$`, KindSecurityLevel, wrapFactory(NewSecurityLevel))
	register(`status/[^/]+$`, KindStatus, wrapFactory(NewStatus))
	register(`statuscategory/[^/]+$`, KindStatusCategory, wrapFactory(NewStatusCategory))
	register(`user\?(username|key|accountId).+$`, KindUser, wrapFactory(NewUser))
	register(`group\?groupname.+$`, KindGroup, wrapFactory(NewGroup))
	register(`version/[^/]+$`, KindVersion, wrapFactory(NewVersion))
	register(`sprints/[^/]+$`, KindSprint, wrapFactory(NewSprint))
	register(`views/[^/]+$`, KindBoard, wrapFactory(NewBoard))

	// Kinds never dispatched from a self URL but still constructible.
	registerUnrouted(KindField, wrapFactory(NewField))
	registerUnrouted(KindRemoteLink, wrapFactory(NewRemoteLink))
	registerUnrouted(KindTimeTracking, wrapFactory(NewTimeTracking))
	registerUnrouted(KindCustomer, wrapFactory(NewCustomer))
	registerUnrouted(KindServiceDesk, wrapFactory(NewServiceDesk))
	registerUnrouted(KindRequestType, wrapFactory(NewRequestType))
	registerUnrouted(KindUnknown, wrapFactory(NewUnknownResource))
}

// An issue attachment.
type Attachment struct{ Resource }

func NewAttachment(opts *Options, session Session, raw map[string]any) (*Attachment, error) {
	a := &Attachment{newResource(KindAttachment, "attachment/{0}", baseURLTemplate, opts, session)}
	if err := a.init(raw); err != nil {
		return nil, err
	}
	return a, nil
}

// Content downloads the attached file.
func (a *Attachment) Content(ctx context.Context) ([]byte, error) {
	contentURL, err := a.Field("content")
	if err != nil {
		return nil, err
	}
	target, ok := contentURL.(string)
	if !ok {
		return nil, apperrors.New(apperrors.CodeFieldAccess, "attachment content URL is not a string")
	}
	resp, err := a.session.Get(ctx, target, map[string]string{"Accept": "*/*"}, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "GET "+target)
	}
	if resp.StatusCode >= 400 {
		return nil, a.statusError(ctx, resp, apperrors.CodeTransport, "GET "+target)
	}
	return resp.Body, nil
}

// A project component.
type Component struct{ Resource }

func NewComponent(opts *Options, session Session, raw map[string]any) (*Component, error) {
	c := &Component{newResource(KindComponent, "component/{0}", baseURLTemplate, opts, session)}
	if err := c.init(raw); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteWithMove deletes the component, moving any issues it is applied to
// onto moveIssuesTo when given.
func (c *Component) DeleteWithMove(ctx context.Context, moveIssuesTo string) (*Response, error) {
	params := url.Values{}
	if moveIssuesTo != "" {
		params.Set("moveIssuesTo", moveIssuesTo)
	}
	return c.Delete(ctx, params)
}

// An existing option for a custom issue field.
type CustomFieldOption struct{ Resource }

func NewCustomFieldOption(opts *Options, session Session, raw map[string]any) (*CustomFieldOption, error) {
	o := &CustomFieldOption{newResource(KindCustomFieldOption, "customFieldOption/{0}", baseURLTemplate, opts, session)}
	if err := o.init(raw); err != nil {
		return nil, err
	}
	return o, nil
}

// A dashboard.
type Dashboard struct {
	Resource
	Gadgets []*DashboardGadget
}

func NewDashboard(opts *Options, session Session, raw map[string]any) (*Dashboard, error) {
	d := &Dashboard{Resource: newResource(KindDashboard, "dashboard/{0}", baseURLTemplate, opts, session)}
	if err := d.init(raw); err != nil {
		return nil, err
	}
	return d, nil
}

// A dashboard item property key.
type DashboardItemPropertyKey struct{ Resource }

func NewDashboardItemPropertyKey(opts *Options, session Session, raw map[string]any) (*DashboardItemPropertyKey, error) {
	k := &DashboardItemPropertyKey{newResource(KindDashboardItemPropertyKey, "dashboard/{0}/items/{1}/properties", baseURLTemplate, opts, session)}
	if err := k.init(raw); err != nil {
		return nil, err
	}
	return k, nil
}

// A dashboard item property.
type DashboardItemProperty struct{ Resource }

func NewDashboardItemProperty(opts *Options, session Session, raw map[string]any) (*DashboardItemProperty, error) {
	p := &DashboardItemProperty{newResource(KindDashboardItemProperty, "dashboard/{0}/items/{1}/properties/{2}", baseURLTemplate, opts, session)}
	if err := p.init(raw); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateValue merges value into the targeted property and writes it back,
// returning a fresh handle on the updated property.
func (p *DashboardItemProperty) UpdateValue(ctx context.Context, dashboardID, itemID string, value map[string]any) (*DashboardItemProperty, error) {
	key, err := p.Field("key")
	if err != nil {
		return nil, err
	}
	current, _ := p.raw["value"].(map[string]any)
	if current == nil {
		current = map[string]any{}
		p.raw["value"] = current
	}
	for k, v := range value {
		current[k] = v
	}
	path := fmt.Sprintf("dashboard/%s/items/%s/properties/%s", dashboardID, itemID, convert.ToString(key))
	resp, err := p.session.Put(ctx, p.getURL(path), current)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "PUT "+path)
	}
	if resp.StatusCode >= 400 {
		return nil, p.statusError(ctx, resp, apperrors.CodeMutationRejected, "PUT "+path)
	}
	return NewDashboardItemProperty(p.opts, p.session, p.raw)
}

// DeleteProperty removes the property from the given dashboard item.
func (p *DashboardItemProperty) DeleteProperty(ctx context.Context, dashboardID, itemID string) (*Response, error) {
	key, err := p.Field("key")
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("dashboard/%s/items/%s/properties/%s", dashboardID, itemID, convert.ToString(key))
	resp, err := p.session.Delete(ctx, p.getURL(path), nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "DELETE "+path)
	}
	if resp.StatusCode >= 400 {
		return resp, p.statusError(ctx, resp, apperrors.CodeMutationRejected, "DELETE "+path)
	}
	return resp, nil
}

// A dashboard gadget.
type DashboardGadget struct {
	Resource
	ItemProperties []*DashboardItemProperty
}

func NewDashboardGadget(opts *Options, session Session, raw map[string]any) (*DashboardGadget, error) {
	g := &DashboardGadget{Resource: newResource(KindDashboardGadget, "dashboard/{0}/gadget/{1}", baseURLTemplate, opts, session)}
	if err := g.init(raw); err != nil {
		return nil, err
	}
	return g, nil
}

// UpdateGadget writes the non-empty attributes, then re-reads the dashboard's
// gadget list to return the updated gadget.
func (g *DashboardGadget) UpdateGadget(ctx context.Context, dashboardID, color string, position map[string]any, title string) (*DashboardGadget, error) {
	id, err := g.Field("id")
	if err != nil {
		return nil, err
	}
	data := map[string]any{}
	if color != "" {
		data["color"] = color
	}
	if position != nil {
		data["position"] = position
	}
	if title != "" {
		data["title"] = title
	}
	path := fmt.Sprintf("dashboard/%s/gadget/%s", dashboardID, convert.ToString(id))
	resp, err := g.session.Put(ctx, g.getURL(path), data)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "PUT "+path)
	}
	if resp.StatusCode >= 400 {
		return nil, g.statusError(ctx, resp, apperrors.CodeMutationRejected, "PUT "+path)
	}

	listPath := fmt.Sprintf("dashboard/%s/gadget", dashboardID)
	listResp, err := g.session.Get(ctx, g.getURL(listPath), nil, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "GET "+listPath)
	}
	listing, err := listResp.JSONMap()
	if err != nil {
		return nil, err
	}
	gadgets, _ := listing["gadgets"].([]any)
	for _, entry := range gadgets {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if convert.LooseEqual(m["id"], id) {
			return NewDashboardGadget(g.opts, g.session, m)
		}
	}
	return nil, apperrors.Newf(apperrors.CodeNotFound, "gadget %s not present on dashboard %s after update", convert.ToString(id), dashboardID)
}

// DeleteGadget removes the gadget from the given dashboard.
func (g *DashboardGadget) DeleteGadget(ctx context.Context, dashboardID string) (*Response, error) {
	id, err := g.Field("id")
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("dashboard/%s/gadget/%s", dashboardID, convert.ToString(id))
	resp, err := g.session.Delete(ctx, g.getURL(path), nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransport, "DELETE "+path)
	}
	if resp.StatusCode >= 400 {
		return resp, g.statusError(ctx, resp, apperrors.CodeMutationRejected, "DELETE "+path)
	}
	return resp, nil
}

// An issue field. Fields cannot be fetched individually, but paginated lists
// of them appear in several endpoints.
type Field struct{ Resource }

func NewField(opts *Options, session Session, raw map[string]any) (*Field, error) {
	f := &Field{newResource(KindField, "field/{0}", baseURLTemplate, opts, session)}
	if err := f.init(raw); err != nil {
		return nil, err
	}
	return f, nil
}

// An issue navigator filter.
type Filter struct{ Resource }

func NewFilter(opts *Options, session Session, raw map[string]any) (*Filter, error) {
	f := &Filter{newResource(KindFilter, "filter/{0}", baseURLTemplate, opts, session)}
	if err := f.init(raw); err != nil {
		return nil, err
	}
	return f, nil
}

// An issue.
type Issue struct{ Resource }

func NewIssue(opts *Options, session Session, raw map[string]any) (*Issue, error) {
	i := &Issue{newResource(KindIssue, "issue/{0}", baseURLTemplate, opts, session)}
	if err := i.init(raw); err != nil {
		return nil, err
	}
	return i, nil
}

// UpdateFields writes field changes with the issue-specific conveniences:
// string assignee/reporter extras become name objects, comment extras become
// append operations, and list extras merge into the update map.
func (i *Issue) UpdateFields(ctx context.Context, fields, update map[string]any, uo *UpdateOptions) error {
	fieldsDict := map[string]any{}
	for k, v := range fields {
		fieldsDict[k] = v
	}
	updateDict := map[string]any{}
	for k, v := range update {
		updateDict[k] = v
	}

	var extras map[string]any
	if uo != nil {
		extras = uo.Extra
	}
	for _, field := range sortedKeys(extras) {
		value := extras[field]
		switch v := value.(type) {
		case string:
			switch field {
			case "assignee", "reporter":
				fieldsDict[field] = map[string]any{"name": v}
			case "comment":
				ops, _ := updateDict["comment"].([]any)
				updateDict["comment"] = append(ops, map[string]any{"add": map[string]any{"body": v}})
			default:
				fieldsDict[field] = v
			}
		case []any:
			ops, _ := updateDict[field].([]any)
			updateDict[field] = append(ops, v...)
		default:
			fieldsDict[field] = value
		}
	}

	data := map[string]any{"fields": fieldsDict, "update": updateDict}
	return i.Update(ctx, data, withoutExtra(uo))
}

// GetField returns the parsed value of a single issue field, so "project"
// comes back as a *Project resource.
func (i *Issue) GetField(name string) (any, error) {
	if strings.HasPrefix(name, "_") {
		return nil, apperrors.Newf(apperrors.CodeFieldAccess,
			"an issue field name cannot start with underscore: %s", name)
	}
	fv, err := i.Field("fields")
	if err != nil {
		return nil, err
	}
	c, ok := fv.(*Container)
	if !ok {
		return nil, apperrors.New(apperrors.CodeFieldAccess, "issue fields are not a container")
	}
	v, ok := c.Get(name)
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeFieldAccess, "issue has no field %q", name)
	}
	return v, nil
}

// AddFieldValue appends a value to a multi-valued field without resetting
// the existing values.
func (i *Issue) AddFieldValue(ctx context.Context, field string, value any) error {
	return i.Update(ctx, map[string]any{
		"fields": map[string]any{
			"update": map[string]any{field: []any{map[string]any{"add": value}}},
		},
	}, nil)
}

// DeleteWithSubtasks deletes the issue, optionally taking its subtasks with
// it. With deleteSubtasks false the server refuses when subtasks exist.
func (i *Issue) DeleteWithSubtasks(ctx context.Context, deleteSubtasks bool) (*Response, error) {
	params := url.Values{}
	params.Set("deleteSubtasks", strconv.FormatBool(deleteSubtasks))
	return i.Delete(ctx, params)
}

// Permalink returns the browsable URL of the issue, not the REST one.
func (i *Issue) Permalink() (string, error) {
	key, err := i.Field("key")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/browse/%s", strings.TrimRight(i.opts.Server, "/"), convert.ToString(key)), nil
}

// An issue comment.
type Comment struct{ Resource }

func NewComment(opts *Options, session Session, raw map[string]any) (*Comment, error) {
	c := &Comment{newResource(KindComment, "issue/{0}/comment/{1}", baseURLTemplate, opts, session)}
	if err := c.init(raw); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateBody replaces the comment text. Visibility restricts viewing to a
// role or group; isInternal marks the comment internal for service desks.
func (c *Comment) UpdateBody(ctx context.Context, body string, visibility map[string]any, isInternal bool, uo *UpdateOptions) error {
	data := map[string]any{}
	if body != "" {
		data["body"] = body
	}
	if visibility != nil {
		data["visibility"] = visibility
	}
	if isInternal {
		data["properties"] = []any{
			map[string]any{"key": "sd.public.comment", "value": map[string]any{"internal": true}},
		}
	}
	return c.Update(ctx, data, uo)
}

// A pinned comment on an issue.
type PinnedComment struct{ Resource }

func NewPinnedComment(opts *Options, session Session, raw map[string]any) (*PinnedComment, error) {
	p := &PinnedComment{newResource(KindPinnedComment, "issue/{0}/pinned-comments", baseURLTemplate, opts, session)}
	if err := p.init(raw); err != nil {
		return nil, err
	}
	return p, nil
}

// A link from an issue to a remote application.
type RemoteLink struct{ Resource }

func NewRemoteLink(opts *Options, session Session, raw map[string]any) (*RemoteLink, error) {
	l := &RemoteLink{newResource(KindRemoteLink, "issue/{0}/remotelink/{1}", baseURLTemplate, opts, session)}
	if err := l.init(raw); err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateLink rewrites the link details; object is required.
func (l *RemoteLink) UpdateLink(ctx context.Context, object map[string]any, globalID string, application map[string]any, relationship string, uo *UpdateOptions) error {
	data := map[string]any{"object": object}
	if globalID != "" {
		data["globalId"] = globalID
	}
	if application != nil {
		data["application"] = application
	}
	if relationship != "" {
		data["relationship"] = relationship
	}
	return l.Update(ctx, data, uo)
}

// Vote information on an issue.
type Votes struct{ Resource }

func NewVotes(opts *Options, session Session, raw map[string]any) (*Votes, error) {
	v := &Votes{newResource(KindVotes, "issue/{0}/votes", baseURLTemplate, opts, session)}
	if err := v.init(raw); err != nil {
		return nil, err
	}
	return v, nil
}

// Watcher information on an issue.
type Watchers struct{ Resource }

func NewWatchers(opts *Options, session Session, raw map[string]any) (*Watchers, error) {
	w := &Watchers{newResource(KindWatchers, "issue/{0}/watchers", baseURLTemplate, opts, session)}
	if err := w.init(raw); err != nil {
		return nil, err
	}
	return w, nil
}

// RemoveWatcher takes the named user off the watchers list.
func (w *Watchers) RemoveWatcher(ctx context.Context, username string) (*Response, error) {
	params := url.Values{}
	params.Set("username", username)
	return w.Delete(ctx, params)
}

// Time-tracking data on an issue. Built directly by the materializer since
// these blocks carry no self link.
type TimeTracking struct{ Resource }

func NewTimeTracking(opts *Options, session Session, raw map[string]any) (*TimeTracking, error) {
	t := &TimeTracking{newResource(KindTimeTracking, "issue/{0}/worklog/{1}", baseURLTemplate, opts, session)}
	if err := t.init(raw); err != nil {
		return nil, err
	}
	return t, nil
}

// A worklog entry on an issue.
type Worklog struct{ Resource }

func NewWorklog(opts *Options, session Session, raw map[string]any) (*Worklog, error) {
	w := &Worklog{newResource(KindWorklog, "issue/{0}/worklog/{1}", baseURLTemplate, opts, session)}
	if err := w.init(raw); err != nil {
		return nil, err
	}
	return w, nil
}

// DeleteAdjustingEstimate deletes the worklog entry. adjustEstimate is one
// of new, leave, manual or auto; newEstimate pairs with new and increaseBy
// with manual.
func (w *Worklog) DeleteAdjustingEstimate(ctx context.Context, adjustEstimate, newEstimate, increaseBy string) (*Response, error) {
	params := url.Values{}
	if adjustEstimate != "" {
		params.Set("adjustEstimate", adjustEstimate)
	}
	if newEstimate != "" {
		params.Set("newEstimate", newEstimate)
	}
	if increaseBy != "" {
		params.Set("increaseBy", increaseBy)
	}
	return w.Delete(ctx, params)
}

// Custom data stored against an issue.
type IssueProperty struct{ Resource }

func NewIssueProperty(opts *Options, session Session, raw map[string]any) (*IssueProperty, error) {
	p := &IssueProperty{newResource(KindIssueProperty, "issue/{0}/properties/{1}", baseURLTemplate, opts, session)}
	if err := p.init(raw); err != nil {
		return nil, err
	}
	return p, nil
}

// Find loads the property and backfills the canonical URL: property payloads
// never include a self identifier.
func (p *IssueProperty) Find(ctx context.Context, params url.Values, ids ...string) error {
	path, err := expandPath(p.resourcePath, ids...)
	if err != nil {
		return err
	}
	fullURL := p.getURL(path)
	if err := p.FindByURL(ctx, fullURL, params); err != nil {
		return err
	}
	p.setSelf(fullURL)
	return nil
}

// A link between two issues.
type IssueLink struct{ Resource }

func NewIssueLink(opts *Options, session Session, raw map[string]any) (*IssueLink, error) {
	l := &IssueLink{newResource(KindIssueLink, "issueLink/{0}", baseURLTemplate, opts, session)}
	if err := l.init(raw); err != nil {
		return nil, err
	}
	return l, nil
}

// A type of link between two issues.
type IssueLinkType struct{ Resource }

func NewIssueLinkType(opts *Options, session Session, raw map[string]any) (*IssueLinkType, error) {
	t := &IssueLinkType{newResource(KindIssueLinkType, "issueLinkType/{0}", baseURLTemplate, opts, session)}
	if err := t.init(raw); err != nil {
		return nil, err
	}
	return t, nil
}

// A type of issue.
type IssueType struct{ Resource }

func NewIssueType(opts *Options, session Session, raw map[string]any) (*IssueType, error) {
	t := &IssueType{newResource(KindIssueType, "issuetype/{0}", baseURLTemplate, opts, session)}
	if err := t.init(raw); err != nil {
		return nil, err
	}
	return t, nil
}

// An issue type scheme.
type IssueTypeScheme struct{ Resource }

func NewIssueTypeScheme(opts *Options, session Session, raw map[string]any) (*IssueTypeScheme, error) {
	s := &IssueTypeScheme{newResource(KindIssueTypeScheme, "issuetypescheme", baseURLTemplate, opts, session)}
	if err := s.init(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// Issue security level scheme of a project.
type IssueSecurityLevelScheme struct{ Resource }

func NewIssueSecurityLevelScheme(opts *Options, session Session, raw map[string]any) (*IssueSecurityLevelScheme, error) {
	s := &IssueSecurityLevelScheme{newResource(KindIssueSecurityLevelScheme, "project/{0}/issuesecuritylevelscheme?expand=user", baseURLTemplate, opts, session)}
	if err := s.init(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// Notification scheme of a project.
type NotificationScheme struct{ Resource }

func NewNotificationScheme(opts *Options, session Session, raw map[string]any) (*NotificationScheme, error) {
	s := &NotificationScheme{newResource(KindNotificationScheme, "project/{0}/notificationscheme?expand=user", baseURLTemplate, opts, session)}
	if err := s.init(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// Permission scheme of a project.
type PermissionScheme struct{ Resource }

func NewPermissionScheme(opts *Options, session Session, raw map[string]any) (*PermissionScheme, error) {
	s := &PermissionScheme{newResource(KindPermissionScheme, "project/{0}/permissionscheme?expand=user", baseURLTemplate, opts, session)}
	if err := s.init(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// Priority scheme of a project.
type PriorityScheme struct{ Resource }

func NewPriorityScheme(opts *Options, session Session, raw map[string]any) (*PriorityScheme, error) {
	s := &PriorityScheme{newResource(KindPriorityScheme, "project/{0}/priorityscheme?expand=user", baseURLTemplate, opts, session)}
	if err := s.init(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// Workflow scheme of a project.
type WorkflowScheme struct{ Resource }

func NewWorkflowScheme(opts *Options, session Session, raw map[string]any) (*WorkflowScheme, error) {
	s := &WorkflowScheme{newResource(KindWorkflowScheme, "project/{0}/workflowscheme?expand=user", baseURLTemplate, opts, session)}
	if err := s.init(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// A priority that can be set on an issue.
type Priority struct{ Resource }

func NewPriority(opts *Options, session Session, raw map[string]any) (*Priority, error) {
	p := &Priority{newResource(KindPriority, "priority/{0}", baseURLTemplate, opts, session)}
	if err := p.init(raw); err != nil {
		return nil, err
	}
	return p, nil
}

// A project.
type Project struct{ Resource }

func NewProject(opts *Options, session Session, raw map[string]any) (*Project, error) {
	p := &Project{newResource(KindProject, "project/{0}", baseURLTemplate, opts, session)}
	if err := p.init(raw); err != nil {
		return nil, err
	}
	return p, nil
}

// A role inside a project.
type Role struct{ Resource }

func NewRole(opts *Options, session Session, raw map[string]any) (*Role, error) {
	r := &Role{newResource(KindRole, "project/{0}/role/{1}", baseURLTemplate, opts, session)}
	if err := r.init(raw); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateActors replaces the role membership with the given users or groups.
func (r *Role) UpdateActors(ctx context.Context, users, groups []string, uo *UpdateOptions) error {
	id, err := r.Field("id")
	if err != nil {
		return err
	}
	data := map[string]any{
		"id": id,
		"categorisedActors": map[string]any{
			"atlassian-user-role-actor":  users,
			"atlassian-group-role-actor": groups,
		},
	}
	return r.Update(ctx, data, uo)
}

// AddActors adds users or groups to the role without replacing existing
// membership.
func (r *Role) AddActors(ctx context.Context, users, groups []string) error {
	r.validateSelfURL()
	data := map[string]any{"user": users, "group": groups}
	resp, err := r.session.Post(ctx, r.Self(), data)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeTransport, "POST "+r.Self())
	}
	if resp.StatusCode >= 400 {
		return r.statusError(ctx, resp, apperrors.CodeMutationRejected, "POST "+r.Self())
	}
	return nil
}

// A resolution for an issue.
type Resolution struct{ Resource }

func NewResolution(opts *Options, session Session, raw map[string]any) (*Resolution, error) {
	r := &Resolution{newResource(KindResolution, "resolution/{0}", baseURLTemplate, opts, session)}
	if err := r.init(raw); err != nil {
		return nil, err
	}
	return r, nil
}

// A security level for an issue or project.
type SecurityLevel struct{ Resource }

func NewSecurityLevel(opts *Options, session Session, raw map[string]any) (*SecurityLevel, error) {
	s := &SecurityLevel{newResource(KindSecurityLevel, "securitylevel/{0}", baseURLTemplate, opts, session)}
	if err := s.init(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// A status of an issue.
type Status struct{ Resource }

func NewStatus(opts *Options, session Session, raw map[string]any) (*Status, error) {
	s := &Status{newResource(KindStatus, "status/{0}", baseURLTemplate, opts, session)}
	if err := s.init(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// The category of a status.
type StatusCategory struct{ Resource }

func NewStatusCategory(opts *Options, session Session, raw map[string]any) (*StatusCategory, error) {
	s := &StatusCategory{newResource(KindStatusCategory, "statuscategory/{0}", baseURLTemplate, opts, session)}
	if err := s.init(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// A user. Cloud servers address users by accountId, self-hosted ones by
// username; the query parameter is picked from the payload's self URL.
type User struct{ Resource }

func NewUser(opts *Options, session Session, raw map[string]any) (*User, error) {
	queryParam := "username"
	if raw != nil {
		if self, ok := raw["self"].(string); ok && strings.Contains(self, "accountId") {
			queryParam = "accountId"
		}
	}
	u := &User{newResource(KindUser, "user?"+queryParam+"={0}", baseURLTemplate, opts, session)}
	if err := u.init(raw); err != nil {
		return nil, err
	}
	return u, nil
}

// A user group.
type Group struct{ Resource }

func NewGroup(opts *Options, session Session, raw map[string]any) (*Group, error) {
	g := &Group{newResource(KindGroup, "group?groupname={0}", baseURLTemplate, opts, session)}
	if err := g.init(raw); err != nil {
		return nil, err
	}
	return g, nil
}

// A version of a project.
type Version struct{ Resource }

func NewVersion(opts *Options, session Session, raw map[string]any) (*Version, error) {
	v := &Version{newResource(KindVersion, "version/{0}", baseURLTemplate, opts, session)}
	if err := v.init(raw); err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteWithMoves deletes the version. Issues carrying it as a fix or
// affected version are moved to the given versions; with both empty it is
// simply removed from all issues.
func (v *Version) DeleteWithMoves(ctx context.Context, moveFixIssuesTo, moveAffectedIssuesTo string) (*Response, error) {
	params := url.Values{}
	if moveFixIssuesTo != "" {
		params.Set("moveFixIssuesTo", moveFixIssuesTo)
	}
	if moveAffectedIssuesTo != "" {
		params.Set("moveAffectedIssuesTo", moveAffectedIssuesTo)
	}
	return v.Delete(ctx, params)
}

// An agile sprint.
type Sprint struct{ Resource }

func NewSprint(opts *Options, session Session, raw map[string]any) (*Sprint, error) {
	s := &Sprint{newResource(KindSprint, "sprint/{0}", agileBaseURLTemplate, opts, session)}
	if err := s.init(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// An agile board.
type Board struct{ Resource }

func NewBoard(opts *Options, session Session, raw map[string]any) (*Board, error) {
	b := &Board{newResource(KindBoard, "board/{0}", agileBaseURLTemplate, opts, session)}
	if err := b.init(raw); err != nil {
		return nil, err
	}
	return b, nil
}

// A service desk customer.
type Customer struct{ Resource }

func NewCustomer(opts *Options, session Session, raw map[string]any) (*Customer, error) {
	c := &Customer{newResource(KindCustomer, "customer", serviceBaseURLTemplate, opts, session)}
	if err := c.init(raw); err != nil {
		return nil, err
	}
	return c, nil
}

// A service desk.
type ServiceDesk struct{ Resource }

func NewServiceDesk(opts *Options, session Session, raw map[string]any) (*ServiceDesk, error) {
	s := &ServiceDesk{newResource(KindServiceDesk, "servicedesk/{0}", serviceBaseURLTemplate, opts, session)}
	if err := s.init(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// A service desk request type.
type RequestType struct{ Resource }

func NewRequestType(opts *Options, session Session, raw map[string]any) (*RequestType, error) {
	t := &RequestType{newResource(KindRequestType, "servicedesk/{0}/requesttype", serviceBaseURLTemplate, opts, session)}
	if err := t.init(raw); err != nil {
		return nil, err
	}
	return t, nil
}

// A resource the client has no dedicated representation for. Keeps the
// registry lookup total: unmatched self URLs land here instead of failing.
type UnknownResource struct{ Resource }

func NewUnknownResource(opts *Options, session Session, raw map[string]any) (*UnknownResource, error) {
	u := &UnknownResource{newResource(KindUnknown, "unknown{0}", baseURLTemplate, opts, session)}
	if err := u.init(raw); err != nil {
		return nil, err
	}
	return u, nil
}

func withoutExtra(uo *UpdateOptions) *UpdateOptions {
	if uo == nil {
		return nil
	}
	return &UpdateOptions{
		SuppressNotify: uo.SuppressNotify,
		Async:          uo.Async,
		Provisioner:    uo.Provisioner,
	}
}
