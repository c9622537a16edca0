package jira

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sthagen/pycontribs-jira/internal/errors"
)

func TestIssueUpdateFieldsHeuristics(t *testing.T) {
	state := &issueServer{}
	srv := httptest.NewServer(state.handler(t))
	defer srv.Close()

	issue := newServerIssue(t, srv, testOptions(srv.URL))
	err := issue.UpdateFields(context.Background(), nil, nil, &UpdateOptions{
		Extra: map[string]any{
			"assignee":      "fred",
			"comment":       "looks good",
			"labels":        []any{"infra"},
			"customfield_1": "plain",
		},
	})
	require.NoError(t, err)

	body := state.lastPut()
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	update, ok := body["update"].(map[string]any)
	require.True(t, ok)

	t.Run("string assignee becomes a name object", func(t *testing.T) {
		assignee, ok := fields["assignee"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "fred", assignee["name"])
	})

	t.Run("comment becomes an append operation", func(t *testing.T) {
		ops, ok := update["comment"].([]any)
		require.True(t, ok)
		require.Len(t, ops, 1)
		add, ok := ops[0].(map[string]any)
		require.True(t, ok)
		inner, ok := add["add"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "looks good", inner["body"])
	})

	t.Run("lists merge into the update map", func(t *testing.T) {
		labels, ok := update["labels"].([]any)
		require.True(t, ok)
		assert.Equal(t, []any{"infra"}, labels)
	})

	t.Run("other strings land in fields", func(t *testing.T) {
		assert.Equal(t, "plain", fields["customfield_1"])
	})
}

func TestIssueGetField(t *testing.T) {
	opts := testOptions(testServerURL)
	issue, err := NewIssue(opts, nil, map[string]any{
		"self": testServerURL + "/rest/api/2/issue/ABC-1",
		"key":  "ABC-1",
		"fields": map[string]any{
			"summary": "hello",
		},
	})
	require.NoError(t, err)

	t.Run("returns the parsed field value", func(t *testing.T) {
		v, err := issue.GetField("summary")
		require.NoError(t, err)
		assert.Equal(t, "hello", v)
	})

	t.Run("rejects underscore-prefixed names", func(t *testing.T) {
		_, err := issue.GetField("_private")
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeFieldAccess, apperrors.GetCode(err))
	})

	t.Run("missing field names the field", func(t *testing.T) {
		_, err := issue.GetField("nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope")
	})
}

func TestIssuePermalink(t *testing.T) {
	opts := testOptions("https://jira.example.com/")
	issue, err := NewIssue(opts, nil, map[string]any{
		"self": "https://jira.example.com/rest/api/2/issue/ABC-1",
		"key":  "ABC-1",
	})
	require.NoError(t, err)

	link, err := issue.Permalink()
	require.NoError(t, err)
	assert.Equal(t, "https://jira.example.com/browse/ABC-1", link)
}

func deleteQuery(t *testing.T, fire func(srv *httptest.Server) error) url.Values {
	t.Helper()
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		got = r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, fire(srv))
	return got
}

func TestIssueDeleteWithSubtasks(t *testing.T) {
	got := deleteQuery(t, func(srv *httptest.Server) error {
		issue, err := NewIssue(testOptions(srv.URL), testSession(), map[string]any{
			"self": srv.URL + "/rest/api/2/issue/ABC-1",
			"key":  "ABC-1",
		})
		require.NoError(t, err)
		_, err = issue.DeleteWithSubtasks(context.Background(), true)
		return err
	})
	assert.Equal(t, "true", got.Get("deleteSubtasks"))
}

func TestComponentDeleteWithMove(t *testing.T) {
	got := deleteQuery(t, func(srv *httptest.Server) error {
		component, err := NewComponent(testOptions(srv.URL), testSession(), map[string]any{
			"self": srv.URL + "/rest/api/2/component/10000",
			"name": "backend",
		})
		require.NoError(t, err)
		_, err = component.DeleteWithMove(context.Background(), "10001")
		return err
	})
	assert.Equal(t, "10001", got.Get("moveIssuesTo"))
}

func TestVersionDeleteWithMoves(t *testing.T) {
	got := deleteQuery(t, func(srv *httptest.Server) error {
		version, err := NewVersion(testOptions(srv.URL), testSession(), map[string]any{
			"self": srv.URL + "/rest/api/2/version/10040",
			"name": "2.0",
		})
		require.NoError(t, err)
		_, err = version.DeleteWithMoves(context.Background(), "10041", "10042")
		return err
	})
	assert.Equal(t, "10041", got.Get("moveFixIssuesTo"))
	assert.Equal(t, "10042", got.Get("moveAffectedIssuesTo"))
}

func TestWorklogDeleteAdjustingEstimate(t *testing.T) {
	got := deleteQuery(t, func(srv *httptest.Server) error {
		worklog, err := NewWorklog(testOptions(srv.URL), testSession(), map[string]any{
			"self": srv.URL + "/rest/api/2/issue/ABC-1/worklog/10420",
			"id":   "10420",
		})
		require.NoError(t, err)
		_, err = worklog.DeleteAdjustingEstimate(context.Background(), "new", "1d", "")
		return err
	})
	assert.Equal(t, "new", got.Get("adjustEstimate"))
	assert.Equal(t, "1d", got.Get("newEstimate"))
	assert.Empty(t, got.Get("increaseBy"))
}

func TestWatchersRemoveWatcher(t *testing.T) {
	got := deleteQuery(t, func(srv *httptest.Server) error {
		watchers, err := NewWatchers(testOptions(srv.URL), testSession(), map[string]any{
			"self":       srv.URL + "/rest/api/2/issue/ABC-1/watchers",
			"watchCount": float64(2),
		})
		require.NoError(t, err)
		_, err = watchers.RemoveWatcher(context.Background(), "fred")
		return err
	})
	assert.Equal(t, "fred", got.Get("username"))
}

func TestCommentUpdateBody(t *testing.T) {
	state := &issueServer{}
	srv := httptest.NewServer(state.handler(t))
	defer srv.Close()

	comment, err := NewComment(testOptions(srv.URL), testSession(), map[string]any{
		"self": srv.URL + "/rest/api/2/issue/ABC-1/comment/10023",
		"id":   "10023",
		"body": "old",
	})
	require.NoError(t, err)

	visibility := map[string]any{"type": "role", "value": "Administrators"}
	err = comment.UpdateBody(context.Background(), "new text", visibility, true, nil)
	require.NoError(t, err)

	body := state.lastPut()
	assert.Equal(t, "new text", body["body"])
	assert.Equal(t, visibility, body["visibility"])

	props, ok := body["properties"].([]any)
	require.True(t, ok)
	require.Len(t, props, 1)
	prop, ok := props[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sd.public.comment", prop["key"])
}

func TestUserQueryParamSelection(t *testing.T) {
	opts := testOptions(testServerURL)

	t.Run("self-hosted payloads address by username", func(t *testing.T) {
		user, err := NewUser(opts, nil, map[string]any{
			"self": testServerURL + "/rest/api/2/user?username=fred",
			"name": "fred",
		})
		require.NoError(t, err)
		assert.Equal(t, "user?username={0}", user.resourcePath)
	})

	t.Run("cloud payloads address by accountId", func(t *testing.T) {
		user, err := NewUser(opts, nil, map[string]any{
			"self":        testServerURL + "/rest/api/2/user?accountId=5b10a2844c20165700ede21g",
			"displayName": "Fred F.",
		})
		require.NoError(t, err)
		assert.Equal(t, "user?accountId={0}", user.resourcePath)
	})

	t.Run("empty construction defaults to username", func(t *testing.T) {
		user, err := NewUser(opts, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "user?username={0}", user.resourcePath)
	})
}

func TestIssuePropertyFindBackfillsSelf(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"key": "editor", "value": {"theme": "dark"}}`))
	}))
	defer srv.Close()

	prop, err := NewIssueProperty(testOptions(srv.URL), testSession(), nil)
	require.NoError(t, err)

	err = prop.Find(context.Background(), nil, "ABC-1", "editor")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/rest/api/2/issue/ABC-1/properties/editor", prop.Self())
}

func TestAttachmentContent(t *testing.T) {
	payload := []byte("binary attachment bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/secure/attachment/12345/report.pdf" {
			w.Write(payload)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	attachment, err := NewAttachment(testOptions(srv.URL), testSession(), map[string]any{
		"self":     srv.URL + "/rest/api/2/attachment/12345",
		"filename": "report.pdf",
		"content":  srv.URL + "/secure/attachment/12345/report.pdf",
	})
	require.NoError(t, err)

	got, err := attachment.Content(context.Background())
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestRoleActors(t *testing.T) {
	var postBody map[string]any
	state := &issueServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &postBody))
			w.WriteHeader(http.StatusOK)
			return
		}
		state.handler(t).ServeHTTP(w, r)
	}))
	defer srv.Close()

	role, err := NewRole(testOptions(srv.URL), testSession(), map[string]any{
		"self": srv.URL + "/rest/api/2/project/FOO/role/10360",
		"id":   float64(10360),
		"name": "Developers",
	})
	require.NoError(t, err)

	t.Run("update replaces membership", func(t *testing.T) {
		err := role.UpdateActors(context.Background(), []string{"fred"}, nil, nil)
		require.NoError(t, err)

		body := state.lastPut()
		actors, ok := body["categorisedActors"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, []any{"fred"}, actors["atlassian-user-role-actor"])
	})

	t.Run("add posts without replacing", func(t *testing.T) {
		err := role.AddActors(context.Background(), []string{"barney"}, []string{"jira-developers"})
		require.NoError(t, err)

		assert.Equal(t, []any{"barney"}, postBody["user"])
		assert.Equal(t, []any{"jira-developers"}, postBody["group"])
	})
}

func TestDashboardGadgetLifecycle(t *testing.T) {
	var putPath, deletePath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			putPath = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			deletePath = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"gadgets": [
				{"id": 10050, "self": "` + testServerURL + `/rest/api/2/dashboard/10035/gadget/10050", "title": "Burndown", "color": "red"}
			]}`))
		}
	}))
	defer srv.Close()

	gadget, err := NewDashboardGadget(testOptions(srv.URL), testSession(), map[string]any{
		"self":  srv.URL + "/rest/api/2/dashboard/10035/gadget/10050",
		"id":    float64(10050),
		"title": "Burndown",
	})
	require.NoError(t, err)

	t.Run("update re-reads the gadget list", func(t *testing.T) {
		updated, err := gadget.UpdateGadget(context.Background(), "10035", "red", nil, "")
		require.NoError(t, err)
		assert.Equal(t, "/rest/api/2/dashboard/10035/gadget/10050", putPath)
		assert.Equal(t, "10050", updated.String())
		title, err := updated.Field("title")
		require.NoError(t, err)
		assert.Equal(t, "Burndown", title)
	})

	t.Run("delete addresses the owning dashboard", func(t *testing.T) {
		_, err := gadget.DeleteGadget(context.Background(), "10035")
		require.NoError(t, err)
		assert.Equal(t, "/rest/api/2/dashboard/10035/gadget/10050", deletePath)
	})
}
