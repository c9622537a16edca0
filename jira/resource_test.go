package jira

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sthagen/pycontribs-jira/internal/errors"
)

func testSession() *ResilientSession {
	return NewResilientSession(SessionConfig{MaxRetryDelay: time.Millisecond})
}

func testOptions(server string) *Options {
	opts := DefaultOptions()
	opts.Server = server
	return opts
}

func TestFindBuildsResourcePath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"self": "` + "http://" + r.Host + r.URL.Path + `", "key": "ABC-1", "id": "10002"}`))
	}))
	defer srv.Close()

	issue, err := New(KindIssue, testOptions(srv.URL), testSession())
	require.NoError(t, err)

	err = issue.Find(context.Background(), nil, "ABC-1")
	require.NoError(t, err)

	assert.Equal(t, "/rest/api/2/issue/ABC-1", gotPath)
	assert.True(t, issue.Loaded())
	key, err := issue.Field("key")
	require.NoError(t, err)
	assert.Equal(t, "ABC-1", key)
}

func TestFindIsIdempotent(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"key": "ABC-1", "summary": "first fetch"}`))
	}))
	defer srv.Close()

	issue, err := New(KindIssue, testOptions(srv.URL), testSession())
	require.NoError(t, err)

	require.NoError(t, issue.Find(context.Background(), nil, "ABC-1"))
	require.NoError(t, issue.Find(context.Background(), nil, "ABC-1"))

	assert.Equal(t, 2, calls, "every Find must re-fetch; the snapshot is replaced wholesale")
}

func TestFindNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorMessages": ["Issue Does Not Exist"], "errors": {}}`))
	}))
	defer srv.Close()

	issue, err := New(KindIssue, testOptions(srv.URL), testSession())
	require.NoError(t, err)

	err = issue.Find(context.Background(), nil, "NOPE-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
	assert.Contains(t, apperrors.GetDetails(err), "Issue Does Not Exist")
	assert.False(t, issue.Loaded())
}

func TestFindMissingIdentifier(t *testing.T) {
	issue, err := New(KindIssue, testOptions(testServerURL), testSession())
	require.NoError(t, err)

	err = issue.Find(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInternal, apperrors.GetCode(err))
}

func TestStringRendering(t *testing.T) {
	opts := testOptions(testServerURL)

	t.Run("picks the highest-priority readable field", func(t *testing.T) {
		user, err := NewUser(opts, nil, map[string]any{
			"self":        testServerURL + "/rest/api/2/user?username=fred",
			"name":        "fred",
			"displayName": "Fred F.",
		})
		require.NoError(t, err)
		assert.Equal(t, "Fred F.", user.String())
	})

	t.Run("falls back down the priority list", func(t *testing.T) {
		project, err := NewProject(opts, nil, map[string]any{
			"self": testServerURL + "/rest/api/2/project/ABC",
			"id":   "10000",
			"key":  "ABC",
		})
		require.NoError(t, err)
		assert.Equal(t, "ABC", project.String())
	})

	t.Run("appends the child of a cascading option", func(t *testing.T) {
		option, err := NewCustomFieldOption(opts, nil, map[string]any{
			"self":  testServerURL + "/rest/api/2/customFieldOption/10001",
			"value": "Red",
			"child": map[string]any{
				"self":  testServerURL + "/rest/api/2/customFieldOption/10002",
				"value": "Crimson",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Red - Crimson", option.String())
	})

	t.Run("renders numeric identifiers without float noise", func(t *testing.T) {
		votes, err := NewVotes(opts, nil, map[string]any{
			"self":  testServerURL + "/rest/api/2/issue/ABC-1/votes",
			"votes": float64(3),
		})
		require.NoError(t, err)
		assert.Equal(t, "3", votes.String())
	})

	t.Run("placeholder when nothing is readable", func(t *testing.T) {
		issue, err := New(KindIssue, opts, nil)
		require.NoError(t, err)
		assert.Contains(t, issue.String(), "<JIRA Issue at ")
	})
}

func TestEqual(t *testing.T) {
	opts := testOptions(testServerURL)

	newIssue := func(raw map[string]any) *Issue {
		issue, err := NewIssue(opts, nil, raw)
		require.NoError(t, err)
		return issue
	}

	t.Run("same identity fields are equal", func(t *testing.T) {
		a := newIssue(map[string]any{"key": "ABC-1", "id": "10002"})
		b := newIssue(map[string]any{"key": "ABC-1", "id": "10002", "summary": "extra"})
		assert.True(t, a.Equal(b))
	})

	t.Run("numeric type differences do not break equality", func(t *testing.T) {
		a := newIssue(map[string]any{"key": "ABC-1", "id": float64(10002)})
		b := newIssue(map[string]any{"key": "ABC-1", "id": 10002})
		assert.True(t, a.Equal(b))
	})

	t.Run("different identity fields are not equal", func(t *testing.T) {
		a := newIssue(map[string]any{"key": "ABC-1"})
		b := newIssue(map[string]any{"key": "ABC-2"})
		assert.False(t, a.Equal(b))
	})

	t.Run("kind mismatch is never equal", func(t *testing.T) {
		a := newIssue(map[string]any{"key": "ABC", "id": "10000"})
		p, err := NewProject(opts, nil, map[string]any{"key": "ABC", "id": "10000"})
		require.NoError(t, err)
		assert.False(t, a.Equal(p))
	})

	t.Run("nil is not equal", func(t *testing.T) {
		a := newIssue(map[string]any{"key": "ABC-1"})
		assert.False(t, a.Equal(nil))
	})
}

func TestHashKey(t *testing.T) {
	opts := testOptions(testServerURL)

	t.Run("stable for identical identity fields", func(t *testing.T) {
		a, err := NewIssue(opts, nil, map[string]any{"key": "ABC-1", "id": "10002"})
		require.NoError(t, err)
		b, err := NewIssue(opts, nil, map[string]any{"key": "ABC-1", "id": "10002", "summary": "x"})
		require.NoError(t, err)

		ha, err := a.HashKey()
		require.NoError(t, err)
		hb, err := b.HashKey()
		require.NoError(t, err)
		assert.Equal(t, ha, hb)
	})

	t.Run("kind participates in the hash", func(t *testing.T) {
		issue, err := NewIssue(opts, nil, map[string]any{"key": "ABC", "id": "1"})
		require.NoError(t, err)
		project, err := NewProject(opts, nil, map[string]any{"key": "ABC", "id": "1"})
		require.NoError(t, err)

		hi, err := issue.HashKey()
		require.NoError(t, err)
		hp, err := project.HashKey()
		require.NoError(t, err)
		assert.NotEqual(t, hi, hp)
	})

	t.Run("no identity fields fails loudly", func(t *testing.T) {
		res, err := NewIssue(opts, nil, map[string]any{"summary": "anonymous"})
		require.NoError(t, err)

		_, err = res.HashKey()
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeNotHashable, apperrors.GetCode(err))
	})
}

func TestValidateSelfURL(t *testing.T) {
	opts := testOptions("https://jira.example.com")

	t.Run("rewrites a foreign host preserving the rest", func(t *testing.T) {
		issue, err := NewIssue(opts, nil, map[string]any{
			"self": "http://proxy.internal:8080/rest/api/2/issue/ABC-1?expand=names#frag",
			"key":  "ABC-1",
		})
		require.NoError(t, err)

		issue.validateSelfURL()
		assert.Equal(t, "https://jira.example.com/rest/api/2/issue/ABC-1?expand=names#frag", issue.Self())
	})

	t.Run("leaves a matching host alone", func(t *testing.T) {
		issue, err := NewIssue(opts, nil, map[string]any{
			"self": "https://jira.example.com/rest/api/2/issue/ABC-1",
			"key":  "ABC-1",
		})
		require.NoError(t, err)

		issue.validateSelfURL()
		assert.Equal(t, "https://jira.example.com/rest/api/2/issue/ABC-1", issue.Self())
	})

	t.Run("no-op without a self URL", func(t *testing.T) {
		issue, err := New(KindIssue, opts, nil)
		require.NoError(t, err)
		issue.(*Issue).validateSelfURL()
		assert.Empty(t, issue.Self())
	})
}
