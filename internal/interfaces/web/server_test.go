package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioCache/internal/application"
	"portfolioCache/internal/domain/entity"
)

type fakePortfolio struct {
	projects        []entity.Project
	posts           []entity.Post
	activities      []entity.Activity
	projectsInvalid bool
	postsInvalid    bool
	timelineInvalid bool
	status          []application.ResourceStatus
}

func (f *fakePortfolio) GetProjects(ctx context.Context) []entity.Project { return f.projects }

func (f *fakePortfolio) GetProject(ctx context.Context, id string) (entity.Project, bool) {
	for _, p := range f.projects {
		if p.ID == id {
			return p, true
		}
	}
	return entity.Project{}, false
}

func (f *fakePortfolio) GetBlogPosts(ctx context.Context) []entity.Post { return f.posts }

func (f *fakePortfolio) FetchTimeline(ctx context.Context) []entity.Activity { return f.activities }

func (f *fakePortfolio) GetTimeline(activities []entity.Activity, groupCommits bool) []entity.TimelineEntry {
	return application.BuildTimeline(activities, groupCommits)
}

func (f *fakePortfolio) IsProjectCacheInvalid() bool  { return f.projectsInvalid }
func (f *fakePortfolio) IsBlogCacheInvalid() bool     { return f.postsInvalid }
func (f *fakePortfolio) IsTimelineCacheInvalid() bool { return f.timelineInvalid }

func (f *fakePortfolio) Status() []application.ResourceStatus { return f.status }

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(p *fakePortfolio) http.Handler {
	s := NewServer(p, slog.New(slog.DiscardHandler))
	s.now = func() time.Time { return now }
	return s.Router()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_Projects(t *testing.T) {
	h := newTestServer(&fakePortfolio{
		projects: []entity.Project{{ID: "p1", Name: "Site", Visibility: entity.VisibilityPublic}},
	})

	rec := get(t, h, "/api/projects")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get(CacheInvalidHeader))

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "p1", body[0]["project_id"])
}

func TestServer_Projects_EmptyAndInvalid(t *testing.T) {
	h := newTestServer(&fakePortfolio{projectsInvalid: true})

	rec := get(t, h, "/api/projects")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(CacheInvalidHeader))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestServer_Project(t *testing.T) {
	h := newTestServer(&fakePortfolio{
		projects: []entity.Project{{ID: "p1", Name: "Site"}},
	})

	found := get(t, h, "/api/projects/p1")
	require.Equal(t, http.StatusOK, found.Code)
	assert.Contains(t, found.Body.String(), `"name":"Site"`)

	missing := get(t, h, "/api/projects/nope")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.JSONEq(t, `{"error":"project not found"}`, missing.Body.String())
}

func TestServer_Posts(t *testing.T) {
	h := newTestServer(&fakePortfolio{
		posts:        []entity.Post{{Slug: "hello", Title: "Hello", Tags: []string{"go"}}},
		postsInvalid: true,
	})

	rec := get(t, h, "/api/posts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(CacheInvalidHeader))

	var body []entity.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, []string{"go"}, body[0].Tags)
}

func feed() []entity.Activity {
	return []entity.Activity{
		entity.CommitActivity{Project: "A", SHA: "c1", Message: "second", Date: now.Add(-24 * time.Hour)},
		entity.PostActivity{Project: "blog", Title: "Post", Date: now.Add(-36 * time.Hour)},
		entity.CommitActivity{Project: "A", SHA: "c0", Message: "first", Date: now.Add(-48 * time.Hour)},
	}
}

func TestServer_Activity(t *testing.T) {
	h := newTestServer(&fakePortfolio{activities: feed()})

	rec := get(t, h, "/api/activity")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []EntryDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 3)
	assert.Equal(t, entity.CategoryGithub, body[0].Category)
	assert.Equal(t, "24 hours", body[0].Ago)
	assert.Equal(t, entity.CategoryBlog, body[1].Category)
	assert.Equal(t, "blog", body[1].Project)
}

func TestServer_Timeline_Grouped(t *testing.T) {
	h := newTestServer(&fakePortfolio{activities: feed(), timelineInvalid: true})

	rec := get(t, h, "/api/timeline")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(CacheInvalidHeader))

	var body []struct {
		Category entity.Category `json:"category"`
		Date     time.Time       `json:"date"`
		Ago      string          `json:"ago"`
		Data     batchDTO        `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)

	assert.Equal(t, entity.CategoryCommits, body[0].Category)
	assert.True(t, now.Add(-48*time.Hour).Equal(body[0].Date))
	assert.Equal(t, "48 hours", body[0].Ago)
	assert.Equal(t, "2 commits to A", body[0].Data.Title)
	require.Len(t, body[0].Data.Commits, 2)
	assert.Equal(t, "c1", body[0].Data.Commits[0].SHA)
}

func TestServer_Timeline_Ungrouped(t *testing.T) {
	h := newTestServer(&fakePortfolio{activities: feed()})

	rec := get(t, h, "/api/timeline?group=false")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []EntryDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, entity.CategoryGithub, body[0].Category)
	assert.Equal(t, entity.CategoryGithub, body[1].Category)
}

func TestServer_Timeline_BadGroup(t *testing.T) {
	h := newTestServer(&fakePortfolio{})

	rec := get(t, h, "/api/timeline?group=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Timeline_Empty(t *testing.T) {
	h := newTestServer(&fakePortfolio{})

	rec := get(t, h, "/api/timeline")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestServer_Health(t *testing.T) {
	p := &fakePortfolio{status: []application.ResourceStatus{
		{Name: "projects", State: "fresh"},
		{Name: "posts", State: "stale", Invalid: true},
	}}
	h := newTestServer(p)

	rec := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Len(t, body.Resources, 2)

	p.status[1].Invalid = false
	rec = get(t, h, "/healthz")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
}
