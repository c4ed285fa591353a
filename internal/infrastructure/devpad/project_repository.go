package devpad

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolioCache/internal/domain/entity"
	"portfolioCache/internal/domain/repository"
	"portfolioCache/internal/infrastructure/httpclient"

	"github.com/tidwall/gjson"
)

const DefaultBaseURL = "https://devpad.tools/api/v1"

type Config struct {
	BaseURL string
	APIKey  string
	Client  *httpclient.Client
}

type projectRepository struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
}

func NewProjectRepository(cfg Config) repository.ProjectRepository {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := cfg.Client
	if client == nil {
		client = httpclient.New(httpclient.Config{})
	}

	return &projectRepository{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

func (r *projectRepository) FetchProjects(ctx context.Context) ([]entity.Project, error) {
	result, err := r.client.GetJSON(ctx, r.baseURL+"/projects", r.apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("failed to fetch projects: %w: expected array", httpclient.ErrMalformed)
	}

	projects := make([]entity.Project, 0, len(result.Array()))
	for _, item := range result.Array() {
		projects = append(projects, parseProject(item))
	}
	return projects, nil
}

func (r *projectRepository) FetchProject(ctx context.Context, id string) (entity.Project, error) {
	endpoint := r.baseURL + "/projects?id=" + url.QueryEscape(id)

	result, err := r.client.GetJSON(ctx, endpoint, r.apiKey)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return entity.Project{}, repository.ErrNotFound
		}
		return entity.Project{}, fmt.Errorf("failed to fetch project [%s]: %w", id, err)
	}

	if !result.IsObject() || result.Get("project_id").String() == "" {
		return entity.Project{}, repository.ErrNotFound
	}
	return parseProject(result), nil
}

func parseProject(item gjson.Result) entity.Project {
	return entity.Project{
		ID:             item.Get("project_id").String(),
		OwnerID:        item.Get("owner_id").String(),
		Name:           item.Get("name").String(),
		CreatedAt:      parseTime(item.Get("created_at")),
		UpdatedAt:      parseTime(item.Get("updated_at")),
		Description:    item.Get("description").String(),
		Specification:  item.Get("specification").String(),
		RepoURL:        item.Get("repo_url").String(),
		IconURL:        item.Get("icon_url").String(),
		Status:         entity.ProjectStatus(item.Get("status").String()),
		Deleted:        item.Get("deleted").Bool(),
		LinkURL:        item.Get("link_url").String(),
		LinkText:       item.Get("link_text").String(),
		CurrentVersion: item.Get("current_version").String(),
		Visibility:     entity.ProjectVisibility(item.Get("visibility").String()),
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTime(v gjson.Result) time.Time {
	s := v.String()
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
