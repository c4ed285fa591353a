package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"portfolioCache/internal/domain/entity"
	"portfolioCache/internal/domain/repository"
	"portfolioCache/internal/infrastructure/httpclient"

	"github.com/tidwall/gjson"
)

type Config struct {
	URL    string
	APIKey string
	Client *httpclient.Client
	Logger *slog.Logger
}

type feedRepository struct {
	url    string
	apiKey string
	client *httpclient.Client
	logger *slog.Logger
}

func NewFeedRepository(cfg Config) repository.ActivityRepository {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &feedRepository{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: cfg.Client,
		logger: logger,
	}
}

func (r *feedRepository) FetchActivities(ctx context.Context) ([]entity.Activity, error) {
	result, err := r.client.GetJSON(ctx, r.url, r.apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity feed: %w", err)
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("failed to fetch activity feed: %w: expected array", httpclient.ErrMalformed)
	}

	items := result.Array()
	activities := make([]entity.Activity, 0, len(items))
	for i, item := range items {
		a, err := ParseActivity(item)
		if err != nil {
			r.logger.Debug("skipping activity", "index", i, "err", err)
			continue
		}
		activities = append(activities, a)
	}
	return activities, nil
}

// ParseActivity decides the concrete Activity type from the item's category.
func ParseActivity(item gjson.Result) (entity.Activity, error) {
	date, err := time.Parse(time.RFC3339Nano, item.Get("date").String())
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", item.Get("date").String(), err)
	}

	category := entity.Category(item.Get("category").String())
	project := item.Get("project").String()
	data := item.Get("data")

	switch category {
	case entity.CategoryGithub:
		return entity.CommitActivity{
			Project: project,
			Date:    date,
			SHA:     data.Get("sha").String(),
			Message: data.Get("message").String(),
			URL:     data.Get("url").String(),
			Repo:    data.Get("repo").String(),
			Branch:  data.Get("branch").String(),
		}, nil
	case entity.CategoryBlog:
		return entity.PostActivity{
			Project: project,
			Date:    date,
			Title:   data.Get("title").String(),
			Slug:    data.Get("slug").String(),
			URL:     data.Get("url").String(),
		}, nil
	case "":
		return nil, fmt.Errorf("missing category")
	default:
		return entity.GenericActivity{
			Kind:        category,
			Project:     project,
			Date:        date,
			Title:       data.Get("title").String(),
			Description: data.Get("description").String(),
			URL:         data.Get("url").String(),
		}, nil
	}
}
