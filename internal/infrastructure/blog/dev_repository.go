package blog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolioCache/internal/domain/entity"
	"portfolioCache/internal/domain/repository"
	"portfolioCache/internal/infrastructure/httpclient"

	"github.com/tidwall/gjson"
)

type devRepository struct {
	url    string
	apiKey string
	client *httpclient.Client
}

// NewDevRepository reads posts from the JSON blog API. Post content is
// markdown.
func NewDevRepository(url, apiKey string, client *httpclient.Client) repository.BlogRepository {
	return &devRepository{
		url:    url,
		apiKey: apiKey,
		client: client,
	}
}

func (r *devRepository) Group() entity.BlogGroup {
	return entity.BlogGroupDev
}

func (r *devRepository) FetchPosts(ctx context.Context) ([]entity.Post, error) {
	result, err := r.client.GetJSON(ctx, r.url, r.apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blog posts: %w", err)
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("failed to fetch blog posts: %w: expected array", httpclient.ErrMalformed)
	}

	posts := make([]entity.Post, 0, len(result.Array()))
	for _, item := range result.Array() {
		publishedAt, ok := parsePublishedAt(item)
		if !ok {
			continue
		}

		published := true
		if p := item.Get("published"); p.Exists() {
			published = p.Bool()
		}

		post := entity.Post{
			Slug:        item.Get("slug").String(),
			Group:       entity.BlogGroupDev,
			Title:       item.Get("title").String(),
			Description: strings.TrimSpace(item.Get("description").String()),
			Published:   published,
			URL:         item.Get("url").String(),
			PublishedAt: publishedAt,
			Tags:        normalizeTags(tagList(item)),
		}

		finished, err := finishPost(post, item.Get("content").String(), true)
		if err != nil {
			return nil, err
		}
		posts = append(posts, finished)
	}

	return posts, nil
}

// tagList accepts "tag_list" or "tags", either as an array or as a
// comma-separated string.
func tagList(item gjson.Result) []string {
	raw := item.Get("tag_list")
	if !raw.Exists() {
		raw = item.Get("tags")
	}

	if raw.IsArray() {
		var tags []string
		for _, t := range raw.Array() {
			if t.Type == gjson.String {
				tags = append(tags, t.String())
			} else if name := t.Get("title").String(); name != "" {
				tags = append(tags, name)
			}
		}
		return tags
	}
	if raw.Type == gjson.String {
		return strings.Split(raw.String(), ",")
	}
	return nil
}

func parsePublishedAt(item gjson.Result) (time.Time, bool) {
	for _, key := range []string{"published_at", "publish_at", "created_at"} {
		v := item.Get(key)
		if !v.Exists() || v.String() == "" {
			continue
		}
		if v.Type == gjson.Number {
			return time.Unix(v.Int(), 0).UTC(), true
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v.String()); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
