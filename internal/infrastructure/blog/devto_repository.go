package blog

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"portfolioCache/internal/domain/entity"
	"portfolioCache/internal/domain/repository"
	"portfolioCache/internal/infrastructure/httpclient"

	"github.com/mmcdole/gofeed"
)

// DevToFeedURL returns the public RSS feed of a dev.to user.
func DevToFeedURL(username string) string {
	return "https://dev.to/feed/" + url.PathEscape(username)
}

type devtoRepository struct {
	feedURL string
	client  *httpclient.Client
	parser  *gofeed.Parser
}

// NewDevToRepository reads posts from a dev.to RSS feed.
func NewDevToRepository(feedURL string, client *httpclient.Client) repository.BlogRepository {
	return &devtoRepository{
		feedURL: feedURL,
		client:  client,
		parser:  gofeed.NewParser(),
	}
}

func (r *devtoRepository) Group() entity.BlogGroup {
	return entity.BlogGroupDevTo
}

func (r *devtoRepository) FetchPosts(ctx context.Context) ([]entity.Post, error) {
	body, err := r.client.Get(ctx, r.feedURL, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch RSS feed: %w", err)
	}

	feed, err := r.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	posts := make([]entity.Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.PublishedParsed == nil {
			continue
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}

		post := entity.Post{
			Slug:        slugFromLink(item.Link),
			Group:       entity.BlogGroupDevTo,
			Title:       item.Title,
			Description: strings.TrimSpace(item.Description),
			Published:   true,
			URL:         item.Link,
			PublishedAt: *item.PublishedParsed,
			Tags:        normalizeTags(item.Categories),
		}

		finished, err := finishPost(post, content, false)
		if err != nil {
			return nil, err
		}
		posts = append(posts, finished)
	}

	return posts, nil
}

func slugFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Path == "" {
		return link
	}
	return path.Base(strings.TrimRight(u.Path, "/"))
}
