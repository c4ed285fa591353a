package blog

import (
	"fmt"
	"strings"

	"portfolioCache/internal/domain/entity"
	"portfolioCache/internal/infrastructure/html"
)

// finishPost fills the fields every backend derives the same way: the
// description fallback and the sanitized HTML content.
func finishPost(post entity.Post, content string, markdown bool) (entity.Post, error) {
	rendered := content
	if markdown {
		var err error
		rendered, err = html.MarkdownToHTML(content)
		if err != nil {
			return entity.Post{}, fmt.Errorf("post [%s]: %w", post.Slug, err)
		}
	}
	rendered = html.Sanitize(rendered)

	if post.Description == "" {
		text, err := html.PlainText(rendered)
		if err != nil {
			return entity.Post{}, fmt.Errorf("post [%s]: %w", post.Slug, err)
		}
		post.Description = html.Excerpt(text, html.DefaultExcerptChars)
	} else if strings.ContainsRune(post.Description, '<') {
		text, err := html.PlainText(post.Description)
		if err == nil {
			post.Description = text
		}
	}

	post.Content = rendered
	return post, nil
}

func normalizeTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
