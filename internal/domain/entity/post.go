package entity

import (
	"slices"
	"time"
)

type BlogGroup string

const (
	BlogGroupDevTo BlogGroup = "devto"
	BlogGroupDev   BlogGroup = "dev"
)

type Post struct {
	Slug        string    `json:"slug"`
	Group       BlogGroup `json:"group"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Published   bool      `json:"published"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Tags        []string  `json:"tag_list"`
	Content     string    `json:"content"`
}

func ClonePosts(posts []Post) []Post {
	if posts == nil {
		return nil
	}
	out := make([]Post, len(posts))
	for i, p := range posts {
		p.Tags = slices.Clone(p.Tags)
		out[i] = p
	}
	return out
}
