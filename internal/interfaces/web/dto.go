package web

import (
	"time"

	"portfolioCache/internal/domain/entity"
)

// EntryDTO is the wire form of an activity or timeline entry.
type EntryDTO struct {
	Category entity.Category `json:"category"`
	Date     time.Time       `json:"date"`
	Ago      string          `json:"ago"`
	Project  string          `json:"project"`
	Data     any             `json:"data"`
}

type commitDTO struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
	Repo    string `json:"repo,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type postDTO struct {
	Title string `json:"title"`
	Slug  string `json:"slug,omitempty"`
	URL   string `json:"url,omitempty"`
}

type genericDTO struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

type batchDTO struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Commits []commitDTO `json:"commits"`
}

func toCommitDTO(c entity.CommitActivity) commitDTO {
	return commitDTO{SHA: c.SHA, Message: c.Message, URL: c.URL, Repo: c.Repo, Branch: c.Branch}
}

func toEntryDTO(e entity.TimelineEntry, now time.Time) EntryDTO {
	dto := EntryDTO{
		Category: e.Category(),
		Date:     e.OccurredAt(),
		Ago:      FormatDuration(now.Sub(e.OccurredAt())),
		Project:  e.ProjectID(),
	}

	switch v := e.(type) {
	case entity.CommitActivity:
		dto.Data = toCommitDTO(v)
	case entity.PostActivity:
		dto.Data = postDTO{Title: v.Title, Slug: v.Slug, URL: v.URL}
	case entity.GenericActivity:
		dto.Data = genericDTO{Title: v.Title, Description: v.Description, URL: v.URL}
	case entity.CommitBatch:
		commits := make([]commitDTO, 0, len(v.Commits))
		for _, c := range v.Commits {
			commits = append(commits, toCommitDTO(c))
		}
		dto.Data = batchDTO{ID: v.ID, Title: v.Title, Commits: commits}
	}
	return dto
}

// NewEntries converts entries to their wire form, computing ages against now.
func NewEntries[E entity.TimelineEntry](entries []E, now time.Time) []EntryDTO {
	out := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryDTO(e, now))
	}
	return out
}
