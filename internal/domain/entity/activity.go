package entity

import (
	"slices"
	"time"
)

// Category tags an activity or timeline entry. Categories other than the
// constants below are carried verbatim by GenericActivity.
type Category string

const (
	CategoryGithub  Category = "GITHUB"
	CategoryBlog    Category = "BLOG"
	CategoryCommits Category = "COMMITS"
)

// TimelineEntry is one row of a rendered timeline: either an Activity passed
// through unchanged or a CommitBatch.
type TimelineEntry interface {
	Category() Category
	OccurredAt() time.Time
	ProjectID() string
	timelineEntry()
}

// Activity is an item of the upstream activity feed.
type Activity interface {
	TimelineEntry
	activity()
}

// CommitActivity is a GITHUB feed item.
type CommitActivity struct {
	Project string
	Date    time.Time
	SHA     string
	Message string
	URL     string
	Repo    string
	Branch  string
}

func (CommitActivity) Category() Category      { return CategoryGithub }
func (c CommitActivity) OccurredAt() time.Time { return c.Date }
func (c CommitActivity) ProjectID() string     { return c.Project }
func (CommitActivity) timelineEntry()          {}
func (CommitActivity) activity()               {}

// PostActivity is a BLOG feed item.
type PostActivity struct {
	Project string
	Date    time.Time
	Title   string
	Slug    string
	URL     string
}

func (PostActivity) Category() Category      { return CategoryBlog }
func (p PostActivity) OccurredAt() time.Time { return p.Date }
func (p PostActivity) ProjectID() string     { return p.Project }
func (PostActivity) timelineEntry()          {}
func (PostActivity) activity()               {}

// GenericActivity holds any other category.
type GenericActivity struct {
	Kind        Category
	Project     string
	Date        time.Time
	Title       string
	Description string
	URL         string
}

func (g GenericActivity) Category() Category    { return g.Kind }
func (g GenericActivity) OccurredAt() time.Time { return g.Date }
func (g GenericActivity) ProjectID() string     { return g.Project }
func (GenericActivity) timelineEntry()          {}
func (GenericActivity) activity()               {}

// CloneActivities copies the feed. Every Activity implementation is a value
// type without reference fields, so copying the slice is enough.
func CloneActivities(activities []Activity) []Activity {
	return slices.Clone(activities)
}
