package entity

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize/english"
	"github.com/google/uuid"
)

// CommitBatch collapses consecutive same-project commits.
type CommitBatch struct {
	ID      string
	Project string
	// Date is the timestamp of the oldest commit.
	Date    time.Time
	Title   string
	Commits []CommitActivity // newest first
}

func (CommitBatch) Category() Category      { return CategoryCommits }
func (b CommitBatch) OccurredAt() time.Time { return b.Date }
func (b CommitBatch) ProjectID() string     { return b.Project }
func (CommitBatch) timelineEntry()          {}

// NewCommitBatch builds a batch from commits accumulated oldest first.
func NewCommitBatch(oldestFirst []CommitActivity) CommitBatch {
	commits := make([]CommitActivity, len(oldestFirst))
	for i, c := range oldestFirst {
		commits[len(oldestFirst)-1-i] = c
	}

	oldest := oldestFirst[0]
	return CommitBatch{
		ID:      batchID(oldest),
		Project: oldest.Project,
		Date:    oldest.Date,
		Title:   CommitBatchTitle(len(commits), oldest.Project),
		Commits: commits,
	}
}

func CommitBatchTitle(count int, project string) string {
	return fmt.Sprintf("%s to %s", english.Plural(count, "commit", ""), project)
}

// batchID is stable for a given first commit so renderers can key on it
// across aggregations.
func batchID(oldest CommitActivity) string {
	name := oldest.Project + "/" + oldest.SHA + "/" + oldest.Date.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
