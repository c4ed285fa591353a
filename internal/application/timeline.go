package application

import (
	"slices"
	"time"

	"portfolioCache/internal/domain/entity"
)

// CommitGap is the largest distance between a commit and the previously
// batched commit for both to share a CommitBatch. It is measured between
// neighbours, not from the start of the batch, so dense commit runs form a
// single batch however long they last.
const CommitGap = 3 * 24 * time.Hour

// BuildTimeline turns a newest-first activity feed into newest-first
// timeline entries. BLOG items are dropped. With groupCommits set, runs of
// GITHUB items from one project become CommitBatch entries; everything else
// passes through in its original relative order.
func BuildTimeline(activities []entity.Activity, groupCommits bool) []entity.TimelineEntry {
	timeline := make([]entity.TimelineEntry, 0, len(activities))
	var batch []entity.CommitActivity

	flush := func() {
		if len(batch) == 0 {
			return
		}
		timeline = append(timeline, entity.NewCommitBatch(batch))
		batch = nil
	}

	for i := len(activities) - 1; i >= 0; i-- {
		item := activities[i]

		if item.Category() == entity.CategoryBlog {
			continue
		}

		commit, isCommit := item.(entity.CommitActivity)
		if !groupCommits || !isCommit {
			flush()
			timeline = append(timeline, item)
			continue
		}

		if len(batch) > 0 && !joinsBatch(batch[len(batch)-1], commit) {
			flush()
		}
		batch = append(batch, commit)
	}
	flush()

	slices.Reverse(timeline)
	return timeline
}

func joinsBatch(previous, next entity.CommitActivity) bool {
	if previous.Project != next.Project {
		return false
	}
	gap := next.Date.Sub(previous.Date)
	if gap < 0 {
		gap = -gap
	}
	return gap <= CommitGap
}
