package application

import (
	"context"
	"log/slog"
	"slices"

	"portfolioCache/internal/domain/entity"
	"portfolioCache/internal/domain/repository"
	"portfolioCache/internal/infrastructure/storage"
)

// NewProjectFetcher folds the repository result into an Outcome holding
// only public projects.
func NewProjectFetcher(repo repository.ProjectRepository, logger *slog.Logger) storage.FetchFunc[[]entity.Project] {
	return func(ctx context.Context) storage.Outcome[[]entity.Project] {
		projects, err := repo.FetchProjects(ctx)
		if err != nil {
			logger.Warn("project fetch failed", "err", err)
			return storage.Outcome[[]entity.Project]{Data: []entity.Project{}, Invalid: true}
		}
		return storage.Outcome[[]entity.Project]{Data: PublicProjects(projects)}
	}
}

func PublicProjects(projects []entity.Project) []entity.Project {
	public := make([]entity.Project, 0, len(projects))
	for _, p := range projects {
		if p.IsPublic() {
			public = append(public, p)
		}
	}
	return public
}

// NewBlogFetcher merges every backend into one list sorted newest first.
// A failing backend is logged and skipped; the outcome is invalid only when
// every backend failed.
func NewBlogFetcher(repos []repository.BlogRepository, logger *slog.Logger) storage.FetchFunc[[]entity.Post] {
	return func(ctx context.Context) storage.Outcome[[]entity.Post] {
		var sources [][]entity.Post
		failed := 0
		for _, repo := range repos {
			posts, err := repo.FetchPosts(ctx)
			if err != nil {
				failed++
				logger.Warn("blog fetch failed", "group", repo.Group(), "err", err)
				continue
			}
			sources = append(sources, posts)
		}

		if len(repos) == 0 || failed == len(repos) {
			return storage.Outcome[[]entity.Post]{Data: []entity.Post{}, Invalid: true}
		}
		return storage.Outcome[[]entity.Post]{Data: MergePosts(sources...)}
	}
}

// MergePosts concatenates the sources in order, drops unpublished posts and
// sorts by publish time, newest first. Posts with equal timestamps keep
// their input order.
func MergePosts(sources ...[]entity.Post) []entity.Post {
	var merged []entity.Post
	for _, posts := range sources {
		for _, p := range posts {
			if p.Published {
				merged = append(merged, p)
			}
		}
	}
	if merged == nil {
		merged = []entity.Post{}
	}

	slices.SortStableFunc(merged, func(a, b entity.Post) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return merged
}

func NewActivityFetcher(repo repository.ActivityRepository, logger *slog.Logger) storage.FetchFunc[[]entity.Activity] {
	return func(ctx context.Context) storage.Outcome[[]entity.Activity] {
		activities, err := repo.FetchActivities(ctx)
		if err != nil {
			logger.Warn("activity fetch failed", "err", err)
			return storage.Outcome[[]entity.Activity]{Data: []entity.Activity{}, Invalid: true}
		}
		return storage.Outcome[[]entity.Activity]{Data: activities}
	}
}
