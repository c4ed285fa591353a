package application

import (
	"log/slog"
	"time"

	"portfolioCache/internal/domain/entity"
	"portfolioCache/internal/domain/repository"
	"portfolioCache/internal/infrastructure/storage"
	plog "portfolioCache/internal/log"
)

// CacheRegistry owns the single cache entry of each resource kind.
type CacheRegistry struct {
	Projects   *storage.Entry[[]entity.Project]
	Posts      *storage.Entry[[]entity.Post]
	Activities *storage.Entry[[]entity.Activity]
}

type RegistryConfig struct {
	ProjectsInterval  time.Duration
	PostsInterval     time.Duration
	ActivityInterval  time.Duration
	RevalidateTimeout time.Duration
	Now               func() time.Time
	Logger            *slog.Logger
}

func NewCacheRegistry(
	cfg RegistryConfig,
	projectRepo repository.ProjectRepository,
	blogRepos []repository.BlogRepository,
	activityRepo repository.ActivityRepository,
) *CacheRegistry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	projectsLog := plog.SubLogger(logger, "projects")
	postsLog := plog.SubLogger(logger, "posts")
	activityLog := plog.SubLogger(logger, "activity")

	return &CacheRegistry{
		Projects: storage.NewEntry(storage.EntryConfig[[]entity.Project]{
			Name:              "projects",
			Interval:          cfg.ProjectsInterval,
			Fetch:             NewProjectFetcher(projectRepo, projectsLog),
			Clone:             entity.CloneProjects,
			RevalidateTimeout: cfg.RevalidateTimeout,
			Now:               cfg.Now,
			Logger:            projectsLog,
		}),
		Posts: storage.NewEntry(storage.EntryConfig[[]entity.Post]{
			Name:              "posts",
			Interval:          cfg.PostsInterval,
			Fetch:             NewBlogFetcher(blogRepos, postsLog),
			Clone:             entity.ClonePosts,
			RevalidateTimeout: cfg.RevalidateTimeout,
			Now:               cfg.Now,
			Logger:            postsLog,
		}),
		Activities: storage.NewEntry(storage.EntryConfig[[]entity.Activity]{
			Name:              "activity",
			Interval:          cfg.ActivityInterval,
			Fetch:             NewActivityFetcher(activityRepo, activityLog),
			Clone:             entity.CloneActivities,
			RevalidateTimeout: cfg.RevalidateTimeout,
			Now:               cfg.Now,
			Logger:            activityLog,
		}),
	}
}

// Wait blocks until all background revalidations have finished.
func (r *CacheRegistry) Wait() {
	r.Projects.Wait()
	r.Posts.Wait()
	r.Activities.Wait()
}
