package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"portfolioCache/internal/domain/entity"
	"portfolioCache/internal/domain/repository"
	"portfolioCache/internal/infrastructure/storage"
)

// PortfolioService is what page renderers call. None of its methods return
// errors; degraded upstreams show up through the Is*CacheInvalid accessors.
type PortfolioService struct {
	caches      *CacheRegistry
	projectRepo repository.ProjectRepository
	pointCache  *storage.PointCache[entity.Project]
	logger      *slog.Logger
}

func NewPortfolioService(
	caches *CacheRegistry,
	projectRepo repository.ProjectRepository,
	pointCache *storage.PointCache[entity.Project],
	logger *slog.Logger,
) *PortfolioService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortfolioService{
		caches:      caches,
		projectRepo: projectRepo,
		pointCache:  pointCache,
		logger:      logger,
	}
}

func (s *PortfolioService) GetProjects(ctx context.Context) []entity.Project {
	return s.caches.Projects.Get(ctx)
}

// GetProject resolves id against the cached project list. Only while that
// cache has never been filled does it ask the upstream for the single
// project; the answer is not written into the list cache. An id missing
// from a filled cache is reported as not found.
func (s *PortfolioService) GetProject(ctx context.Context, id string) (entity.Project, bool) {
	if s.caches.Projects.State() != storage.StateEmpty {
		for _, p := range s.caches.Projects.Get(ctx) {
			if p.ID == id {
				return p, true
			}
		}
		return entity.Project{}, false
	}

	project, err := s.fetchProject(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrMissing) {
			s.logger.Warn("project point fetch failed", "project_id", id, "err", err)
		}
		return entity.Project{}, false
	}
	return project, true
}

func (s *PortfolioService) fetchProject(ctx context.Context, id string) (entity.Project, error) {
	fetch := func(ctx context.Context) (entity.Project, error) {
		p, err := s.projectRepo.FetchProject(ctx, id)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !p.IsPublic()) {
			return entity.Project{}, storage.ErrMissing
		}
		return p, err
	}

	if s.pointCache == nil {
		return fetch(ctx)
	}
	return s.pointCache.GetOrFetch(ctx, id, fetch)
}

func (s *PortfolioService) GetBlogPosts(ctx context.Context) []entity.Post {
	return s.caches.Posts.Get(ctx)
}

// FetchTimeline returns the cached raw activity feed, newest first.
func (s *PortfolioService) FetchTimeline(ctx context.Context) []entity.Activity {
	return s.caches.Activities.Get(ctx)
}

func (s *PortfolioService) GetTimeline(activities []entity.Activity, groupCommits bool) []entity.TimelineEntry {
	return BuildTimeline(activities, groupCommits)
}

func (s *PortfolioService) IsProjectCacheInvalid() bool {
	return s.caches.Projects.Invalid()
}

func (s *PortfolioService) IsBlogCacheInvalid() bool {
	return s.caches.Posts.Invalid()
}

func (s *PortfolioService) IsTimelineCacheInvalid() bool {
	return s.caches.Activities.Invalid()
}

// ResourceStatus describes one cache entry for health reporting.
type ResourceStatus struct {
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Invalid     bool      `json:"invalid"`
	LastFetched time.Time `json:"last_fetched,omitzero"`
}

func (s *PortfolioService) Status() []ResourceStatus {
	return []ResourceStatus{
		resourceStatus(s.caches.Projects),
		resourceStatus(s.caches.Posts),
		resourceStatus(s.caches.Activities),
	}
}

type inspectable interface {
	Name() string
	State() storage.State
	Invalid() bool
	LastFetched() time.Time
}

func resourceStatus(e inspectable) ResourceStatus {
	return ResourceStatus{
		Name:        e.Name(),
		State:       e.State().String(),
		Invalid:     e.Invalid(),
		LastFetched: e.LastFetched(),
	}
}
