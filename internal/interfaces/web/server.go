package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"portfolioCache/internal/application"
	"portfolioCache/internal/domain/entity"
)

// Portfolio is the read side the handlers serve from.
type Portfolio interface {
	GetProjects(ctx context.Context) []entity.Project
	GetProject(ctx context.Context, id string) (entity.Project, bool)
	GetBlogPosts(ctx context.Context) []entity.Post
	FetchTimeline(ctx context.Context) []entity.Activity
	GetTimeline(activities []entity.Activity, groupCommits bool) []entity.TimelineEntry
	IsProjectCacheInvalid() bool
	IsBlogCacheInvalid() bool
	IsTimelineCacheInvalid() bool
	Status() []application.ResourceStatus
}

// CacheInvalidHeader is set on list responses served from a cache whose
// last upstream fetch failed.
const CacheInvalidHeader = "X-Cache-Invalid"

type Server struct {
	portfolio Portfolio
	l         *slog.Logger
	now       func() time.Time
}

func NewServer(portfolio Portfolio, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{portfolio: portfolio, l: logger, now: time.Now}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.RequestLogger)

	r.Get("/healthz", s.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", s.Projects)
		r.Get("/projects/{id}", s.Project)
		r.Get("/posts", s.Posts)
		r.Get("/activity", s.Activity)
		r.Get("/timeline", s.Timeline)
	})

	return r
}

func (s *Server) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.l.LogAttrs(r.Context(), slog.LevelInfo, "",
			slog.Group("request",
				slog.String("id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
			),
		)
	})
}

func (s *Server) Projects(w http.ResponseWriter, r *http.Request) {
	projects := s.portfolio.GetProjects(r.Context())
	markInvalid(w, s.portfolio.IsProjectCacheInvalid())
	writeJSON(w, http.StatusOK, nonNil(projects))
}

func (s *Server) Project(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	project, ok := s.portfolio.GetProject(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) Posts(w http.ResponseWriter, r *http.Request) {
	posts := s.portfolio.GetBlogPosts(r.Context())
	markInvalid(w, s.portfolio.IsBlogCacheInvalid())
	writeJSON(w, http.StatusOK, nonNil(posts))
}

func (s *Server) Activity(w http.ResponseWriter, r *http.Request) {
	activities := s.portfolio.FetchTimeline(r.Context())
	markInvalid(w, s.portfolio.IsTimelineCacheInvalid())
	writeJSON(w, http.StatusOK, NewEntries(activities, s.now()))
}

func (s *Server) Timeline(w http.ResponseWriter, r *http.Request) {
	group := true
	if raw := r.URL.Query().Get("group"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "group must be true or false")
			return
		}
		group = parsed
	}

	activities := s.portfolio.FetchTimeline(r.Context())
	timeline := s.portfolio.GetTimeline(activities, group)
	markInvalid(w, s.portfolio.IsTimelineCacheInvalid())
	writeJSON(w, http.StatusOK, NewEntries(timeline, s.now()))
}

type healthResponse struct {
	Status    string                       `json:"status"`
	Resources []application.ResourceStatus `json:"resources"`
}

// Health always answers 200; a failed upstream only degrades the status.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resources := s.portfolio.Status()
	status := "ok"
	for _, res := range resources {
		if res.Invalid {
			status = "degraded"
			break
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: status, Resources: resources})
}

func markInvalid(w http.ResponseWriter, invalid bool) {
	if invalid {
		w.Header().Set(CacheInvalidHeader, "true")
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
