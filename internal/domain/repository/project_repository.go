package repository

import (
	"context"
	"errors"

	"portfolioCache/internal/domain/entity"
)

var ErrNotFound = errors.New("not found")

type ProjectRepository interface {
	FetchProjects(ctx context.Context) ([]entity.Project, error)
	// FetchProject returns ErrNotFound when the id is unknown upstream.
	FetchProject(ctx context.Context, id string) (entity.Project, error)
}
