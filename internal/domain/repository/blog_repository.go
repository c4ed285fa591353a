package repository

import (
	"context"

	"portfolioCache/internal/domain/entity"
)

// BlogRepository is one blog backend. Posts are returned already mapped
// into the common Post shape.
type BlogRepository interface {
	Group() entity.BlogGroup
	FetchPosts(ctx context.Context) ([]entity.Post, error)
}
