package repository

import (
	"context"

	"portfolioCache/internal/domain/entity"
)

type ActivityRepository interface {
	// FetchActivities returns the feed in delivery order (newest first).
	FetchActivities(ctx context.Context) ([]entity.Activity, error)
}
