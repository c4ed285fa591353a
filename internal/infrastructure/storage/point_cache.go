package storage

import (
	"context"
	"errors"
	"time"

	"github.com/viccon/sturdyc"
)

// ErrMissing is returned by PointCache.GetOrFetch when the record does not
// exist upstream. Misses are remembered for the cache TTL.
var ErrMissing = errors.New("record missing")

// PointCacheConfig holds the sturdyc options for keyed point lookups.
type PointCacheConfig struct {
	// Capacity defines the maximum number of entries that the cache can store.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	NumShards int

	// TTL is how long a looked-up record (or a miss) is reused.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int
}

func DefaultPointCacheConfig() PointCacheConfig {
	return PointCacheConfig{
		Capacity:           512,
		NumShards:          8,
		TTL:                30 * time.Second,
		EvictionPercentage: 10,
	}
}

func (c PointCacheConfig) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// PointCache deduplicates keyed lookups made while a collection cache is
// still empty. It is kept apart from the collection entries; nothing it
// stores is ever merged into them.
type PointCache[T any] struct {
	client *sturdyc.Client[T]
}

func NewPointCache[T any](cfg PointCacheConfig) (*PointCache[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[T](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		sturdyc.WithMissingRecordStorage(),
	)
	return &PointCache[T]{client: client}, nil
}

// GetOrFetch returns the cached value for key or calls fetchFn. fetchFn
// reports an unknown key by returning ErrMissing.
func (p *PointCache[T]) GetOrFetch(ctx context.Context, key string, fetchFn func(ctx context.Context) (T, error)) (T, error) {
	v, err := p.client.GetOrFetch(ctx, key, func(ctx context.Context) (T, error) {
		v, err := fetchFn(ctx)
		if errors.Is(err, ErrMissing) {
			return v, sturdyc.ErrNotFound
		}
		return v, err
	})
	if errors.Is(err, sturdyc.ErrNotFound) || errors.Is(err, sturdyc.ErrMissingRecord) {
		var zero T
		return zero, ErrMissing
	}
	return v, err
}
