package cache

import (
	"context"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
)

// NoopCache always misses. Used when caching is disabled.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) Get(ctx context.Context, roomID uint) ([]domain.HistoryEntry, error) {
	return nil, ErrCacheMiss
}

func (NoopCache) Set(ctx context.Context, roomID uint, entries []domain.HistoryEntry) error {
	return nil
}

func (NoopCache) Invalidate(ctx context.Context, roomID uint) error { return nil }

func (NoopCache) Close() error { return nil }
