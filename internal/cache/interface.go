package cache

import (
	"context"
	"errors"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// MessageCache fronts room-history reads. Entries are invalidated per
// room whenever a message is appended to it.
type MessageCache interface {
	Get(ctx context.Context, roomID uint) ([]domain.HistoryEntry, error)
	Set(ctx context.Context, roomID uint, entries []domain.HistoryEntry) error
	Invalidate(ctx context.Context, roomID uint) error
	Close() error
}
