package server

import (
	"sort"
	"sync"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
)

// roomCache is the read-mostly name to id map of known rooms. A successful
// create inserts the new entry directly under the lock; there is no
// full-list reload, so concurrent creations cannot race on one.
type roomCache struct {
	mu     sync.RWMutex
	byName map[string]uint
	byID   map[uint]string
}

func newRoomCache() *roomCache {
	return &roomCache{
		byName: map[string]uint{domain.GeneralRoomName: domain.GeneralRoomID},
		byID:   map[uint]string{domain.GeneralRoomID: domain.GeneralRoomName},
	}
}

func (rc *roomCache) load(rooms []domain.Room) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	for _, r := range rooms {
		rc.byName[r.Name] = r.ID
		rc.byID[r.ID] = r.Name
	}
}

func (rc *roomCache) insert(r *domain.Room) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.byName[r.Name] = r.ID
	rc.byID[r.ID] = r.Name
}

func (rc *roomCache) idByName(name string) (uint, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	id, ok := rc.byName[name]
	return id, ok
}

func (rc *roomCache) nameByID(id uint) (string, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	name, ok := rc.byID[id]
	return name, ok
}

func (rc *roomCache) names() []string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	out := make([]string, 0, len(rc.byName))
	for name := range rc.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
