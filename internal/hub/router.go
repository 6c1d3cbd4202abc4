// Package hub fans messages out to sessions: room broadcast, system-wide
// broadcast and unicast. Sends always run against a registry snapshot so
// the registry lock is never held during network writes.
package hub

import (
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/registry"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/log"
)

// Router resolves recipients through the registry and delivers lines.
// A failed send marks the session dead; the failure handler runs only
// after the snapshot iteration completes, so teardown never mutates a
// collection the router is still walking.
type Router struct {
	reg       *registry.Registry
	onFailure func(*domain.Session)
}

func NewRouter(reg *registry.Registry) *Router {
	return &Router{reg: reg}
}

// SetFailureHandler installs the teardown hook for dead connections.
// The server wires this to deregister-close-announce.
func (r *Router) SetFailureHandler(fn func(*domain.Session)) {
	r.onFailure = fn
}

// BroadcastToRoom delivers line to every session whose current room
// matched roomID at snapshot time, except the session with excludeID.
func (r *Router) BroadcastToRoom(line string, roomID uint, excludeID string) {
	var dead []*domain.Session

	for _, s := range r.reg.Snapshot() {
		if s.ID == excludeID || s.RoomID() != roomID {
			continue
		}
		if err := s.Send(line); err != nil {
			log.L().Debug().Err(err).Str(log.FieldConnID, s.ID).Msg("room broadcast send failed")
			dead = append(dead, s)
		}
	}

	r.reap(dead)
}

// BroadcastSystem delivers a system notice to every session.
func (r *Router) BroadcastSystem(text string) {
	line := domain.SystemNotice(text)
	var dead []*domain.Session

	for _, s := range r.reg.Snapshot() {
		if err := s.Send(line); err != nil {
			log.L().Debug().Err(err).Str(log.FieldConnID, s.ID).Msg("system broadcast send failed")
			dead = append(dead, s)
		}
	}

	r.reap(dead)
}

// Unicast delivers one line to one session. A failure means the target
// is effectively offline; the caller does not retry.
func (r *Router) Unicast(s *domain.Session, line string) error {
	if err := s.Send(line); err != nil {
		r.reap([]*domain.Session{s})
		return err
	}
	return nil
}

func (r *Router) reap(dead []*domain.Session) {
	if r.onFailure == nil {
		return
	}
	for _, s := range dead {
		r.onFailure(s)
	}
}
