// Package registry holds the shared map of live connections to session
// state. It is the only structure in the process mutated concurrently by
// multiple connection handlers; every operation runs under one mutex so
// the two internal maps never disagree.
package registry

import (
	"errors"
	"sync"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/log"
)

var (
	// ErrConnRegistered means the connection already holds a session.
	ErrConnRegistered = errors.New("connection already registered")
	// ErrNameOnline means another live connection holds this username.
	// A second login for the same account is rejected, never an
	// overwrite of the first session's entry.
	ErrNameOnline = errors.New("user is already logged in")
)

// Registry maps connection id -> session and username -> connection id.
// Invariant: a name maps to a connection iff that connection's session
// carries the name; both maps change together inside one critical section.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	byName   map[string]string
}

func New() *Registry {
	return &Registry{
		sessions: make(map[string]*domain.Session),
		byName:   make(map[string]string),
	}
}

// Register adds the session to both maps. It fails without side effects
// when the connection already has a session or the username is online.
func (r *Registry) Register(s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; ok {
		log.L().Warn().Str(log.FieldConnID, s.ID).Msg("register: connection already present")
		return ErrConnRegistered
	}
	if _, ok := r.byName[s.Username]; ok {
		return ErrNameOnline
	}

	r.sessions[s.ID] = s
	r.byName[s.Username] = s.ID
	return nil
}

// Deregister removes both mappings atomically and returns the removed
// session. A missing connection is a legal race-safe no-op.
func (r *Registry) Deregister(connID string) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return nil
	}
	delete(r.sessions, connID)
	delete(r.byName, s.Username)
	return s
}

// ResolveName returns the live session for a username, if any.
func (r *Registry) ResolveName(name string) (*domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	connID, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[connID]
	return s, ok
}

// Snapshot returns a point-in-time copy of all live sessions so callers
// can iterate (and send) without holding the registry lock. Order is
// unspecified.
func (r *Registry) Snapshot() []*domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
