package registry

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
)

func newSession(t *testing.T, connID, username string) *domain.Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return domain.NewSession(connID, server, 1, username, false, time.Second)
}

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	s := newSession(t, "c1", "alice")

	require.NoError(t, r.Register(s))
	assert.Equal(t, 1, r.Len())

	got, ok := r.ResolveName("alice")
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.ResolveName("bob")
	assert.False(t, ok)
}

func TestRegisterDuplicateConnection(t *testing.T) {
	r := New()
	s := newSession(t, "c1", "alice")

	require.NoError(t, r.Register(s))
	assert.ErrorIs(t, r.Register(s), ErrConnRegistered)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterSecondLoginRejected(t *testing.T) {
	r := New()
	first := newSession(t, "c1", "alice")
	second := newSession(t, "c2", "alice")

	require.NoError(t, r.Register(first))
	assert.ErrorIs(t, r.Register(second), ErrNameOnline)

	// The first session's mapping is untouched.
	got, ok := r.ResolveName("alice")
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, 1, r.Len())
}

func TestDeregister(t *testing.T) {
	r := New()
	s := newSession(t, "c1", "alice")
	require.NoError(t, r.Register(s))

	removed := r.Deregister("c1")
	assert.Same(t, s, removed)
	assert.Equal(t, 0, r.Len())

	_, ok := r.ResolveName("alice")
	assert.False(t, ok)

	// Second deregister is a race-safe no-op.
	assert.Nil(t, r.Deregister("c1"))
}

func TestSnapshotIsolatedFromMutation(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(newSession(t, "c1", "alice")))
	require.NoError(t, r.Register(newSession(t, "c2", "bob")))

	snap := r.Snapshot()
	require.Len(t, snap, 2)

	r.Deregister("c1")
	assert.Len(t, snap, 2, "snapshot must not observe later mutations")
	assert.Equal(t, 1, r.Len())
}

// TestConcurrentConsistency interleaves register/deregister across
// goroutines and checks the dual-map invariant at every observation
// point: a name resolves to exactly the session that carries it.
func TestConcurrentConsistency(t *testing.T) {
	r := New()
	const workers = 16
	const rounds = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			name := fmt.Sprintf("user%d", w)
			for i := 0; i < rounds; i++ {
				s := newQuietSession(fmt.Sprintf("conn-%d-%d", w, i), name)
				if err := r.Register(s); err != nil {
					continue
				}
				got, ok := r.ResolveName(name)
				if !ok || got.Username != name {
					t.Errorf("name %s resolved inconsistently", name)
					return
				}
				r.Deregister(s.ID)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
	for w := 0; w < workers; w++ {
		_, ok := r.ResolveName(fmt.Sprintf("user%d", w))
		assert.False(t, ok)
	}
}

// TestConcurrentSnapshots iterates snapshots while other goroutines
// mutate the registry; every observed session must be self-consistent.
func TestConcurrentSnapshots(t *testing.T) {
	r := New()
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			s := newQuietSession(fmt.Sprintf("c%d", i), fmt.Sprintf("u%d", i%8))
			if r.Register(s) == nil {
				r.Deregister(s.ID)
			}
		}
	}()

	for i := 0; i < 500; i++ {
		for _, s := range r.Snapshot() {
			got, ok := r.ResolveName(s.Username)
			if ok && got.Username != s.Username {
				t.Fatalf("registry resolved %q to session %q", s.Username, got.Username)
			}
		}
	}
	close(done)
	wg.Wait()
}

func newQuietSession(connID, username string) *domain.Session {
	server, client := net.Pipe()
	_ = client
	return domain.NewSession(connID, server, 1, username, false, time.Second)
}
