// Package server implements the TCP line-protocol front end: the accept
// loop, the per-connection authentication and command state machine, and
// the wiring between registry, router, validator and store.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/cache"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/config"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/hub"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/registry"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/repository"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/log"
)

// Server owns the listener, the session registry and the router. One
// goroutine per accepted connection; a semaphore caps how many run at
// once.
type Server struct {
	cfg    config.ServerConfig
	store  repository.Store
	cache  cache.MessageCache
	reg    *registry.Registry
	router *hub.Router
	rooms  *roomCache

	ln        net.Listener
	sem       chan struct{}
	startedAt time.Time

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

func New(cfg config.ServerConfig, store repository.Store, msgCache cache.MessageCache) *Server {
	reg := registry.New()
	router := hub.NewRouter(reg)

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 1
	}

	s := &Server{
		cfg:    cfg,
		store:  store,
		cache:  msgCache,
		reg:    reg,
		router: router,
		rooms:  newRoomCache(),
		sem:    make(chan struct{}, maxConns),
	}

	// Dead connections found during fan-out are torn down after the
	// snapshot iteration, never while the router is still walking it.
	router.SetFailureHandler(func(sess *domain.Session) {
		s.teardown(sess, "connection lost")
	})

	return s
}

// Registry exposes the session registry (used by tests and the health
// endpoint).
func (s *Server) Registry() *registry.Registry { return s.reg }

// Start loads the room cache, binds the listener and runs the accept
// loop until the context is cancelled or the listener is closed.
func (s *Server) Start(ctx context.Context) error {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rooms: %w", err)
	}
	s.rooms.load(rooms)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	log.L().Info().Str("addr", addr).Msg("chat server listening")
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on an existing listener. A single accept
// error does not stop the loop unless the server is shutting down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.startedAt = time.Now()
	s.mu.Unlock()

	for {
		c, err := ln.Accept()
		if err != nil {
			if s.isClosing() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.L().Warn().Err(err).Msg("accept failed")
			continue
		}

		select {
		case s.sem <- struct{}{}:
		default:
			// At capacity; refuse politely instead of queueing.
			c.Write([]byte(domain.ErrorLine("server is full, try again later") + "\n"))
			c.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer func() {
				<-s.sem
				s.wg.Done()
			}()
			newConn(s, c).handle(ctx)
		}()
	}
}

// Shutdown stops accepting, notifies every session and closes them.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	ln := s.ln
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}

	s.router.BroadcastSystem("server is shutting down")
	for _, sess := range s.reg.Snapshot() {
		s.reg.Deregister(sess.ID)
		sess.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// teardown removes a session and announces its departure. Safe to call
// twice for the same session: the registry makes the second call a no-op.
func (s *Server) teardown(sess *domain.Session, reason string) {
	removed := s.reg.Deregister(sess.ID)
	sess.Close()
	if removed == nil {
		return
	}

	log.L().Info().
		Str(log.FieldConnID, sess.ID).
		Str(log.FieldUsername, sess.Username).
		Str("reason", reason).
		Msg("session closed")
	s.router.BroadcastSystem(fmt.Sprintf("user %s left the chat", sess.Username))
}

// sendHistory replays the recent messages of a room to one session,
// consulting the history cache first.
func (s *Server) sendHistory(ctx context.Context, sess *domain.Session, roomID uint) {
	entries, err := s.cache.Get(ctx, roomID)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.L().Warn().Err(err).Uint64(log.FieldRoomID, uint64(roomID)).Msg("history cache read failed")
		}
		entries, err = s.store.RoomHistory(ctx, roomID, s.cfg.HistoryReplay)
		if err != nil {
			log.L().Error().Err(err).Uint64(log.FieldRoomID, uint64(roomID)).Msg("failed to load room history")
			sess.Send(domain.ErrorLine("could not load message history"))
			return
		}
		if cerr := s.cache.Set(ctx, roomID, entries); cerr != nil {
			log.L().Warn().Err(cerr).Msg("history cache write failed")
		}
	}

	if len(entries) == 0 {
		return
	}
	sess.Send("Message history:")
	for _, e := range entries {
		sess.Send(domain.HistoryLine(e.CreatedAt, e.Username, e.Content))
	}
}
