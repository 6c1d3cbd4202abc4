package domain

import (
	"net"
	"sync"
	"time"
)

// Ring capacity bounds for the per-session recent-message history used by
// the spam heuristic. When the ring exceeds ringCapacity entries it is
// trimmed to the newest ringKeep.
const (
	ringCapacity = 100
	ringKeep     = 50
)

// RingEntry is one recently sent message, kept only for spam detection.
type RingEntry struct {
	Timestamp time.Time
	Content   string
}

// Session is the in-memory state bound to one authenticated connection.
// It is owned by the connection handler that created it; other goroutines
// (the router) see it only through the registry and must use the accessor
// methods, which serialise access to the mutable fields.
type Session struct {
	ID       string // connection id
	UserID   uint
	Username string
	Admin    bool

	conn         net.Conn
	writeTimeout time.Duration

	mu     sync.RWMutex // guards roomID and ring
	wmu    sync.Mutex   // serialises writes to conn
	roomID uint
	ring   []RingEntry

	CreatedAt time.Time
}

// NewSession binds a fresh session to an authenticated connection.
func NewSession(id string, conn net.Conn, userID uint, username string, admin bool, writeTimeout time.Duration) *Session {
	return &Session{
		ID:           id,
		UserID:       userID,
		Username:     username,
		Admin:        admin,
		conn:         conn,
		writeTimeout: writeTimeout,
		roomID:       GeneralRoomID,
		CreatedAt:    time.Now(),
	}
}

// Send writes one protocol line to the peer. Concurrent senders (the
// handler and the router) are serialised so lines never interleave.
func (s *Session) Send(line string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	_, err := s.conn.Write([]byte(line + "\n"))
	return err
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// RoomID returns the session's current room.
func (s *Session) RoomID() uint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID
}

// JoinRoom moves the session into the given room.
func (s *Session) JoinRoom(roomID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
}

// RecordMessage appends a sent message to the spam-heuristic ring,
// trimming to the newest entries on overflow.
func (s *Session) RecordMessage(content string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring = append(s.ring, RingEntry{Timestamp: at, Content: content})
	if len(s.ring) > ringCapacity {
		s.ring = append([]RingEntry(nil), s.ring[len(s.ring)-ringKeep:]...)
	}
}

// RecentMessages returns a copy of the spam-heuristic ring.
func (s *Session) RecentMessages() []RingEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RingEntry, len(s.ring))
	copy(out, s.ring)
	return out
}
