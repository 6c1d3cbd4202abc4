package domain

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	// Drain the client side so Send never blocks.
	go func() {
		buf := make([]byte, 1024)
		for {
			if _, err := client.Read(buf); err != nil {
				return
			}
		}
	}()
	return NewSession("conn-1", server, 7, "alice", false, time.Second)
}

func TestSessionDefaultsToGeneralRoom(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, GeneralRoomID, s.RoomID())

	s.JoinRoom(42)
	assert.Equal(t, uint(42), s.RoomID())
}

func TestSessionRingTrimsOnOverflow(t *testing.T) {
	s := newTestSession(t)
	now := time.Now()

	for i := 0; i < 100; i++ {
		s.RecordMessage(fmt.Sprintf("m%d", i), now)
	}
	require.Len(t, s.RecentMessages(), 100)

	// Crossing the capacity trims to the newest 50.
	s.RecordMessage("overflow", now)
	recent := s.RecentMessages()
	require.Len(t, recent, 50)
	assert.Equal(t, "overflow", recent[len(recent)-1].Content)
	assert.Equal(t, "m51", recent[0].Content)
}

func TestSessionRecentMessagesReturnsCopy(t *testing.T) {
	s := newTestSession(t)
	s.RecordMessage("one", time.Now())

	got := s.RecentMessages()
	got[0].Content = "mutated"
	assert.Equal(t, "one", s.RecentMessages()[0].Content)
}

func TestProtocolLineFormats(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC)

	assert.Equal(t, "[SYSTEM] server notice", SystemNotice("server notice"))
	assert.Equal(t, "alice: hi", RoomLine("alice", "hi"))
	assert.Equal(t, "[DM from bob] secret", DMLine("bob", "secret"))
	assert.Equal(t, "[DM to bob] secret", DMConfirmLine("bob", "secret"))
	assert.Equal(t, "[09:05] alice: hi", HistoryLine(at, "alice", "hi"))
	assert.Equal(t, "Error: nope", ErrorLine("nope"))
}
