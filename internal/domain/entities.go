package domain

import "time"

// User represents a durable account.
type User struct {
	ID           uint
	Username     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// Room is a durable named channel.
type Room struct {
	ID        uint
	Name      string
	CreatedBy uint
	CreatedAt time.Time
}

// HistoryEntry is one replayed room message.
type HistoryEntry struct {
	ID        uint
	Username  string
	Content   string
	CreatedAt time.Time
}

// DirectMessage is one private message row.
type DirectMessage struct {
	ID        uint
	From      string
	To        string
	Content   string
	Read      bool
	CreatedAt time.Time
}

// StoreStats holds aggregate row counts for admin inspection.
type StoreStats struct {
	Users          int64
	Rooms          int64
	Messages       int64
	DirectMessages int64
}

// UserAggregates holds per-account counters shown by /myinfo.
type UserAggregates struct {
	MessagesSent int64
	DMsSent      int64
	DMsReceived  int64
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// GeneralRoomID is the id of the built-in room every session starts in.
// The row is seeded at migration time and cannot be deleted.
const GeneralRoomID uint = 1

// GeneralRoomName is the name of the built-in room.
const GeneralRoomName = "general"
