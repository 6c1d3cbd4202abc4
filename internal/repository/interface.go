package repository

import (
	"context"
	"errors"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrRoomExists         = errors.New("room already exists")
	ErrRoomNotFound       = errors.New("room not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Store is the durable persistence collaborator consumed by the
// session/connection core. All calls are synchronous; a slow call blocks
// only the calling connection's handler.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, username, password string) error
	VerifyUser(ctx context.Context, username, password string) (*domain.User, error)
	UserByName(ctx context.Context, username string) (*domain.User, error)

	// Rooms
	CreateRoom(ctx context.Context, name string, createdBy uint) (*domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)

	// Room messages
	AppendRoomMessage(ctx context.Context, userID, roomID uint, content string) (uint, error)
	RoomHistory(ctx context.Context, roomID uint, limit int) ([]domain.HistoryEntry, error)

	// Direct messages
	AppendDM(ctx context.Context, fromID, toID uint, content string) (uint, error)
	DMThread(ctx context.Context, userID, otherID uint, limit int) ([]domain.DirectMessage, error)
	Inbox(ctx context.Context, userID uint, limit int) ([]domain.DirectMessage, error)
	MarkRead(ctx context.Context, userID, fromID uint) (int64, error)

	// Aggregates
	Stats(ctx context.Context) (*domain.StoreStats, error)
	UserAggregates(ctx context.Context, userID uint) (*domain.UserAggregates, error)

	Close() error
}
