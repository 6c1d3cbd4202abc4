package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/database"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := database.New(&database.Config{
		Driver:   "sqlite",
		FilePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)

	store, err := NewGormStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCreateUser(t *testing.T, store *GormStore, name string) *domain.User {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, name, "password1"))
	user, err := store.UserByName(ctx, name)
	require.NoError(t, err)
	return user
}

func TestGeneralRoomSeeded(t *testing.T) {
	store := newTestStore(t)

	rooms, err := store.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, domain.GeneralRoomID, rooms[0].ID)
	assert.Equal(t, domain.GeneralRoomName, rooms[0].Name)
}

func TestCreateAccountAndVerify(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, "alice", "secret1"))

	user, err := store.VerifyUser(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.IsAdmin())

	// Hash never stores the plain password.
	assert.NotContains(t, user.PasswordHash, "secret1")

	_, err = store.VerifyUser(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = store.VerifyUser(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateAccountDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, "alice", "secret1"))
	assert.ErrorIs(t, store.CreateAccount(ctx, "alice", "other99"), ErrUsernameExists)
}

func TestAdminRole(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := mustCreateUser(t, store, "carol")

	require.NoError(t, store.db.Model(&UserModel{}).
		Where("id = ?", user.ID).
		Update("roles", database.StringArray{domain.RoleUser, domain.RoleAdmin}).Error)

	got, err := store.UserByName(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
}

func TestCreateRoomAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := mustCreateUser(t, store, "alice")

	room, err := store.CreateRoom(ctx, "team", user.ID)
	require.NoError(t, err)
	assert.Equal(t, "team", room.Name)
	assert.NotEqual(t, domain.GeneralRoomID, room.ID)

	_, err = store.CreateRoom(ctx, "team", user.ID)
	assert.ErrorIs(t, err, ErrRoomExists)

	rooms, err := store.ListRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestRoomHistoryOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := mustCreateUser(t, store, "alice")

	for _, text := range []string{"one", "two", "three"} {
		_, err := store.AppendRoomMessage(ctx, user.ID, domain.GeneralRoomID, text)
		require.NoError(t, err)
	}

	history, err := store.RoomHistory(ctx, domain.GeneralRoomID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Oldest first within the window of the newest two.
	assert.Equal(t, "two", history[0].Content)
	assert.Equal(t, "three", history[1].Content)
	assert.Equal(t, "alice", history[0].Username)
}

func TestDMThreadAndMarkRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")

	_, err := store.AppendDM(ctx, alice.ID, bob.ID, "hello bob")
	require.NoError(t, err)
	_, err = store.AppendDM(ctx, bob.ID, alice.ID, "hi alice")
	require.NoError(t, err)

	thread, err := store.DMThread(ctx, alice.ID, bob.ID, 10)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "alice", thread[0].From)
	assert.Equal(t, "hello bob", thread[0].Content)
	assert.False(t, thread[0].Read)

	// Bob reads the thread: exactly the messages addressed to him flip.
	n, err := store.MarkRead(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	thread, err = store.DMThread(ctx, alice.ID, bob.ID, 10)
	require.NoError(t, err)
	assert.True(t, thread[0].Read)
	assert.False(t, thread[1].Read)

	// Re-reading is idempotent.
	n, err = store.MarkRead(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInbox(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")

	inbox, err := store.Inbox(ctx, alice.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, inbox)

	_, err = store.AppendDM(ctx, bob.ID, alice.ID, "ping")
	require.NoError(t, err)

	inbox, err = store.Inbox(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "bob", inbox[0].From)
	assert.Equal(t, "alice", inbox[0].To)
}

func TestStatsAndAggregates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")

	_, err := store.AppendRoomMessage(ctx, alice.ID, domain.GeneralRoomID, "hello")
	require.NoError(t, err)
	_, err = store.AppendDM(ctx, alice.ID, bob.ID, "psst")
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Users)
	assert.Equal(t, int64(1), stats.Rooms)
	assert.Equal(t, int64(1), stats.Messages)
	assert.Equal(t, int64(1), stats.DirectMessages)

	agg, err := store.UserAggregates(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), agg.MessagesSent)
	assert.Equal(t, int64(1), agg.DMsSent)
	assert.Zero(t, agg.DMsReceived)

	agg, err = store.UserAggregates(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), agg.DMsReceived)
}
