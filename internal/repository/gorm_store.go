package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/database"
)

// GormStore implements Store using GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the schema, seeds the built-in general room and
// returns a ready store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	err := database.AutoMigrate(db,
		&UserModel{},
		&RoomModel{},
		&MessageModel{},
		&DirectMessageModel{},
	)
	if err != nil {
		return nil, err
	}

	general := RoomModel{ID: domain.GeneralRoomID, Name: domain.GeneralRoomName}
	if err := db.FirstOrCreate(&general, RoomModel{ID: domain.GeneralRoomID}).Error; err != nil {
		return nil, err
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateAccount(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	model := UserModel{
		Username:     username,
		PasswordHash: string(hash),
		Roles:        database.StringArray{domain.RoleUser},
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return s.handleError(err)
	}
	return nil
}

func (s *GormStore) VerifyUser(ctx context.Context, username, password string) (*domain.User, error) {
	var model UserModel
	result := s.db.WithContext(ctx).First(&model, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, result.Error
	}

	if err := bcrypt.CompareHashAndPassword([]byte(model.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return model.ToDomain(), nil
}

func (s *GormStore) UserByName(ctx context.Context, username string) (*domain.User, error) {
	var model UserModel
	result := s.db.WithContext(ctx).First(&model, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

func (s *GormStore) CreateRoom(ctx context.Context, name string, createdBy uint) (*domain.Room, error) {
	model := RoomModel{Name: name, CreatedBy: createdBy}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, s.handleError(err)
	}
	return model.ToDomain(), nil
}

func (s *GormStore) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var models []RoomModel
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}

	rooms := make([]domain.Room, 0, len(models))
	for i := range models {
		rooms = append(rooms, *models[i].ToDomain())
	}
	return rooms, nil
}

func (s *GormStore) AppendRoomMessage(ctx context.Context, userID, roomID uint, content string) (uint, error) {
	model := MessageModel{UserID: userID, RoomID: roomID, Content: content}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, err
	}
	return model.ID, nil
}

func (s *GormStore) RoomHistory(ctx context.Context, roomID uint, limit int) ([]domain.HistoryEntry, error) {
	var rows []struct {
		ID        uint
		Username  string
		Content   string
		CreatedAt time.Time
	}

	err := s.db.WithContext(ctx).
		Table("messages").
		Select("messages.id, users.username, messages.content, messages.created_at").
		Joins("JOIN users ON users.id = messages.user_id").
		Where("messages.room_id = ?", roomID).
		Order("messages.created_at DESC, messages.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	// Newest rows come out first; replay oldest to newest.
	entries := make([]domain.HistoryEntry, len(rows))
	for i, row := range rows {
		entries[len(rows)-1-i] = domain.HistoryEntry{
			ID:        row.ID,
			Username:  row.Username,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
		}
	}
	return entries, nil
}

func (s *GormStore) AppendDM(ctx context.Context, fromID, toID uint, content string) (uint, error) {
	model := DirectMessageModel{FromUserID: fromID, ToUserID: toID, Content: content}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, err
	}
	return model.ID, nil
}

func (s *GormStore) DMThread(ctx context.Context, userID, otherID uint, limit int) ([]domain.DirectMessage, error) {
	return s.scanDMs(ctx, s.db.WithContext(ctx).
		Table("private_messages").
		Select("private_messages.id, u1.username AS from_name, u2.username AS to_name, private_messages.content, private_messages.is_read, private_messages.created_at").
		Joins("JOIN users u1 ON u1.id = private_messages.from_user_id").
		Joins("JOIN users u2 ON u2.id = private_messages.to_user_id").
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userID, otherID, otherID, userID).
		Order("private_messages.created_at ASC, private_messages.id ASC").
		Limit(limit))
}

func (s *GormStore) Inbox(ctx context.Context, userID uint, limit int) ([]domain.DirectMessage, error) {
	return s.scanDMs(ctx, s.db.WithContext(ctx).
		Table("private_messages").
		Select("private_messages.id, u1.username AS from_name, u2.username AS to_name, private_messages.content, private_messages.is_read, private_messages.created_at").
		Joins("JOIN users u1 ON u1.id = private_messages.from_user_id").
		Joins("JOIN users u2 ON u2.id = private_messages.to_user_id").
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("private_messages.created_at DESC, private_messages.id DESC").
		Limit(limit))
}

func (s *GormStore) scanDMs(ctx context.Context, q *gorm.DB) ([]domain.DirectMessage, error) {
	var rows []struct {
		ID        uint
		FromName  string
		ToName    string
		Content   string
		IsRead    bool
		CreatedAt time.Time
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	dms := make([]domain.DirectMessage, 0, len(rows))
	for _, row := range rows {
		dms = append(dms, domain.DirectMessage{
			ID:        row.ID,
			From:      row.FromName,
			To:        row.ToName,
			Content:   row.Content,
			Read:      row.IsRead,
			CreatedAt: row.CreatedAt,
		})
	}
	return dms, nil
}

func (s *GormStore) MarkRead(ctx context.Context, userID, fromID uint) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&DirectMessageModel{}).
		Where("to_user_id = ? AND from_user_id = ? AND is_read = ?", userID, fromID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (s *GormStore) Stats(ctx context.Context) (*domain.StoreStats, error) {
	var stats domain.StoreStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&UserModel{}).Count(&stats.Users).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&RoomModel{}).Count(&stats.Rooms).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&MessageModel{}).Count(&stats.Messages).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&DirectMessageModel{}).Count(&stats.DirectMessages).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *GormStore) UserAggregates(ctx context.Context, userID uint) (*domain.UserAggregates, error) {
	var agg domain.UserAggregates
	db := s.db.WithContext(ctx)

	if err := db.Model(&MessageModel{}).Where("user_id = ?", userID).Count(&agg.MessagesSent).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&DirectMessageModel{}).Where("from_user_id = ?", userID).Count(&agg.DMsSent).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&DirectMessageModel{}).Where("to_user_id = ?", userID).Count(&agg.DMsReceived).Error; err != nil {
		return nil, err
	}
	return &agg, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// handleError converts driver-specific errors to domain errors.
func (s *GormStore) handleError(err error) error {
	errStr := err.Error()

	// SQLite/PostgreSQL/MySQL unique constraint violations
	if strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "Duplicate entry") {
		if strings.Contains(errStr, "username") || strings.Contains(errStr, "users") {
			return ErrUsernameExists
		}
		if strings.Contains(errStr, "name") || strings.Contains(errStr, "rooms") {
			return ErrRoomExists
		}
	}
	return err
}
