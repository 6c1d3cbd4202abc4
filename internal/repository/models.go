package repository

import (
	"time"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/domain"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/database"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           uint                 `gorm:"primaryKey"`
	Username     string               `gorm:"type:varchar(50);uniqueIndex;not null"`
	PasswordHash string               `gorm:"type:varchar(255);not null"`
	Roles        database.StringArray `gorm:"type:text"`
	CreatedAt    time.Time            `gorm:"autoCreateTime"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Roles:        []string(m.Roles),
		CreatedAt:    m.CreatedAt,
	}
}

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(30);uniqueIndex;not null"`
	CreatedBy uint      `gorm:"index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (RoomModel) TableName() string { return "rooms" }

func (m *RoomModel) ToDomain() *domain.Room {
	return &domain.Room{
		ID:        m.ID,
		Name:      m.Name,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

// MessageModel is the GORM model for room messages.
type MessageModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	RoomID    uint      `gorm:"index;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (MessageModel) TableName() string { return "messages" }

// DirectMessageModel is the GORM model for private messages.
type DirectMessageModel struct {
	ID         uint      `gorm:"primaryKey"`
	FromUserID uint      `gorm:"index;not null"`
	ToUserID   uint      `gorm:"index;not null"`
	Content    string    `gorm:"type:text;not null"`
	IsRead     bool      `gorm:"default:false"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

func (DirectMessageModel) TableName() string { return "private_messages" }
