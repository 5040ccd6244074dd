package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// OrderByPosition keeps messages in their append order.
type OrderByPosition struct{}

func (s OrderByPosition) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// OrderByCreatedAtDesc lists sessions newest first, matching the in-memory
// collection order.
type OrderByCreatedAtDesc struct{}

func (s OrderByCreatedAtDesc) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}
