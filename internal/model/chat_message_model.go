package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMessage struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Role          string    `gorm:"type:text;not null"`
	// Content holds the ordered content parts (text / inline data), Sources the
	// grounding citations (null when none), AudioData the lazily populated
	// base64 PCM, Position the order within the session.
	Content     datatypes.JSON `gorm:"not null"`
	Sources     datatypes.JSON
	AudioData   string         `gorm:"type:text"`
	IsStreaming bool           `gorm:"not null;default:false"`
	Position    int            `gorm:"not null;index"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
