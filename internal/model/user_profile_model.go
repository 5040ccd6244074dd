package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProfile is the account row. PasswordHash is null for OAuth-only
// accounts; Provider is "manual" or "google".
type UserProfile struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email        string         `gorm:"type:text;not null;uniqueIndex"`
	FullName     string         `gorm:"type:text;not null"`
	AvatarURL    *string        `gorm:"type:text"`
	Bio          *string        `gorm:"type:text"`
	PasswordHash *string        `gorm:"type:text"`
	Provider     string         `gorm:"type:text;not null;default:'manual'"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
