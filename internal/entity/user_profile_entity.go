package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserProfile struct {
	Id           uuid.UUID
	Email        string
	FullName     string
	AvatarURL    *string
	Bio          *string
	PasswordHash *string
	Provider     string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	IsDeleted    bool
}
