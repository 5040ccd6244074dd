package mapper

import (
	"time"

	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/model"

	"gorm.io/gorm"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ProfileToEntity(p *model.UserProfile) *entity.UserProfile {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.UserProfile{
		Id:           p.Id,
		Email:        p.Email,
		FullName:     p.FullName,
		AvatarURL:    p.AvatarURL,
		Bio:          p.Bio,
		PasswordHash: p.PasswordHash,
		Provider:     p.Provider,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    updatedAt,
		IsDeleted:    p.DeletedAt.Valid,
	}
}

func (m *UserMapper) ProfileToModel(p *entity.UserProfile) *model.UserProfile {
	if p == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if p.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &model.UserProfile{
		Id:           p.Id,
		Email:        p.Email,
		FullName:     p.FullName,
		AvatarURL:    p.AvatarURL,
		Bio:          p.Bio,
		PasswordHash: p.PasswordHash,
		Provider:     p.Provider,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}
