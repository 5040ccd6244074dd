package contract

import (
	"context"

	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserProfileRepository interface {
	Create(ctx context.Context, profile *entity.UserProfile) error
	Update(ctx context.Context, profile *entity.UserProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.UserProfile, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
