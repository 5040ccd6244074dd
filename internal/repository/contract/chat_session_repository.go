package contract

import (
	"context"

	"nexus-chat-be/internal/repository/specification"
	"nexus-chat-be/pkg/store"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	// Save upserts the session row (title, model, owner). Messages are
	// persisted through ChatMessageRepository.
	Save(ctx context.Context, session *store.Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error
	// FindAll returns session headers (no messages).
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*store.Session, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*store.Session, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
