package contract

import (
	"context"

	"nexus-chat-be/internal/repository/specification"
	"nexus-chat-be/pkg/store"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	// ReplaceForSession upserts the session's messages with their append
	// positions. The list is append-only apart from patches of the streaming
	// message, so an upsert covers every mutation the store produces.
	ReplaceForSession(ctx context.Context, sessionId uuid.UUID, messages []store.Message) error
	FindAllBySession(ctx context.Context, sessionId uuid.UUID) ([]store.Message, error)
	DeleteAllBySessionUnscoped(ctx context.Context, sessionId uuid.UUID) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
