package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeChatTurnCompleted = "CHAT_TURN_COMPLETED"
	TypeImageGenerated    = "IMAGE_GENERATED"
	TypeUserRegistered    = "USER_REGISTERED"
)

func NewChatTurnCompleted(userId, sessionId, messageId uuid.UUID, model string) Event {
	return BaseEvent{
		Type: TypeChatTurnCompleted,
		Data: map[string]interface{}{
			"user_id":    userId.String(),
			"session_id": sessionId.String(),
			"message_id": messageId.String(),
			"model":      model,
		},
		OccurredAt: time.Now(),
	}
}

func NewImageGenerated(userId, sessionId, messageId uuid.UUID, aspectRatio string) Event {
	return BaseEvent{
		Type: TypeImageGenerated,
		Data: map[string]interface{}{
			"user_id":      userId.String(),
			"session_id":   sessionId.String(),
			"message_id":   messageId.String(),
			"aspect_ratio": aspectRatio,
		},
		OccurredAt: time.Now(),
	}
}

func NewUserRegistered(userId uuid.UUID, email, provider string) Event {
	return BaseEvent{
		Type: TypeUserRegistered,
		Data: map[string]interface{}{
			"user_id":  userId.String(),
			"email":    email,
			"provider": provider,
		},
		OccurredAt: time.Now(),
	}
}
