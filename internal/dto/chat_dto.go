package dto

import (
	"time"

	"github.com/google/uuid"
)

type InlineDataDTO struct {
	MimeType string `json:"mime_type" validate:"required"`
	Data     string `json:"data" validate:"required"` // base64
}

type MessagePartDTO struct {
	Text       string         `json:"text,omitempty"`
	InlineData *InlineDataDTO `json:"inline_data,omitempty"`
}

type GroundingSourceDTO struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type MessageDTO struct {
	Id          uuid.UUID            `json:"id"`
	Role        string               `json:"role"`
	Content     []MessagePartDTO     `json:"content"`
	CreatedAt   time.Time            `json:"created_at"`
	IsStreaming bool                 `json:"is_streaming"`
	Sources     []GroundingSourceDTO `json:"sources,omitempty"`
	HasAudio    bool                 `json:"has_audio"`
}

type CreateSessionRequest struct {
	Model string `json:"model" validate:"required"`
}

type CreateSessionResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

type GetAllSessionsResponse struct {
	Id           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID      `json:"chat_session_id" validate:"required"`
	Text          string         `json:"text" validate:"required_without=Image"`
	Image         *InlineDataDTO `json:"image,omitempty"`
	UseSearch     bool           `json:"use_search"`
}

type SendChatResponse struct {
	ChatSessionId uuid.UUID   `json:"chat_session_id"`
	Title         string      `json:"title"`
	Sent          *MessageDTO `json:"sent"`
	Reply         *MessageDTO `json:"reply"`
}
