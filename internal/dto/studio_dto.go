package dto

import "github.com/google/uuid"

type GenerateImageRequest struct {
	ChatSessionId uuid.UUID      `json:"chat_session_id" validate:"required"`
	Prompt        string         `json:"prompt"`
	BaseImage     *InlineDataDTO `json:"base_image,omitempty"`
	AspectRatio   string         `json:"aspect_ratio" validate:"required"`
}

type GenerateImageResponse struct {
	ChatSessionId uuid.UUID   `json:"chat_session_id"`
	Title         string      `json:"title"`
	Sent          *MessageDTO `json:"sent"`
	Reply         *MessageDTO `json:"reply"`
}
