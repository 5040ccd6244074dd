package dto

import "github.com/google/uuid"

type SynthesizeSpeechRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	MessageId     uuid.UUID `json:"message_id" validate:"required"`
	Voice         string    `json:"voice"`
}

type SynthesizeSpeechResponse struct {
	MessageId uuid.UUID `json:"message_id"`
	AudioData string    `json:"audio_data,omitempty"` // base64 PCM, empty when synthesis yielded nothing
}

type PlaySpeechRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	MessageId     uuid.UUID `json:"message_id" validate:"required"`
	Voice         string    `json:"voice"`
}
