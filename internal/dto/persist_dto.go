package dto

import "github.com/google/uuid"

// PublishSessionEventMessage is the payload carried on the persistence
// topic between the session store and the write-behind consumer.
type PublishSessionEventMessage struct {
	Kind      string    `json:"kind"`
	SessionId uuid.UUID `json:"session_id"`
}
