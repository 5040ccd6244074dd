package mapper

import (
	"encoding/json"

	"nexus-chat-be/internal/model"
	"nexus-chat-be/pkg/store"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) SessionToModel(s *store.Session) *model.ChatSession {
	if s == nil {
		return nil
	}
	return &model.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		Model:     s.Model,
		CreatedAt: s.CreatedAt,
	}
}

// SessionToStore rebuilds the live session from its row plus its ordered
// message rows.
func (m *ChatMapper) SessionToStore(s *model.ChatSession, msgs []*model.ChatMessage) (*store.Session, error) {
	if s == nil {
		return nil, nil
	}

	messages := make([]store.Message, 0, len(msgs))
	for _, row := range msgs {
		msg, err := m.MessageToStore(row)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return &store.Session{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		Model:     s.Model,
		Messages:  messages,
		CreatedAt: s.CreatedAt,
	}, nil
}

// Message Mappers

func (m *ChatMapper) MessageToModel(sessionId uuid.UUID, position int, msg store.Message) (*model.ChatMessage, error) {
	content, err := json.Marshal(msg.Content)
	if err != nil {
		return nil, err
	}

	var sources datatypes.JSON
	if len(msg.Sources) > 0 {
		sources, err = json.Marshal(msg.Sources)
		if err != nil {
			return nil, err
		}
	}

	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: sessionId,
		Role:          string(msg.Role),
		Content:       datatypes.JSON(content),
		Sources:       sources,
		AudioData:     msg.AudioData,
		IsStreaming:   msg.IsStreaming,
		Position:      position,
		CreatedAt:     msg.CreatedAt,
	}, nil
}

func (m *ChatMapper) MessageToStore(row *model.ChatMessage) (store.Message, error) {
	var content []store.MessagePart
	if len(row.Content) > 0 {
		if err := json.Unmarshal(row.Content, &content); err != nil {
			return store.Message{}, err
		}
	}

	var sources []store.GroundingSource
	if len(row.Sources) > 0 {
		if err := json.Unmarshal(row.Sources, &sources); err != nil {
			return store.Message{}, err
		}
	}

	return store.Message{
		Id:          row.Id,
		Role:        store.Role(row.Role),
		Content:     content,
		CreatedAt:   row.CreatedAt,
		IsStreaming: row.IsStreaming,
		Sources:     sources,
		AudioData:   row.AudioData,
	}, nil
}
