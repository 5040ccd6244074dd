package service

import (
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/pkg/store"
)

func toInlineDataDTO(d *store.InlineData) *dto.InlineDataDTO {
	if d == nil {
		return nil
	}
	return &dto.InlineDataDTO{MimeType: d.MimeType, Data: d.Data}
}

func toMessageDTO(m store.Message) *dto.MessageDTO {
	parts := make([]dto.MessagePartDTO, 0, len(m.Content))
	for _, p := range m.Content {
		parts = append(parts, dto.MessagePartDTO{
			Text:       p.Text,
			InlineData: toInlineDataDTO(p.InlineData),
		})
	}

	var sources []dto.GroundingSourceDTO
	for _, src := range m.Sources {
		sources = append(sources, dto.GroundingSourceDTO{Title: src.Title, URI: src.URI})
	}

	return &dto.MessageDTO{
		Id:          m.Id,
		Role:        string(m.Role),
		Content:     parts,
		CreatedAt:   m.CreatedAt,
		IsStreaming: m.IsStreaming,
		Sources:     sources,
		HasAudio:    m.AudioData != "",
	}
}

func toSessionResponse(s *store.Session) *dto.CreateSessionResponse {
	return &dto.CreateSessionResponse{
		Id:        s.Id,
		Title:     s.Title,
		Model:     s.Model,
		CreatedAt: s.CreatedAt,
	}
}
