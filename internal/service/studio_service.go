package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/repository/memory"
	"nexus-chat-be/internal/websocket"
	"nexus-chat-be/pkg/events"
	"nexus-chat-be/pkg/gemini"
	pktNats "nexus-chat-be/pkg/nats"
	"nexus-chat-be/pkg/store"

	"github.com/google/uuid"
)

type IStudioService interface {
	GenerateImage(ctx context.Context, userId uuid.UUID, req *dto.GenerateImageRequest) (*dto.GenerateImageResponse, error)
}

// studioService runs image generation turns. They share the session timeline
// and the one-turn-per-session rule with chat turns.
type studioService struct {
	store          *store.Store
	gateway        Gateway
	turns          *memory.TurnRegistry
	hub            Broadcaster
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewStudioService(
	st *store.Store,
	gateway Gateway,
	turns *memory.TurnRegistry,
	hub Broadcaster,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IStudioService {
	return &studioService{
		store:          st,
		gateway:        gateway,
		turns:          turns,
		hub:            hub,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *studioService) GenerateImage(ctx context.Context, userId uuid.UUID, req *dto.GenerateImageRequest) (*dto.GenerateImageResponse, error) {
	session, ok := s.store.Get(req.ChatSessionId)
	if !ok || session.UserId != userId {
		return nil, ErrSessionNotFound
	}

	ratio := gemini.AspectRatio(req.AspectRatio)
	if !ratio.Valid() {
		return nil, gemini.ErrInvalidAspectRatio
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" && req.BaseImage == nil {
		return nil, ErrEmptyMessage
	}

	turnCtx, cancel := context.WithCancel(ctx)
	if err := s.turns.Begin(session.Id, cancel); err != nil {
		cancel()
		return nil, err
	}
	defer func() {
		s.turns.End(session.Id)
		cancel()
	}()

	var parts []store.MessagePart
	var baseImage *store.InlineData
	if req.BaseImage != nil {
		baseImage = &store.InlineData{MimeType: req.BaseImage.MimeType, Data: req.BaseImage.Data}
		parts = append(parts, store.MessagePart{InlineData: baseImage})
	}
	if prompt != "" {
		parts = append(parts, store.MessagePart{Text: prompt})
	}

	userMsg := store.Message{
		Id:        uuid.New(),
		Role:      store.RoleUser,
		Content:   parts,
		CreatedAt: time.Now(),
	}

	firstTurn := len(session.Messages) == 0
	s.store.Append(session.Id, userMsg)
	if firstTurn && session.Title == store.DefaultTitle {
		s.store.SetTitle(session.Id, constant.StudioTitle)
	}

	placeholder := store.Message{
		Id:          uuid.New(),
		Role:        store.RoleModel,
		Content:     []store.MessagePart{{Text: constant.ImagePlaceholderText}},
		CreatedAt:   time.Now(),
		IsStreaming: true,
	}
	s.store.Append(session.Id, placeholder)

	img, err := s.gateway.GenerateImage(turnCtx, prompt, baseImage, ratio)
	if err != nil || img == nil {
		if err != nil {
			s.logger.Error("StudioService", "Image generation failed", map[string]interface{}{
				"error":      err.Error(),
				"session_id": session.Id,
			})
		}
		s.settle(userId, session.Id, placeholder.Id, store.Patch{
			Content: []store.MessagePart{{Text: constant.ImageFailedText}},
		})
		return s.buildResponse(session.Id, userMsg.Id, placeholder.Id)
	}

	s.settle(userId, session.Id, placeholder.Id, store.Patch{
		Content: []store.MessagePart{{
			Text:       fmt.Sprintf("Generated in %s aspect ratio.", ratio),
			InlineData: img,
		}},
	})

	if s.eventPublisher != nil {
		evt := events.NewImageGenerated(userId, session.Id, placeholder.Id, string(ratio))
		if err := s.eventPublisher.Publish(context.Background(), evt); err != nil {
			s.logger.Warn("StudioService", "Event publish failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return s.buildResponse(session.Id, userMsg.Id, placeholder.Id)
}

func (s *studioService) settle(userId, sessionId, messageId uuid.UUID, patch store.Patch) {
	s.store.PatchStreamingMessage(sessionId, messageId, patch)
	s.store.Finalize(sessionId, messageId)

	session, ok := s.store.Get(sessionId)
	if !ok {
		return
	}
	for _, msg := range session.Messages {
		if msg.Id == messageId {
			s.hub.Send(userId, websocket.Frame{
				Type: websocket.FrameChatDone,
				Data: map[string]interface{}{
					"session_id": sessionId,
					"message":    toMessageDTO(msg),
				},
			})
			return
		}
	}
}

func (s *studioService) buildResponse(sessionId, userMsgId, replyId uuid.UUID) (*dto.GenerateImageResponse, error) {
	session, ok := s.store.Get(sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}

	res := &dto.GenerateImageResponse{
		ChatSessionId: session.Id,
		Title:         session.Title,
	}
	for _, msg := range session.Messages {
		switch msg.Id {
		case userMsgId:
			res.Sent = toMessageDTO(msg)
		case replyId:
			res.Reply = toMessageDTO(msg)
		}
	}
	return res, nil
}
