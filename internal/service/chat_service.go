package service

import (
	"context"
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

type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId, sessionId uuid.UUID) ([]*dto.MessageDTO, error)
	SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	StopGeneration(ctx context.Context, userId, sessionId uuid.UUID) error
	DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error
}

type chatService struct {
	store             *store.Store
	gateway           Gateway
	turns             *memory.TurnRegistry
	hub               Broadcaster
	eventPublisher    *pktNats.Publisher
	logger            logger.ILogger
	systemInstruction string
}

func NewChatService(
	st *store.Store,
	gateway Gateway,
	turns *memory.TurnRegistry,
	hub Broadcaster,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	systemInstruction string,
) IChatService {
	if systemInstruction == "" {
		systemInstruction = constant.DefaultSystemInstruction
	}
	return &chatService{
		store:             st,
		gateway:           gateway,
		turns:             turns,
		hub:               hub,
		eventPublisher:    eventPublisher,
		logger:            log,
		systemInstruction: systemInstruction,
	}
}

func (s *chatService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	session := s.store.Create(userId, req.Model)
	s.logger.Info("ChatService", "Session created", map[string]interface{}{
		"session_id": session.Id,
		"model":      session.Model,
	})
	return toSessionResponse(session), nil
}

func (s *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	sessions := s.store.SnapshotForUser(userId)

	res := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, session := range sessions {
		res = append(res, &dto.GetAllSessionsResponse{
			Id:           session.Id,
			Title:        session.Title,
			Model:        session.Model,
			MessageCount: len(session.Messages),
			CreatedAt:    session.CreatedAt,
		})
	}
	return res, nil
}

func (s *chatService) GetChatHistory(ctx context.Context, userId, sessionId uuid.UUID) ([]*dto.MessageDTO, error) {
	session, err := s.ownedSession(userId, sessionId)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageDTO, 0, len(session.Messages))
	for _, msg := range session.Messages {
		res = append(res, toMessageDTO(msg))
	}
	return res, nil
}

// SendChat runs one full streaming turn: append the user message, stream the
// reply into a placeholder, finalize. Returns after the stream is settled.
func (s *chatService) SendChat(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	session, err := s.ownedSession(userId, req.ChatSessionId)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" && req.Image == nil {
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
	if req.Image != nil {
		parts = append(parts, store.MessagePart{
			InlineData: &store.InlineData{MimeType: req.Image.MimeType, Data: req.Image.Data},
		})
	}
	if req.Text != "" {
		parts = append(parts, store.MessagePart{Text: req.Text})
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
		s.store.SetTitle(session.Id, deriveTitle(req.Text))
	}

	placeholder := store.Message{
		Id:          uuid.New(),
		Role:        store.RoleModel,
		Content:     []store.MessagePart{{Text: ""}},
		CreatedAt:   time.Now(),
		IsStreaming: true,
	}
	s.store.Append(session.Id, placeholder)

	history := make([]store.Message, 0, len(session.Messages)+1)
	history = append(history, session.Messages...)
	history = append(history, userMsg)

	s.runStream(turnCtx, userId, session.Id, placeholder.Id, session.Model, history, req.UseSearch)

	return s.buildTurnResponse(session.Id, userMsg.Id, placeholder.Id)
}

// runStream is the reducer: it consumes chunks strictly in arrival order,
// concatenates text deltas, lets the last non-empty citation list win, and
// patches the placeholder after every chunk.
func (s *chatService) runStream(ctx context.Context, userId, sessionId, messageId uuid.UUID, model string, history []store.Message, useSearch bool) {
	stream, err := s.gateway.StreamChat(ctx, s.resolveModel(model), history, s.systemInstruction, useSearch)
	if err != nil {
		s.logger.Error("ChatService", "Stream open failed", map[string]interface{}{
			"error":      err.Error(),
			"session_id": sessionId,
		})
		s.failTurn(userId, sessionId, messageId)
		return
	}
	defer stream.Close()

	var full strings.Builder
	var sources []store.GroundingSource

	for chunk := range stream.Chunks() {
		full.WriteString(chunk.Text)
		if len(chunk.Sources) > 0 {
			sources = chunk.Sources
		}

		patch := store.Patch{Content: []store.MessagePart{{Text: full.String()}}}
		if len(sources) > 0 {
			patch.Sources = sources
		}
		if !s.store.PatchStreamingMessage(sessionId, messageId, patch) {
			// Session deleted mid-turn. The context is already canceled,
			// just drain out.
			return
		}

		s.hub.Send(userId, websocket.Frame{
			Type: websocket.FrameChatChunk,
			Data: map[string]interface{}{
				"session_id": sessionId,
				"message_id": messageId,
				"text":       full.String(),
				"sources":    sources,
			},
		})
	}

	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			// Stopped by the user; keep whatever streamed so far.
			s.store.Finalize(sessionId, messageId)
			s.sendDone(userId, sessionId, messageId)
			return
		}
		s.logger.Error("ChatService", "Stream failed", map[string]interface{}{
			"error":      err.Error(),
			"session_id": sessionId,
		})
		s.failTurn(userId, sessionId, messageId)
		return
	}

	s.store.Finalize(sessionId, messageId)
	s.sendDone(userId, sessionId, messageId)

	if s.eventPublisher != nil {
		evt := events.NewChatTurnCompleted(userId, sessionId, messageId, model)
		if err := s.eventPublisher.Publish(context.Background(), evt); err != nil {
			s.logger.Warn("ChatService", "Event publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (s *chatService) StopGeneration(ctx context.Context, userId, sessionId uuid.UUID) error {
	if _, err := s.ownedSession(userId, sessionId); err != nil {
		return err
	}
	// No-op when nothing is streaming.
	s.turns.Cancel(sessionId)
	return nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error {
	if _, err := s.ownedSession(userId, sessionId); err != nil {
		return err
	}

	// A stream still writing into this session would resurrect it.
	s.turns.Cancel(sessionId)
	s.store.Delete(sessionId)

	s.logger.Info("ChatService", "Session deleted", map[string]interface{}{"session_id": sessionId})
	return nil
}

func (s *chatService) ownedSession(userId, sessionId uuid.UUID) (*store.Session, error) {
	session, ok := s.store.Get(sessionId)
	if !ok || session.UserId != userId {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// failTurn replaces the placeholder with the fixed error text. The turn is
// abandoned, never retried.
func (s *chatService) failTurn(userId, sessionId, messageId uuid.UUID) {
	s.store.PatchStreamingMessage(sessionId, messageId, store.Patch{
		Content: []store.MessagePart{{Text: constant.ErrorReplyText}},
		Sources: []store.GroundingSource{},
	})
	s.store.Finalize(sessionId, messageId)
	s.sendDone(userId, sessionId, messageId)
}

func (s *chatService) sendDone(userId, sessionId, messageId uuid.UUID) {
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

func (s *chatService) buildTurnResponse(sessionId, userMsgId, replyId uuid.UUID) (*dto.SendChatResponse, error) {
	session, ok := s.store.Get(sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}

	res := &dto.SendChatResponse{
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

func (s *chatService) resolveModel(model string) string {
	if model == "" {
		return gemini.ModelFlash
	}
	return model
}

// deriveTitle takes the first characters of the opening message. Image-only
// openers get a fixed title.
func deriveTitle(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return constant.ImageQueryTitle
	}
	runes := []rune(t)
	if len(runes) > constant.TitleMaxLen {
		return string(runes[:constant.TitleMaxLen])
	}
	return t
}
