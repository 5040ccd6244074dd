package service

import (
	"context"
	"strings"
	"sync"

	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/websocket"
	"nexus-chat-be/pkg/audio"
	"nexus-chat-be/pkg/gemini"
	"nexus-chat-be/pkg/store"

	"github.com/google/uuid"
)

type ISpeechService interface {
	// Synthesize returns PCM audio for a message, generating and caching it
	// on first request. A synthesis failure yields an empty payload, not an
	// error.
	Synthesize(ctx context.Context, userId uuid.UUID, req *dto.SynthesizeSpeechRequest) (*dto.SynthesizeSpeechResponse, error)
	// Play streams decoded audio frames over the user's websocket. Starting
	// a new playback stops the previous one.
	Play(ctx context.Context, userId uuid.UUID, req *dto.PlaySpeechRequest) error
	// Stop halts the user's playback. No-op when idle.
	Stop(ctx context.Context, userId uuid.UUID) error
}

type speechService struct {
	store   *store.Store
	gateway Gateway
	hub     Broadcaster
	logger  logger.ILogger

	// One player per user keeps the single-active-voice rule per client.
	mu      sync.Mutex
	players map[uuid.UUID]*audio.Player
}

func NewSpeechService(st *store.Store, gateway Gateway, hub Broadcaster, log logger.ILogger) ISpeechService {
	return &speechService{
		store:   st,
		gateway: gateway,
		hub:     hub,
		logger:  log,
		players: make(map[uuid.UUID]*audio.Player),
	}
}

func (s *speechService) Synthesize(ctx context.Context, userId uuid.UUID, req *dto.SynthesizeSpeechRequest) (*dto.SynthesizeSpeechResponse, error) {
	msg, err := s.findMessage(userId, req.ChatSessionId, req.MessageId)
	if err != nil {
		return nil, err
	}

	if msg.AudioData != "" {
		return &dto.SynthesizeSpeechResponse{MessageId: msg.Id, AudioData: msg.AudioData}, nil
	}

	voice := gemini.VoiceKore
	if req.Voice != "" {
		voice = gemini.Voice(req.Voice)
		if !voice.Valid() {
			return nil, gemini.ErrInvalidVoice
		}
	}

	var text strings.Builder
	for _, part := range msg.Content {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return nil, ErrEmptyMessage
	}

	audioData, err := s.gateway.GenerateSpeech(ctx, text.String(), voice)
	if err != nil {
		s.logger.Warn("SpeechService", "Synthesis failed", map[string]interface{}{
			"error":      err.Error(),
			"message_id": req.MessageId,
		})
		return &dto.SynthesizeSpeechResponse{MessageId: msg.Id}, nil
	}

	if audioData != "" {
		s.store.PatchStreamingMessage(req.ChatSessionId, msg.Id, store.Patch{AudioData: &audioData})
	}

	return &dto.SynthesizeSpeechResponse{MessageId: msg.Id, AudioData: audioData}, nil
}

func (s *speechService) Play(ctx context.Context, userId uuid.UUID, req *dto.PlaySpeechRequest) error {
	res, err := s.Synthesize(ctx, userId, &dto.SynthesizeSpeechRequest{
		ChatSessionId: req.ChatSessionId,
		MessageId:     req.MessageId,
		Voice:         req.Voice,
	})
	if err != nil {
		return err
	}
	if res.AudioData == "" {
		return nil
	}

	return s.playerFor(userId).Play(res.AudioData)
}

func (s *speechService) Stop(ctx context.Context, userId uuid.UUID) error {
	s.mu.Lock()
	player, ok := s.players[userId]
	s.mu.Unlock()

	if ok {
		player.Stop()
		s.hub.Send(userId, websocket.Frame{Type: websocket.FrameAudioDone, Data: nil})
	}
	return nil
}

func (s *speechService) playerFor(userId uuid.UUID) *audio.Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player, ok := s.players[userId]; ok {
		return player
	}
	player := audio.NewPlayer(&hubSink{hub: s.hub, userId: userId})
	s.players[userId] = player
	return player
}

func (s *speechService) findMessage(userId, sessionId, messageId uuid.UUID) (*store.Message, error) {
	session, ok := s.store.Get(sessionId)
	if !ok || session.UserId != userId {
		return nil, ErrSessionNotFound
	}
	for _, msg := range session.Messages {
		if msg.Id == messageId {
			return &msg, nil
		}
	}
	return nil, ErrMessageNotFound
}

// hubSink pushes decoded sample frames to the owning user's websocket.
type hubSink struct {
	hub    Broadcaster
	userId uuid.UUID
}

func (s *hubSink) WriteSamples(samples [][]float32) error {
	s.hub.Send(s.userId, websocket.Frame{
		Type: websocket.FrameAudioFrame,
		Data: map[string]interface{}{"samples": samples},
	})
	return nil
}
