package service

import (
	"context"

	"nexus-chat-be/internal/websocket"
	"nexus-chat-be/pkg/gemini"
	"nexus-chat-be/pkg/store"

	"github.com/google/uuid"
)

// ChunkStream is the consumable side of a streaming chat completion.
type ChunkStream interface {
	Chunks() <-chan gemini.Chunk
	Err() error
	Close()
}

// Gateway abstracts the model provider so services can be tested with
// scripted streams.
type Gateway interface {
	StreamChat(ctx context.Context, model string, history []store.Message, systemInstruction string, useSearch bool) (ChunkStream, error)
	GenerateImage(ctx context.Context, prompt string, baseImage *store.InlineData, aspectRatio gemini.AspectRatio) (*store.InlineData, error)
	GenerateSpeech(ctx context.Context, text string, voice gemini.Voice) (string, error)
}

// Broadcaster pushes frames to connected browser clients.
type Broadcaster interface {
	Send(userID uuid.UUID, frame websocket.Frame)
}

type geminiGateway struct {
	client *gemini.Client
}

// NewGeminiGateway adapts the concrete client to the Gateway interface.
func NewGeminiGateway(client *gemini.Client) Gateway {
	return &geminiGateway{client: client}
}

func (g *geminiGateway) StreamChat(ctx context.Context, model string, history []store.Message, systemInstruction string, useSearch bool) (ChunkStream, error) {
	stream, err := g.client.StreamChat(ctx, model, history, systemInstruction, useSearch)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (g *geminiGateway) GenerateImage(ctx context.Context, prompt string, baseImage *store.InlineData, aspectRatio gemini.AspectRatio) (*store.InlineData, error) {
	return g.client.GenerateImage(ctx, prompt, baseImage, aspectRatio)
}

func (g *geminiGateway) GenerateSpeech(ctx context.Context, text string, voice gemini.Voice) (string, error) {
	return g.client.GenerateSpeech(ctx, text, voice)
}
