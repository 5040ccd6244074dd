package service

import (
	"context"
	"errors"
	"testing"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/repository/memory"
	"nexus-chat-be/pkg/gemini"
	"nexus-chat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type studioFixture struct {
	store   *store.Store
	gateway *fakeGateway
	turns   *memory.TurnRegistry
	hub     *fakeHub
	service IStudioService
}

func newStudioFixture(gateway *fakeGateway) *studioFixture {
	st := store.New(nil)
	turns := memory.NewTurnRegistry()
	hub := &fakeHub{}
	svc := NewStudioService(st, gateway, turns, hub, nil, nopLogger{})
	return &studioFixture{store: st, gateway: gateway, turns: turns, hub: hub, service: svc}
}

func TestGenerateImageSuccess(t *testing.T) {
	img := &store.InlineData{MimeType: "image/png", Data: "aGVsbG8="}
	f := newStudioFixture(&fakeGateway{image: img})

	userId := uuid.New()
	session := f.store.Create(userId, gemini.ModelFlash)

	res, err := f.service.GenerateImage(context.Background(), userId, &dto.GenerateImageRequest{
		ChatSessionId: session.Id,
		Prompt:        "a lighthouse at dusk",
		AspectRatio:   "16:9",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Reply)
	require.Len(t, res.Reply.Content, 1)
	assert.Contains(t, res.Reply.Content[0].Text, "16:9")
	require.NotNil(t, res.Reply.Content[0].InlineData)
	assert.Equal(t, "image/png", res.Reply.Content[0].InlineData.MimeType)
	assert.False(t, res.Reply.IsStreaming)

	// Image turns title new sessions as studio sessions.
	assert.Equal(t, constant.StudioTitle, res.Title)
	assert.False(t, f.turns.Busy(session.Id))
}

func TestGenerateImageInvalidRatio(t *testing.T) {
	f := newStudioFixture(&fakeGateway{})

	userId := uuid.New()
	session := f.store.Create(userId, gemini.ModelFlash)

	_, err := f.service.GenerateImage(context.Background(), userId, &dto.GenerateImageRequest{
		ChatSessionId: session.Id,
		Prompt:        "anything",
		AspectRatio:   "21:9",
	})
	assert.ErrorIs(t, err, gemini.ErrInvalidAspectRatio)
}

func TestGenerateImageNilResultYieldsFixedText(t *testing.T) {
	f := newStudioFixture(&fakeGateway{image: nil})

	userId := uuid.New()
	session := f.store.Create(userId, gemini.ModelFlash)

	res, err := f.service.GenerateImage(context.Background(), userId, &dto.GenerateImageRequest{
		ChatSessionId: session.Id,
		Prompt:        "anything",
		AspectRatio:   "1:1",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.ImageFailedText, res.Reply.Content[0].Text)
	assert.False(t, res.Reply.IsStreaming)
}

func TestGenerateImageGatewayErrorYieldsFixedText(t *testing.T) {
	f := newStudioFixture(&fakeGateway{imageErr: errors.New("quota")})

	userId := uuid.New()
	session := f.store.Create(userId, gemini.ModelFlash)

	res, err := f.service.GenerateImage(context.Background(), userId, &dto.GenerateImageRequest{
		ChatSessionId: session.Id,
		Prompt:        "anything",
		AspectRatio:   "9:16",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.ImageFailedText, res.Reply.Content[0].Text)
}

func TestGenerateImageRejectsConcurrentTurn(t *testing.T) {
	f := newStudioFixture(&fakeGateway{})

	userId := uuid.New()
	session := f.store.Create(userId, gemini.ModelFlash)

	require.NoError(t, f.turns.Begin(session.Id, func() {}))
	defer f.turns.End(session.Id)

	_, err := f.service.GenerateImage(context.Background(), userId, &dto.GenerateImageRequest{
		ChatSessionId: session.Id,
		Prompt:        "anything",
		AspectRatio:   "1:1",
	})
	assert.ErrorIs(t, err, memory.ErrTurnInFlight)
}
