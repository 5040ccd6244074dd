package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/repository/memory"
	"nexus-chat-be/internal/websocket"
	"nexus-chat-be/pkg/gemini"
	"nexus-chat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	ch  chan gemini.Chunk
	err error
}

func newFakeStream(chunks []gemini.Chunk, err error) *fakeStream {
	ch := make(chan gemini.Chunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return &fakeStream{ch: ch, err: err}
}

func (f *fakeStream) Chunks() <-chan gemini.Chunk { return f.ch }
func (f *fakeStream) Err() error                  { return f.err }
func (f *fakeStream) Close()                      {}

type fakeGateway struct {
	chunks    []gemini.Chunk
	streamErr error
	openErr   error

	image    *store.InlineData
	imageErr error

	speech    string
	speechErr error

	gotHistory   []store.Message
	gotModel     string
	gotUseSearch bool
}

func (g *fakeGateway) StreamChat(ctx context.Context, model string, history []store.Message, systemInstruction string, useSearch bool) (ChunkStream, error) {
	g.gotHistory = history
	g.gotModel = model
	g.gotUseSearch = useSearch
	if g.openErr != nil {
		return nil, g.openErr
	}
	return newFakeStream(g.chunks, g.streamErr), nil
}

func (g *fakeGateway) GenerateImage(ctx context.Context, prompt string, baseImage *store.InlineData, aspectRatio gemini.AspectRatio) (*store.InlineData, error) {
	return g.image, g.imageErr
}

func (g *fakeGateway) GenerateSpeech(ctx context.Context, text string, voice gemini.Voice) (string, error) {
	return g.speech, g.speechErr
}

type fakeHub struct {
	mu     sync.Mutex
	frames []websocket.Frame
}

func (h *fakeHub) Send(userID uuid.UUID, frame websocket.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, frame)
}

func (h *fakeHub) byType(frameType string) []websocket.Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []websocket.Frame
	for _, f := range h.frames {
		if f.Type == frameType {
			out = append(out, f)
		}
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type chatFixture struct {
	store   *store.Store
	gateway *fakeGateway
	turns   *memory.TurnRegistry
	hub     *fakeHub
	service IChatService
}

func newChatFixture(gateway *fakeGateway) *chatFixture {
	st := store.New(nil)
	turns := memory.NewTurnRegistry()
	hub := &fakeHub{}
	svc := NewChatService(st, gateway, turns, hub, nil, nopLogger{}, "")
	return &chatFixture{store: st, gateway: gateway, turns: turns, hub: hub, service: svc}
}

func TestSendChatConcatenatesChunks(t *testing.T) {
	sources := []store.GroundingSource{{Title: "Example", URI: "https://example.com"}}
	gw := &fakeGateway{chunks: []gemini.Chunk{
		{Text: "Hel"},
		{Text: "lo ", Sources: sources},
		{Text: "world"},
	}}
	f := newChatFixture(gw)

	userId := uuid.New()
	session := f.store.Create(userId, gemini.ModelFlash)

	res, err := f.service.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Text:          "Say hello",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Reply)
	require.Len(t, res.Reply.Content, 1)
	assert.Equal(t, "Hello world", res.Reply.Content[0].Text)
	assert.False(t, res.Reply.IsStreaming)
	require.Len(t, res.Reply.Sources, 1)
	assert.Equal(t, "https://example.com", res.Reply.Sources[0].URI)

	// Title comes from the opening message.
	assert.Equal(t, "Say hello", res.Title)

	// The gateway saw the user message but not the placeholder.
	require.NotEmpty(t, gw.gotHistory)
	last := gw.gotHistory[len(gw.gotHistory)-1]
	assert.Equal(t, store.RoleUser, last.Role)

	// One chunk frame per chunk, then a done frame.
	assert.Len(t, f.hub.byType(websocket.FrameChatChunk), 3)
	assert.Len(t, f.hub.byType(websocket.FrameChatDone), 1)

	// Turn flag released.
	assert.False(t, f.turns.Busy(session.Id))
}

func TestSendChatLastNonEmptySourcesWin(t *testing.T) {
	first := []store.GroundingSource{{Title: "Old", URI: "https://old.example"}}
	second := []store.GroundingSource{{Title: "New", URI: "https://new.example"}}
	gw := &fakeGateway{chunks: []gemini.Chunk{
		{Text: "a", Sources: first},
		{Text: "b", Sources: second},
		{Text: "c"},
	}}
	f := newChatFixture(gw)

	userId := uuid.New()
	session := f.store.Create(userId, gemini.ModelFlash)

	res, err := f.service.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Text:          "question",
	})
	require.NoError(t, err)

	require.Len(t, res.Reply.Sources, 1)
	assert.Equal(t, "https://new.example", res.Reply.Sources[0].URI)
}

func TestSendChatStreamErrorYieldsFixedText(t *testing.T) {
	gw := &fakeGateway{
		chunks:    []gemini.Chunk{{Text: "partial"}},
		streamErr: errors.New("boom"),
	}
	f := newChatFixture(gw)

	userId := uuid.New()
	session := f.store.Create(userId, gemini.ModelFlash)

	res, err := f.service.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Text:          "hi",
	})
	require.NoError(t, err, "a failed stream is a turn outcome, not a request error")

	require.Len(t, res.Reply.Content, 1)
	assert.Equal(t, constant.ErrorReplyText, res.Reply.Content[0].Text)
	assert.False(t, res.Reply.IsStreaming)
	assert.Empty(t, res.Reply.Sources)
	assert.False(t, f.turns.Busy(session.Id))
}

func TestSendChatOpenErrorYieldsFixedText(t *testing.T) {
	gw := &fakeGateway{openErr: errors.New("dial failed")}
	f := newChatFixture(gw)

	userId := uuid.New()
	session := f.store.Create(userId, gemini.ModelFlash)

	res, err := f.service.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Text:          "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.ErrorReplyText, res.Reply.Content[0].Text)
}

func TestSendChatRejectsConcurrentTurn(t *testing.T) {
	f := newChatFixture(&fakeGateway{})

	userId := uuid.New()
	session := f.store.Create(userId, gemini.ModelFlash)

	require.NoError(t, f.turns.Begin(session.Id, func() {}))
	defer f.turns.End(session.Id)

	_, err := f.service.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Text:          "hi",
	})
	assert.ErrorIs(t, err, memory.ErrTurnInFlight)
}

func TestSendChatUnknownSession(t *testing.T) {
	f := newChatFixture(&fakeGateway{})

	_, err := f.service.SendChat(context.Background(), uuid.New(), &dto.SendChatRequest{
		ChatSessionId: uuid.New(),
		Text:          "hi",
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSendChatWrongOwner(t *testing.T) {
	f := newChatFixture(&fakeGateway{})

	session := f.store.Create(uuid.New(), gemini.ModelFlash)

	_, err := f.service.SendChat(context.Background(), uuid.New(), &dto.SendChatRequest{
		ChatSessionId: session.Id,
		Text:          "hi",
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSessionCancelsTurn(t *testing.T) {
	f := newChatFixture(&fakeGateway{})

	userId := uuid.New()
	session := f.store.Create(userId, gemini.ModelFlash)

	canceled := false
	require.NoError(t, f.turns.Begin(session.Id, func() { canceled = true }))

	require.NoError(t, f.service.DeleteSession(context.Background(), userId, session.Id))

	assert.True(t, canceled)
	_, ok := f.store.Get(session.Id)
	assert.False(t, ok)
}

func TestStopGenerationIdleIsNoOp(t *testing.T) {
	f := newChatFixture(&fakeGateway{})

	userId := uuid.New()
	session := f.store.Create(userId, gemini.ModelFlash)

	assert.NoError(t, f.service.StopGeneration(context.Background(), userId, session.Id))
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short text", "Hello", "Hello"},
		{"trimmed", "  Hello  ", "Hello"},
		{"empty means image query", "", constant.ImageQueryTitle},
		{"whitespace only", "   ", constant.ImageQueryTitle},
		{"truncated to thirty runes", strings.Repeat("a", 40), strings.Repeat("a", 30)},
		{"multibyte runes", strings.Repeat("ä", 40), strings.Repeat("ä", 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveTitle(tt.in))
		})
	}
}

func TestCreateAndListSessions(t *testing.T) {
	f := newChatFixture(&fakeGateway{})
	userId := uuid.New()

	created, err := f.service.CreateSession(context.Background(), userId, &dto.CreateSessionRequest{Model: gemini.ModelPro})
	require.NoError(t, err)
	assert.Equal(t, store.DefaultTitle, created.Title)

	list, err := f.service.GetAllSessions(context.Background(), userId)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.Id, list[0].Id)

	other, err := f.service.GetAllSessions(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}
