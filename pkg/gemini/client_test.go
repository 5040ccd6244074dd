package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nexus-chat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userMessage(text string) store.Message {
	return store.Message{
		Id:        uuid.New(),
		Role:      store.RoleUser,
		Content:   []store.MessagePart{{Text: text}},
		CreatedAt: time.Now(),
	}
}

func collect(t *testing.T, stream *ChatStream) []Chunk {
	t.Helper()
	var chunks []Chunk
	for chunk := range stream.Chunks() {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func sseBody(payloads ...string) string {
	var b strings.Builder
	for _, p := range payloads {
		b.WriteString("data: " + p + "\n\n")
	}
	return b.String()
}

func textChunkJSON(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
}

func TestStreamChatCollectsChunksInOrder(t *testing.T) {
	var gotPath string
	var gotKey string
	var gotReq wireRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(
			textChunkJSON("Hel"),
			textChunkJSON("lo"),
			"{not json",
			textChunkJSON("!"),
			"[DONE]",
		))
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	stream, err := client.StreamChat(context.Background(), ModelFlash, []store.Message{userMessage("hi")}, "be brief", true)
	require.NoError(t, err)
	defer stream.Close()

	chunks := collect(t, stream)
	require.NoError(t, stream.Err())

	require.Len(t, chunks, 3, "malformed lines are skipped, not fatal")
	assert.Equal(t, "Hel", chunks[0].Text)
	assert.Equal(t, "lo", chunks[1].Text)
	assert.Equal(t, "!", chunks[2].Text)

	assert.Contains(t, gotPath, ModelFlash+":streamGenerateContent")
	assert.Contains(t, gotPath, "alt=sse")
	assert.Equal(t, "test-key", gotKey)

	require.NotNil(t, gotReq.GenerationConfig)
	assert.InDelta(t, 0.7, *gotReq.GenerationConfig.Temperature, 1e-9)
	assert.InDelta(t, 0.95, *gotReq.GenerationConfig.TopP, 1e-9)
	assert.Equal(t, 64, *gotReq.GenerationConfig.TopK)
	require.NotNil(t, gotReq.SystemInstruction)
	assert.Equal(t, "be brief", gotReq.SystemInstruction.Parts[0].Text)
	require.Len(t, gotReq.Tools, 1)
	assert.NotNil(t, gotReq.Tools[0].GoogleSearch)
}

func TestStreamChatExtractsGroundingSources(t *testing.T) {
	body := sseBody(`{"candidates":[{"content":{"parts":[{"text":"cited"}]},"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://example.com","title":"Example"}},{"web":{"uri":"https://untitled.example"}},{"web":{"uri":""}}]}}]}`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	client := NewClient("k").WithBaseURL(server.URL)
	stream, err := client.StreamChat(context.Background(), ModelPro, []store.Message{userMessage("hi")}, "", false)
	require.NoError(t, err)
	defer stream.Close()

	chunks := collect(t, stream)
	require.Len(t, chunks, 1)
	require.Len(t, chunks[0].Sources, 2, "sources without a URI are dropped")
	assert.Equal(t, "Example", chunks[0].Sources[0].Title)
	assert.Equal(t, "Source", chunks[0].Sources[1].Title, "missing titles get the fallback")
}

func TestStreamChatHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("k").WithBaseURL(server.URL)
	_, err := client.StreamChat(context.Background(), ModelFlash, []store.Message{userMessage("hi")}, "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status error, got status 429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestStreamChatEmptyHistory(t *testing.T) {
	client := NewClient("k")
	_, err := client.StreamChat(context.Background(), ModelFlash, nil, "", false)
	assert.Error(t, err)
}

func TestStreamChatCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: "+textChunkJSON("first")+"\n\n")
		flusher.Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient("k").WithBaseURL(server.URL)
	stream, err := client.StreamChat(context.Background(), ModelFlash, []store.Message{userMessage("hi")}, "", false)
	require.NoError(t, err)

	first := <-stream.Chunks()
	assert.Equal(t, "first", first.Text)

	stream.Close()

	// The channel drains and closes once the body read aborts.
	for range stream.Chunks() {
	}
}

func TestGenerateImageReturnsInlinePart(t *testing.T) {
	var gotReq wireRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"aW1n"}}]}}]}`)
	}))
	defer server.Close()

	client := NewClient("k").WithBaseURL(server.URL)
	base := &store.InlineData{MimeType: "image/jpeg", Data: "cmVm"}
	img, err := client.GenerateImage(context.Background(), "a lighthouse", base, AspectWide)
	require.NoError(t, err)

	require.NotNil(t, img)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, "aW1n", img.Data)

	// Reference image travels first, prompt after.
	require.Len(t, gotReq.Contents, 1)
	require.Len(t, gotReq.Contents[0].Parts, 2)
	assert.NotNil(t, gotReq.Contents[0].Parts[0].InlineData)
	assert.Equal(t, "a lighthouse", gotReq.Contents[0].Parts[1].Text)

	require.NotNil(t, gotReq.GenerationConfig.ImageConfig)
	assert.Equal(t, "16:9", gotReq.GenerationConfig.ImageConfig.AspectRatio)
}

func TestGenerateImageNoInlinePart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"refused"}]}}]}`)
	}))
	defer server.Close()

	client := NewClient("k").WithBaseURL(server.URL)
	img, err := client.GenerateImage(context.Background(), "x", nil, AspectSquare)
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestGenerateImageInvalidRatioIsLocal(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient("k").WithBaseURL(server.URL)
	_, err := client.GenerateImage(context.Background(), "x", nil, AspectRatio("2:1"))
	assert.ErrorIs(t, err, ErrInvalidAspectRatio)
	assert.False(t, called, "invalid ratios are rejected before any request")
}

func TestGenerateSpeech(t *testing.T) {
	var gotReq wireRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"audio/pcm","data":"cGNt"}}]}}]}`)
	}))
	defer server.Close()

	client := NewClient("k").WithBaseURL(server.URL)
	audio, err := client.GenerateSpeech(context.Background(), "read this", VoicePuck)
	require.NoError(t, err)
	assert.Equal(t, "cGNt", audio)

	assert.Equal(t, "Speak clearly: read this", gotReq.Contents[0].Parts[0].Text)
	assert.Equal(t, []string{"AUDIO"}, gotReq.GenerationConfig.ResponseModalities)
	assert.Equal(t, "Puck", gotReq.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)
}

func TestGenerateSpeechInvalidVoice(t *testing.T) {
	client := NewClient("k")
	_, err := client.GenerateSpeech(context.Background(), "x", Voice("Alvin"))
	assert.ErrorIs(t, err, ErrInvalidVoice)
}

func TestMapHistoryRoles(t *testing.T) {
	history := []store.Message{
		{Role: store.RoleSystem, Content: []store.MessagePart{{Text: "sys"}}},
		{Role: store.RoleUser, Content: []store.MessagePart{{Text: "hi"}}},
		{Role: store.RoleModel, Content: nil},
	}

	contents := mapHistory(history)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "user", contents[1].Role)
	assert.Equal(t, "model", contents[2].Role)
	require.Len(t, contents[2].Parts, 1, "empty content still yields one empty text part")
	assert.Equal(t, "", contents[2].Parts[0].Text)
}
