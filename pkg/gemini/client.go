package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nexus-chat-be/pkg/store"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client wraps the three remote operations of the generative AI gateway:
// streaming chat completion, image generation and speech synthesis. None of
// them retry internally; transport errors propagate to the caller.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// WithBaseURL overrides the endpoint, used by tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// StreamChat maps the local message history into the provider's wire shape and
// opens a chunked SSE stream. The final (newest) message is the active turn;
// everything before it is context. Sampling is fixed: temperature 0.7,
// nucleus threshold 0.95, top-k 64. When useSearch is set, the web-search
// grounding tool is attached.
func (c *Client) StreamChat(
	ctx context.Context,
	model string,
	history []store.Message,
	systemInstruction string,
	useSearch bool,
) (*ChatStream, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("gemini: empty history")
	}

	temp := chatTemperature
	topP := chatTopP
	topK := chatTopK
	payload := wireRequest{
		Contents: mapHistory(history),
		GenerationConfig: &wireGenerationConfig{
			Temperature: &temp,
			TopP:        &topP,
			TopK:        &topK,
		},
	}
	if systemInstruction != "" {
		payload.SystemInstruction = &wireContent{
			Parts: []wirePart{{Text: systemInstruction}},
		}
	}
	if useSearch {
		payload.Tools = []wireTool{{GoogleSearch: &wireGoogleSearch{}}}
	}

	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, model)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodPost, url, bytes.NewBuffer(payloadJson))
	if err != nil {
		cancel()
		return nil, err
	}
	c.setHeaders(req)

	res, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		resBody, _ := io.ReadAll(res.Body)
		res.Body.Close()
		cancel()
		return nil, fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	stream := newChatStream(cancel)
	go c.readStream(streamCtx, res.Body, stream)
	return stream, nil
}

// readStream parses the SSE body, one "data:" line per chunk, and feeds the
// stream channel in arrival order.
func (c *Client) readStream(ctx context.Context, body io.ReadCloser, stream *ChatStream) {
	defer close(stream.ch)
	defer body.Close()

	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				stream.fail(err)
			}
			return
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return
		}

		var res wireResponse
		if err := json.Unmarshal([]byte(data), &res); err != nil {
			// Malformed interleaved lines are skipped, not fatal.
			continue
		}

		chunk := toChunk(&res)
		select {
		case stream.ch <- chunk:
		case <-ctx.Done():
			stream.fail(ctx.Err())
			return
		}
	}
}

// GenerateImage requests a single image. The parts list carries the reference
// image first when present, then the prompt text. Returns nil when the
// response holds no inline image part.
func (c *Client) GenerateImage(
	ctx context.Context,
	prompt string,
	baseImage *store.InlineData,
	aspectRatio AspectRatio,
) (*store.InlineData, error) {
	if !aspectRatio.Valid() {
		return nil, ErrInvalidAspectRatio
	}

	parts := make([]wirePart, 0, 2)
	if baseImage != nil {
		parts = append(parts, wirePart{InlineData: &wireBlob{
			MimeType: baseImage.MimeType,
			Data:     baseImage.Data,
		}})
	}
	parts = append(parts, wirePart{Text: prompt})

	payload := wireRequest{
		Contents: []wireContent{{Parts: parts}},
		GenerationConfig: &wireGenerationConfig{
			ImageConfig: &wireImageConfig{AspectRatio: string(aspectRatio)},
		},
	}

	res, err := c.generate(ctx, ModelImage, payload)
	if err != nil {
		return nil, err
	}

	for _, candidate := range res.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil {
				return &store.InlineData{
					MimeType: part.InlineData.MimeType,
					Data:     part.InlineData.Data,
				}, nil
			}
		}
	}
	return nil, nil
}

// GenerateSpeech synthesizes the text with one of the prebuilt voices and
// returns the base64 audio payload, or empty when the response carries none.
func (c *Client) GenerateSpeech(ctx context.Context, text string, voice Voice) (string, error) {
	if !voice.Valid() {
		return "", ErrInvalidVoice
	}

	payload := wireRequest{
		Contents: []wireContent{{
			Parts: []wirePart{{Text: "Speak clearly: " + text}},
		}},
		GenerationConfig: &wireGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &wireSpeechConfig{
				VoiceConfig: wireVoiceConfig{
					PrebuiltVoiceConfig: wirePrebuiltVoice{VoiceName: string(voice)},
				},
			},
		},
	}

	res, err := c.generate(ctx, ModelTTS, payload)
	if err != nil {
		return "", err
	}

	for _, candidate := range res.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil {
				return part.InlineData.Data, nil
			}
		}
	}
	return "", nil
}

func (c *Client) generate(ctx context.Context, model string, payload wireRequest) (*wireResponse, error) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var out wireResponse
	if err := json.Unmarshal(resBody, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// mapHistory converts local messages into wire contents. System-authored
// entries travel as user turns; everything not authored by the user is a
// model turn on the wire.
func mapHistory(history []store.Message) []wireContent {
	contents := make([]wireContent, 0, len(history))
	for _, msg := range history {
		role := "model"
		if msg.Role == store.RoleUser || msg.Role == store.RoleSystem {
			role = "user"
		}

		parts := make([]wirePart, 0, len(msg.Content))
		for _, part := range msg.Content {
			switch {
			case part.InlineData != nil:
				parts = append(parts, wirePart{InlineData: &wireBlob{
					MimeType: part.InlineData.MimeType,
					Data:     part.InlineData.Data,
				}})
			default:
				parts = append(parts, wirePart{Text: part.Text})
			}
		}
		if len(parts) == 0 {
			parts = []wirePart{{Text: ""}}
		}
		contents = append(contents, wireContent{Role: role, Parts: parts})
	}
	return contents
}

// toChunk extracts the text delta and any citations from one wire response.
// Citations are taken wholesale from the chunk that carries them.
func toChunk(res *wireResponse) Chunk {
	var chunk Chunk
	for _, candidate := range res.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				chunk.Text += part.Text
			}
		}
		if candidate.GroundingMetadata != nil {
			for _, gc := range candidate.GroundingMetadata.GroundingChunks {
				if gc.Web == nil || gc.Web.URI == "" {
					continue
				}
				title := gc.Web.Title
				if title == "" {
					title = "Source"
				}
				chunk.Sources = append(chunk.Sources, store.GroundingSource{
					Title: title,
					URI:   gc.Web.URI,
				})
			}
		}
	}
	return chunk
}
