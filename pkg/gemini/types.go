package gemini

import "errors"

// Model identifiers offered to the client.
const (
	ModelFlash       = "gemini-3-flash-preview"
	ModelPro         = "gemini-3-pro-preview"
	ModelNativeAudio = "gemini-2.5-flash-native-audio-preview-12-2025"
	ModelImage       = "gemini-2.5-flash-image"
	ModelTTS         = "gemini-2.5-flash-preview-tts"
)

// AspectRatio is the closed set of image shapes the gateway accepts. An
// out-of-set value is rejected locally, before any request is made.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectWide      AspectRatio = "16:9"
	AspectTall      AspectRatio = "9:16"
	AspectLandscape AspectRatio = "4:3"
	AspectPortrait  AspectRatio = "3:4"
)

func (a AspectRatio) Valid() bool {
	switch a {
	case AspectSquare, AspectWide, AspectTall, AspectLandscape, AspectPortrait:
		return true
	}
	return false
}

// Voice is the closed set of prebuilt TTS voices.
type Voice string

const (
	VoiceKore   Voice = "Kore"
	VoicePuck   Voice = "Puck"
	VoiceCharon Voice = "Charon"
	VoiceFenrir Voice = "Fenrir"
	VoiceZephyr Voice = "Zephyr"
)

func (v Voice) Valid() bool {
	switch v {
	case VoiceKore, VoicePuck, VoiceCharon, VoiceFenrir, VoiceZephyr:
		return true
	}
	return false
}

var (
	ErrInvalidAspectRatio = errors.New("gemini: aspect ratio outside the supported set")
	ErrInvalidVoice       = errors.New("gemini: voice outside the supported set")
)

// Fixed sampling configuration for chat turns.
const (
	chatTemperature = 0.7
	chatTopP        = 0.95
	chatTopK        = 64
)

// --- Wire shapes (request/response), typed instead of loose maps ---

type wireBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type wirePart struct {
	Text       string    `json:"text,omitempty"`
	InlineData *wireBlob `json:"inlineData,omitempty"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wireGoogleSearch struct{}

type wireTool struct {
	GoogleSearch *wireGoogleSearch `json:"googleSearch,omitempty"`
}

type wireImageConfig struct {
	AspectRatio string `json:"aspectRatio"`
}

type wirePrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type wireVoiceConfig struct {
	PrebuiltVoiceConfig wirePrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type wireSpeechConfig struct {
	VoiceConfig wireVoiceConfig `json:"voiceConfig"`
}

type wireGenerationConfig struct {
	Temperature        *float64          `json:"temperature,omitempty"`
	TopP               *float64          `json:"topP,omitempty"`
	TopK               *int              `json:"topK,omitempty"`
	ResponseModalities []string          `json:"responseModalities,omitempty"`
	ImageConfig        *wireImageConfig  `json:"imageConfig,omitempty"`
	SpeechConfig       *wireSpeechConfig `json:"speechConfig,omitempty"`
}

type wireRequest struct {
	Contents          []wireContent         `json:"contents"`
	SystemInstruction *wireContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *wireGenerationConfig `json:"generationConfig,omitempty"`
	Tools             []wireTool            `json:"tools,omitempty"`
}

type wireWebSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type wireGroundingChunk struct {
	Web *wireWebSource `json:"web,omitempty"`
}

type wireGroundingMetadata struct {
	GroundingChunks []wireGroundingChunk `json:"groundingChunks"`
}

type wireCandidate struct {
	Content           *wireContent           `json:"content"`
	GroundingMetadata *wireGroundingMetadata `json:"groundingMetadata,omitempty"`
}

type wireResponse struct {
	Candidates []wireCandidate `json:"candidates"`
}
