package websocket

// Frame types pushed to browser clients.
const (
	FrameChatChunk  = "chat.chunk"
	FrameChatDone   = "chat.done"
	FrameAudioFrame = "audio.frame"
	FrameAudioDone  = "audio.done"
)

// Frame is the envelope for every outbound websocket message.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
