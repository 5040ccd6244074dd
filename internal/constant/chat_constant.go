package constant

// Session titles
const (
	TitleMaxLen     = 30
	StudioTitle     = "AI Studio"
	ImageQueryTitle = "Image Query"
)

// Fixed reply texts surfaced in place of a failed turn. The stream is
// abandoned, never retried.
const (
	ErrorReplyText       = "Error encountered."
	ImageFailedText      = "Generation failed."
	ImagePlaceholderText = "Architecting your visual imagination..."
)

// DefaultSystemInstruction is used when the deployment does not configure its
// own persona.
const DefaultSystemInstruction = "You are Nexus, a helpful multimodal assistant."
