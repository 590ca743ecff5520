package ai

import "context"

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Completer is the text-completion service. Implementations must be safe
// for concurrent use and attempt each request exactly once.
type Completer interface {
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
}

// Transcriber reads the text out of an image with a vision model.
type Transcriber interface {
	Transcribe(ctx context.Context, instruction string, image []byte, mimeType string) (string, error)
}
