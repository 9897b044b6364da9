package ai

import "context"

// Chat roles understood by the gateway.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// DefaultTemperature is used by every pipeline stage except the part
// classifier, which runs at LowTemperature for more deterministic votes.
const (
	DefaultTemperature float32 = 0.5
	LowTemperature     float32 = 0.1
)

// Part is one content block inside a message: either plain text or an
// inline image reference (a data URI). Exactly one field is set.
type Part struct {
	Text     string
	ImageURL string
}

// Message is an ordered, role-tagged list of content blocks.
type Message struct {
	Role  string
	Parts []Part
}

// SystemText builds a system message with a single text block.
func SystemText(text string) Message {
	return Message{Role: RoleSystem, Parts: []Part{{Text: text}}}
}

// UserText builds a user message with a single text block.
func UserText(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// UserImage builds a user message carrying one inline image.
func UserImage(dataURI string) Message {
	return Message{Role: RoleUser, Parts: []Part{{ImageURL: dataURI}}}
}

// Client is the port to the model provider. Implementations perform one chat
// completion per call and never retry; retry policy belongs to the caller.
// Failures are reported as *CallError.
type Client interface {
	Chat(ctx context.Context, sessionID string, messages []Message, temperature float32) (string, error)
}
