// Package llm talks to the AI service that drafts, extracts and varies
// exam questions. Providers share one Request/Response shape; structured
// output is requested with a JSON schema and validated on return.
package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for LLM interaction.
type Provider interface {
	// Generate sends a prompt and returns the response. When req.Schema is
	// set, Content is JSON that conforms to it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Message is a single conversation turn.
type Message struct {
	Role        Role
	Content     string
	Attachments []Attachment
}

// Attachment is an inline file sent with a user message, such as a photo
// of a worksheet or a PDF.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// IsImage reports whether the attachment is an image.
func (a Attachment) IsImage() bool {
	return len(a.MIMEType) > 6 && a.MIMEType[:6] == "image/"
}

// IsPDF reports whether the attachment is a PDF document.
func (a Attachment) IsPDF() bool {
	return a.MIMEType == "application/pdf"
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies the schema; kebab-case, e.g. "question-list".
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the LLM's output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string
	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
