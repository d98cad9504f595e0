// Package ai talks to the language model used to draft plans.
//
// Callers treat every response as untrusted text and must have a deterministic fallback for any error.
package ai

import (
	"context"
)

// Role of a prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Options tune a single generation.
type Options struct {
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Response is the raw text produced by the model.
type Response struct {
	Content string `json:"content"`
}

// TextGenerator produces free text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, messages []Message, opts Options) (Response, error)
}
