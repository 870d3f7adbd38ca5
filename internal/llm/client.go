package llm

import (
	"context"
	"errors"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// UnavailableSentinel is the text some local gateways return instead of an
// error when no model is loaded.
const UnavailableSentinel = "Local LLM is unavailable"

// ErrUnavailable means the backend could not be reached or produced nothing usable.
var ErrUnavailable = errors.New("llm backend unavailable")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is a hosted chat-completion backend.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}

// LocalClient is a locally hosted single-prompt backend.
type LocalClient interface {
	GenerateText(ctx context.Context, systemPrompt string, prompt string) (Response, error)
}

// IsUnavailable reports whether a local reply should be treated as a miss.
func IsUnavailable(text string) bool {
	t := strings.TrimSpace(text)
	return t == "" || strings.Contains(t, UnavailableSentinel)
}
