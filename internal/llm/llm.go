// Package llm turns an inspector's utterance and session history into a
// reply plus structured actions by calling a chat-completions model.
package llm

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by a Completer that cannot reach its backend.
var ErrUnavailable = errors.New("llm: unavailable")

// Fixed replies used when the model cannot produce a usable answer.
const (
	FallbackMessage = "I'm having trouble understanding your request right now. Please try again or contact your supervisor if the issue persists."
	DefaultMessage  = "I understand your request. Let me help with that."
)

// Action is one structured operation requested by the model.
type Action struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// Intent is the model's interpretation of a turn.
type Intent struct {
	Message string   `json:"message"`
	Actions []Action `json:"actions"`
}

// Fallback is the intent returned whenever resolution fails.
func Fallback() Intent {
	return Intent{Message: FallbackMessage, Actions: []Action{}}
}

// Turn is one prior message in the conversation.
type Turn struct {
	Sender    string // "user" or "assistant"
	Content   string
	Timestamp time.Time
}

// Inspector describes who the model is talking to.
type Inspector struct {
	ID    uint
	Name  string
	Phone string
}

// Message is a single chat-completions message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer sends a prompt to a model and returns the raw JSON content of
// its first choice.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
