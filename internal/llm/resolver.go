package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Resolver interprets a turn through a Completer. It never returns an
// error: any failure degrades to Fallback.
type Resolver struct {
	completer Completer
	logger    *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(c Completer, logger *slog.Logger) (*Resolver, error) {
	if c == nil {
		return nil, fmt.Errorf("llm: resolver: completer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{completer: c, logger: logger}, nil
}

// Resolve returns the model's reply and actions for utterance.
func (r *Resolver) Resolve(ctx context.Context, utterance string, history []Turn, insp Inspector) Intent {
	raw, err := r.completer.Complete(ctx, BuildMessages(utterance, history, insp))
	if err != nil {
		r.logger.Error("intent resolution failed", "inspector_id", insp.ID, "error", err)
		return Fallback()
	}
	intent, err := ParseIntent(raw)
	if err != nil {
		r.logger.Error("malformed intent", "inspector_id", insp.ID, "error", err)
		return Fallback()
	}
	return intent
}

// ParseIntent decodes a model reply. A missing message becomes
// DefaultMessage and missing actions become an empty list. Unknown fields
// are ignored.
func ParseIntent(raw string) (Intent, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var intent Intent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		return Intent{}, fmt.Errorf("llm: parse intent: %w", err)
	}
	if strings.TrimSpace(intent.Message) == "" {
		intent.Message = DefaultMessage
	}
	actions := make([]Action, 0, len(intent.Actions))
	for _, a := range intent.Actions {
		if strings.TrimSpace(a.Type) == "" {
			continue
		}
		if a.Params == nil {
			a.Params = map[string]any{}
		}
		actions = append(actions, a)
	}
	intent.Actions = actions
	return intent, nil
}
