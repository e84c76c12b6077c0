// Package webhook turns one inbound WhatsApp webhook event into a stored
// conversation turn, executed actions, and a reply.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/propertystewards/steward/internal/actions"
	"github.com/propertystewards/steward/internal/llm"
	"github.com/propertystewards/steward/internal/models"
	"github.com/propertystewards/steward/internal/phone"
	"github.com/propertystewards/steward/internal/session"
	"github.com/propertystewards/steward/internal/store"
)

// RejectionMessage is sent to senders that are not registered inspectors.
const RejectionMessage = "Sorry, your number is not registered in our system. Please contact Property Stewards admin."

// Result statuses.
const (
	StatusIgnored   = "ignored"
	StatusRejected  = "rejected"
	StatusDuplicate = "duplicate"
	StatusSuccess   = "success"
)

// ErrMissingPhone is returned for message events without a sender.
var ErrMissingPhone = errors.New("webhook: missing WhatsApp number in payload")

// Result is the outcome of a handled event that did not fail.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Messenger sends outbound WhatsApp text.
type Messenger interface {
	SendText(ctx context.Context, phone, message string) error
}

// IntentResolver interprets a turn. It must not fail.
type IntentResolver interface {
	Resolve(ctx context.Context, utterance string, history []llm.Turn, insp llm.Inspector) llm.Intent
}

// ActionDispatcher executes resolved actions in order.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, inspectorID uint, acts []llm.Action) ([]actions.Result, error)
}

// Sessions manages chat sessions.
type Sessions interface {
	Resolve(ctx context.Context, inspectorID uint) (*models.ChatSession, error)
	Append(ctx context.Context, sessionID uint, sender, content string, mediaID *uint) error
	History(ctx context.Context, sessionID uint) ([]session.Turn, error)
}

// Store is the slice of the domain store the pipeline reads and writes
// directly.
type Store interface {
	MediaStore
	InspectorByPhone(ctx context.Context, phone string) (*models.Inspector, error)
	ClaimDelivery(ctx context.Context, messageID, phone string, lease time.Duration) (bool, error)
	CompleteDelivery(ctx context.Context, messageID string) error
	ReleaseDelivery(ctx context.Context, messageID string) error
}

// Pipeline is the webhook orchestrator.
type Pipeline struct {
	store         Store
	sessions      Sessions
	resolver      IntentResolver
	dispatcher    ActionDispatcher
	messenger     Messenger
	normalizer    *Normalizer
	dedupe        bool
	claimLease    time.Duration
	appendResults bool
	logger        *slog.Logger
}

// DefaultClaimLease is how long a delivery may stay in processing before a
// redelivery of the same message ID is allowed to take it over.
const DefaultClaimLease = 5 * time.Minute

// Opts holds parameters for creating a Pipeline.
type Opts struct {
	Store         Store
	Sessions      Sessions
	Resolver      IntentResolver
	Dispatcher    ActionDispatcher
	Messenger     Messenger
	Fetcher       MediaFetcher
	Dedupe        bool          // drop redeliveries of a message ID already claimed
	ClaimLease    time.Duration // default DefaultClaimLease
	AppendResults bool          // append formatted action results to the reply
	Logger        *slog.Logger
	Now           func() time.Time
}

// NewPipeline creates a Pipeline.
func NewPipeline(opts Opts) (*Pipeline, error) {
	var missing []string
	if opts.Store == nil {
		missing = append(missing, "store")
	}
	if opts.Sessions == nil {
		missing = append(missing, "sessions")
	}
	if opts.Resolver == nil {
		missing = append(missing, "resolver")
	}
	if opts.Dispatcher == nil {
		missing = append(missing, "dispatcher")
	}
	if opts.Messenger == nil {
		missing = append(missing, "messenger")
	}
	if opts.Fetcher == nil {
		missing = append(missing, "fetcher")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("webhook: pipeline: %s required", strings.Join(missing, ", "))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lease := opts.ClaimLease
	if lease <= 0 {
		lease = DefaultClaimLease
	}
	return &Pipeline{
		store:         opts.Store,
		sessions:      opts.Sessions,
		resolver:      opts.Resolver,
		dispatcher:    opts.Dispatcher,
		messenger:     opts.Messenger,
		normalizer:    NewNormalizer(opts.Fetcher, opts.Store, opts.Now),
		dedupe:        opts.Dedupe,
		claimLease:    lease,
		appendResults: opts.AppendResults,
		logger:        logger,
	}, nil
}

// HandleRaw parses body and handles the event.
func (p *Pipeline) HandleRaw(ctx context.Context, body []byte) (Result, error) {
	payload, err := ParsePayload(body)
	if err != nil {
		return Result{}, err
	}
	return p.Handle(ctx, payload)
}

// Handle runs one event through the pipeline. Rejections are returned as a
// Result; failures as an error.
func (p *Pipeline) Handle(ctx context.Context, payload Payload) (Result, error) {
	if !payload.IsMessage() {
		return Result{Status: StatusIgnored, Message: "Not a message event"}, nil
	}

	sender := payload.Data.Sender()
	if sender == "" {
		return Result{}, ErrMissingPhone
	}
	lookup, err := phone.Normalize(sender)
	if err != nil {
		lookup = sender
	}

	msgID := payload.Data.ID
	if p.dedupe && msgID != "" {
		claimed, err := p.store.ClaimDelivery(ctx, msgID, lookup, p.claimLease)
		if err != nil {
			return Result{}, fmt.Errorf("webhook: %w", err)
		}
		if !claimed {
			p.logger.Info("duplicate delivery dropped", "message_id", msgID, "phone", lookup)
			return Result{Status: StatusDuplicate, Message: "Message already processed"}, nil
		}
	}

	res, err := p.process(ctx, sender, lookup, payload.Data)
	if p.dedupe && msgID != "" {
		p.settleDelivery(ctx, msgID, err)
	}
	if err != nil {
		p.logger.Error("webhook processing failed", "phone", lookup, "error", err)
		return Result{}, err
	}
	return res, nil
}

// settleDelivery marks a claimed delivery processed, or releases it so a
// redelivery is handled again.
func (p *Pipeline) settleDelivery(ctx context.Context, msgID string, runErr error) {
	if runErr != nil {
		if err := p.store.ReleaseDelivery(context.WithoutCancel(ctx), msgID); err != nil {
			p.logger.Error("release delivery", "message_id", msgID, "error", err)
		}
		return
	}
	if err := p.store.CompleteDelivery(ctx, msgID); err != nil {
		p.logger.Warn("complete delivery", "message_id", msgID, "error", err)
	}
}

func (p *Pipeline) process(ctx context.Context, sender, lookup string, data MessageData) (Result, error) {
	insp, err := p.store.InspectorByPhone(ctx, lookup)
	if errors.Is(err, store.ErrNotFound) {
		p.logger.Warn("unrecognized WhatsApp number", "phone", lookup)
		if err := p.messenger.SendText(ctx, sender, RejectionMessage); err != nil {
			return Result{}, fmt.Errorf("webhook: send rejection: %w", err)
		}
		return Result{Status: StatusRejected, Message: "Unregistered phone number"}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("webhook: identify sender: %w", err)
	}
	log := p.logger.With("inspector_id", insp.ID)

	sess, err := p.sessions.Resolve(ctx, insp.ID)
	if err != nil {
		return Result{}, fmt.Errorf("webhook: %w", err)
	}
	log = log.With("session_id", sess.ID)

	in, err := p.normalizer.Normalize(ctx, insp.ID, data)
	if err != nil {
		return Result{}, err
	}

	if err := p.sessions.Append(ctx, sess.ID, models.SenderUser, in.Content, in.MediaID); err != nil {
		return Result{}, fmt.Errorf("webhook: %w", err)
	}

	history, err := p.sessions.History(ctx, sess.ID)
	if err != nil {
		return Result{}, fmt.Errorf("webhook: %w", err)
	}

	intent := p.resolver.Resolve(ctx, in.Content, toLLMTurns(history), llm.Inspector{
		ID:    insp.ID,
		Name:  insp.Name,
		Phone: insp.WhatsAppNumber,
	})

	if err := p.sessions.Append(ctx, sess.ID, models.SenderAssistant, intent.Message, nil); err != nil {
		return Result{}, fmt.Errorf("webhook: %w", err)
	}

	results, err := p.dispatcher.Dispatch(ctx, insp.ID, intent.Actions)
	if err != nil {
		return Result{}, fmt.Errorf("webhook: %w", err)
	}
	log.Info("turn processed", "actions", len(intent.Actions), "executed", len(results))

	if err := p.messenger.SendText(ctx, sender, p.reply(intent.Message, results)); err != nil {
		return Result{}, fmt.Errorf("webhook: send reply: %w", err)
	}
	return Result{Status: StatusSuccess, Message: "Message processed successfully"}, nil
}

// reply is the model's message, optionally followed by action summaries.
func (p *Pipeline) reply(message string, results []actions.Result) string {
	if !p.appendResults {
		return message
	}
	parts := []string{message}
	for _, r := range results {
		if s := strings.TrimSpace(r.Summary()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func toLLMTurns(history []session.Turn) []llm.Turn {
	out := make([]llm.Turn, len(history))
	for i, t := range history {
		out[i] = llm.Turn{Sender: t.Sender, Content: t.Content, Timestamp: t.Timestamp}
	}
	return out
}
