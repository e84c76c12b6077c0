// Package slack delivers administrator notifications to a Slack channel.
package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the fallback wait when Slack omits Retry-After.
	baseBackoff = time.Second
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Notifier posts admin notifications to one Slack channel.
type Notifier struct {
	client      slackClient
	channelID   string
	baseBackoff time.Duration
	logger      *slog.Logger
}

// Opts holds parameters for creating a Slack Notifier.
type Opts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string
	Logger    *slog.Logger
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Notifier.
func New(opts Opts) (*Notifier, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel is required")
	}
	n := &Notifier{
		client:      opts.Client,
		channelID:   opts.ChannelID,
		baseBackoff: baseBackoff,
		logger:      opts.Logger,
	}
	if n.client == nil {
		n.client = slackapi.New(opts.BotToken)
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	return n, nil
}

// Notify posts text to the configured channel.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	err := n.retryOnRateLimit(ctx, func() error {
		_, _, postErr := n.client.PostMessage(n.channelID,
			slackapi.MsgOptionText(text, false),
			slackapi.MsgOptionDisableLinkUnfurl(),
		)
		return postErr
	})
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// retryOnRateLimit calls fn and retries when Slack answers with a rate
// limit, honouring Retry-After when present.
func (n *Notifier) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			return err
		}

		if attempt == maxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * n.baseBackoff
		}
		n.logger.Warn("slack rate limited", "attempt", attempt+1, "max", maxRetries, "wait", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
