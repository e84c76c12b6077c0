// Package session owns the chat-session lifecycle for inspectors: reuse of
// a recent session, message append, and history replay.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/propertystewards/steward/internal/models"
	"github.com/propertystewards/steward/internal/store"
)

// Default configuration values for Manager.
const (
	DefaultWindow       = 24 * time.Hour
	DefaultHistoryTurns = 50
)

// Turn is one replayed message of a session.
type Turn struct {
	Sender    string
	Content   string
	Timestamp time.Time
}

// Manager resolves, appends to, and reads chat sessions.
type Manager struct {
	store        *store.Store
	window       time.Duration
	historyTurns int
	logger       *slog.Logger
	now          func() time.Time
}

// Opts holds parameters for creating a Manager.
type Opts struct {
	Store        *store.Store
	Window       time.Duration // defaults to DefaultWindow
	HistoryTurns int           // 0 means DefaultHistoryTurns, negative replays everything
	Logger       *slog.Logger
	Now          func() time.Time
}

// New creates a Manager.
func New(opts Opts) (*Manager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	turns := opts.HistoryTurns
	if turns == 0 {
		turns = DefaultHistoryTurns
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Manager{
		store:        opts.Store,
		window:       window,
		historyTurns: turns,
		logger:       logger,
		now:          now,
	}, nil
}

// Resolve returns the inspector's current session, creating one when no
// active session was opened within the window.
func (m *Manager) Resolve(ctx context.Context, inspectorID uint) (*models.ChatSession, error) {
	sess, err := m.store.LatestActiveSession(ctx, inspectorID, m.now().Add(-m.window))
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("session: resolve for inspector %d: %w", inspectorID, err)
	}

	sess, err = m.store.CreateSession(ctx, inspectorID)
	if err != nil {
		return nil, fmt.Errorf("session: resolve for inspector %d: %w", inspectorID, err)
	}
	m.logger.Info("session opened", "inspector_id", inspectorID, "session_id", sess.ID)
	return sess, nil
}

// Append inserts a message and then bumps the session's last interaction.
// A failed bump leaves the message in place; it is logged and returned.
func (m *Manager) Append(ctx context.Context, sessionID uint, sender, content string, mediaID *uint) error {
	if _, err := m.store.InsertMessage(ctx, sessionID, sender, content, mediaID); err != nil {
		return fmt.Errorf("session: append to %d: %w", sessionID, err)
	}
	if err := m.store.TouchSession(ctx, sessionID); err != nil {
		m.logger.Warn("message stored but last_interaction not updated",
			"session_id", sessionID, "error", err)
		return fmt.Errorf("session: append to %d: %w", sessionID, err)
	}
	return nil
}

// History returns the session's messages in append order, limited to the
// configured number of most recent turns.
func (m *Manager) History(ctx context.Context, sessionID uint) ([]Turn, error) {
	limit := m.historyTurns
	if limit < 0 {
		limit = 0
	}
	msgs, err := m.store.SessionHistory(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("session: history for %d: %w", sessionID, err)
	}
	turns := make([]Turn, len(msgs))
	for i, msg := range msgs {
		turns[i] = Turn{Sender: msg.Sender, Content: msg.Content, Timestamp: msg.Timestamp}
	}
	return turns, nil
}
