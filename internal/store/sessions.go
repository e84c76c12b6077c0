package store

import (
	"context"
	"fmt"
	"time"

	"github.com/propertystewards/steward/internal/models"
	"gorm.io/gorm"
)

// LatestActiveSession returns the most recently created active session for
// the inspector whose creation time is after since.
func (s *Store) LatestActiveSession(ctx context.Context, inspectorID uint, since time.Time) (*models.ChatSession, error) {
	var sess models.ChatSession
	err := s.db.WithContext(ctx).
		Where("inspector_id = ? AND created_at > ? AND is_active = ?", inspectorID, since, true).
		Order("created_at DESC").Order("session_id DESC").
		First(&sess).Error
	if err != nil {
		return nil, fmt.Errorf("store: latest session for inspector %d: %w", inspectorID, notFound(err))
	}
	return &sess, nil
}

// CreateSession opens a new active session stamped with the store clock.
func (s *Store) CreateSession(ctx context.Context, inspectorID uint) (*models.ChatSession, error) {
	now := s.now()
	sess := models.ChatSession{
		InspectorID:     inspectorID,
		CreatedAt:       now,
		LastInteraction: now,
		IsActive:        true,
	}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("store: create session for inspector %d: %w", inspectorID, err)
	}
	return &sess, nil
}

// InsertMessage appends a message to a session with the next sequence number.
func (s *Store) InsertMessage(ctx context.Context, sessionID uint, sender, content string, mediaID *uint) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int
		if err := tx.Model(&models.ChatMessage{}).
			Where("session_id = ?", sessionID).
			Select("COALESCE(MAX(sequence), 0)").Scan(&maxSeq).Error; err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		msg = models.ChatMessage{
			SessionID: sessionID,
			Sequence:  maxSeq + 1,
			Sender:    sender,
			Content:   content,
			MediaID:   mediaID,
			Timestamp: s.now(),
		}
		return tx.Create(&msg).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store: insert message into session %d: %w", sessionID, err)
	}
	return &msg, nil
}

// TouchSession bumps last_interaction on a session.
func (s *Store) TouchSession(ctx context.Context, sessionID uint) error {
	result := s.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("session_id = ?", sessionID).
		Update("last_interaction", s.now())
	if result.Error != nil {
		return fmt.Errorf("store: touch session %d: %w", sessionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("store: touch session %d: %w", sessionID, ErrNotFound)
	}
	return nil
}

// SessionHistory returns a session's messages in append order. When limit
// is positive only the most recent limit messages are returned, still in
// ascending order.
func (s *Store) SessionHistory(ctx context.Context, sessionID uint, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	q := s.db.WithContext(ctx).Where("session_id = ?", sessionID)
	if limit > 0 {
		q = q.Order("sequence DESC").Order("message_id DESC").Limit(limit)
	} else {
		q = q.Order("sequence ASC").Order("message_id ASC")
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("store: history for session %d: %w", sessionID, err)
	}
	if limit > 0 {
		for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
			msgs[i], msgs[j] = msgs[j], msgs[i]
		}
	}
	return msgs, nil
}
