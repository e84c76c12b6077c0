package store

import (
	"context"
	"fmt"
	"time"

	"github.com/propertystewards/steward/internal/db"
	"github.com/propertystewards/steward/internal/models"
)

// ClaimDelivery records that a provider message ID is being processed.
// It returns false, without error, when the ID was already claimed. A claim
// still processing after lease is taken over, so a run that died without
// settling does not block redelivery. A lease <= 0 never expires.
func (s *Store) ClaimDelivery(ctx context.Context, messageID, phone string, lease time.Duration) (bool, error) {
	now := s.now()
	d := models.WebhookDelivery{
		MessageID: messageID,
		Phone:     phone,
		Status:    models.DeliveryProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).Create(&d).Error
	if db.IsDuplicateKey(err) {
		return s.takeOverStaleClaim(ctx, messageID, phone, lease)
	}
	if err != nil {
		return false, fmt.Errorf("store: claim delivery %s: %w", messageID, err)
	}
	return true, nil
}

// takeOverStaleClaim re-stamps a processing claim older than lease. The
// conditional update lets only one concurrent redelivery win.
func (s *Store) takeOverStaleClaim(ctx context.Context, messageID, phone string, lease time.Duration) (bool, error) {
	if lease <= 0 {
		return false, nil
	}
	now := s.now()
	result := s.db.WithContext(ctx).Model(&models.WebhookDelivery{}).
		Where("message_id = ? AND status = ? AND updated_at < ?", messageID, models.DeliveryProcessing, now.Add(-lease)).
		Updates(map[string]interface{}{
			"phone":      phone,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("store: take over delivery %s: %w", messageID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// CompleteDelivery marks a claimed delivery as fully processed.
func (s *Store) CompleteDelivery(ctx context.Context, messageID string) error {
	if err := s.db.WithContext(ctx).Model(&models.WebhookDelivery{}).
		Where("message_id = ?", messageID).
		Updates(map[string]interface{}{
			"status":     models.DeliveryProcessed,
			"updated_at": s.now(),
		}).Error; err != nil {
		return fmt.Errorf("store: complete delivery %s: %w", messageID, err)
	}
	return nil
}

// ReleaseDelivery drops a claim so a redelivery of the message is processed again.
func (s *Store) ReleaseDelivery(ctx context.Context, messageID string) error {
	if err := s.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Delete(&models.WebhookDelivery{}).Error; err != nil {
		return fmt.Errorf("store: release delivery %s: %w", messageID, err)
	}
	return nil
}
