package store

import (
	"context"
	"fmt"
	"time"

	"github.com/propertystewards/steward/internal/models"
)

// PendingLeads returns contracts still pending that were created before
// cutoff, with their client preloaded.
func (s *Store) PendingLeads(ctx context.Context, cutoff time.Time) ([]models.Contract, error) {
	var leads []models.Contract
	if err := s.db.WithContext(ctx).Preload("Client").
		Where("status = ? AND created_at < ?", models.ContractPending, cutoff).
		Order("created_at").Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("store: pending leads: %w", err)
	}
	return leads, nil
}

// PendingLeadsOlderThan is PendingLeads with a cutoff of hours before now.
func (s *Store) PendingLeadsOlderThan(ctx context.Context, hours int) ([]models.Contract, error) {
	return s.PendingLeads(ctx, s.now().Add(-time.Duration(hours)*time.Hour))
}

// CompletedUnreported returns completed contracts whose report has not been
// sent, with their client preloaded.
func (s *Store) CompletedUnreported(ctx context.Context) ([]models.Contract, error) {
	var jobs []models.Contract
	if err := s.db.WithContext(ctx).Preload("Client").
		Where("status = ? AND report_sent = ?", models.ContractCompleted, false).
		Order("contract_id").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("store: completed unreported jobs: %w", err)
	}
	return jobs, nil
}

// MarkReportSent flips the one-way report_sent flag.
func (s *Store) MarkReportSent(ctx context.Context, contractID uint) error {
	result := s.db.WithContext(ctx).Model(&models.Contract{}).
		Where("contract_id = ?", contractID).
		Update("report_sent", true)
	if result.Error != nil {
		return fmt.Errorf("store: mark report sent for contract %d: %w", contractID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("store: mark report sent for contract %d: %w", contractID, ErrNotFound)
	}
	return nil
}
