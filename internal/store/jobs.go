package store

import (
	"context"
	"fmt"
	"time"

	"github.com/propertystewards/steward/internal/models"
	"gorm.io/gorm"
)

// Job is a work order joined with its contract's client details.
type Job struct {
	WorkOrderID   uint
	ContractID    uint
	ScheduledDate time.Time
	Status        string
	ClientName    string
	Address       string
	Phone         string
}

// WorkOrdersForDay returns the inspector's non-cancelled work orders
// scheduled on the calendar day containing day, ordered by time.
func (s *Store) WorkOrdersForDay(ctx context.Context, inspectorID uint, day time.Time) ([]Job, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var jobs []Job
	err := s.db.WithContext(ctx).Table("work_orders AS w").
		Select("w.work_order_id, w.contract_id, w.scheduled_date, w.status, c.client_name, c.address, c.phone").
		Joins("JOIN contracts c ON w.contract_id = c.contract_id").
		Where("w.inspector_id = ? AND w.scheduled_date >= ? AND w.scheduled_date < ? AND w.status <> ?",
			inspectorID, start, end, models.WorkOrderCancelled).
		Order("w.scheduled_date").
		Scan(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("store: work orders for inspector %d on %s: %w",
			inspectorID, start.Format("2006-01-02"), err)
	}
	return jobs, nil
}

// ChecklistForRoom returns the checklist items of one room in a contract.
func (s *Store) ChecklistForRoom(ctx context.Context, contractID uint, roomName string) ([]models.ChecklistItem, error) {
	var items []models.ChecklistItem
	if err := s.db.WithContext(ctx).
		Where("contract_id = ? AND room_name = ?", contractID, roomName).
		Order("checklist_id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("store: checklist for contract %d room %q: %w", contractID, roomName, err)
	}
	return items, nil
}

// MarkTaskComplete completes every checklist item with the given task name
// on the contract. It reports whether any item matched.
func (s *Store) MarkTaskComplete(ctx context.Context, contractID uint, taskName string, inspectorID uint) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.ChecklistItem{}).
		Where("contract_id = ? AND task_name = ?", contractID, taskName).
		Updates(map[string]interface{}{
			"status":       models.ChecklistCompleted,
			"completed_at": s.now(),
			"completed_by": inspectorID,
		})
	if result.Error != nil {
		return false, fmt.Errorf("store: mark task %q complete on contract %d: %w", taskName, contractID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CancelContract cancels a contract and all of its work orders in one
// transaction. It reports whether the contract existed.
func (s *Store) CancelContract(ctx context.Context, contractID uint, reason string) (bool, error) {
	var found bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Contract{}).
			Where("contract_id = ?", contractID).
			Updates(map[string]interface{}{
				"status":              models.ContractCancelled,
				"cancellation_reason": reason,
			})
		if result.Error != nil {
			return fmt.Errorf("cancel contract: %w", result.Error)
		}
		found = result.RowsAffected > 0
		if err := tx.Model(&models.WorkOrder{}).
			Where("contract_id = ?", contractID).
			Update("status", models.WorkOrderCancelled).Error; err != nil {
			return fmt.Errorf("cancel work orders: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("store: cancel contract %d: %w", contractID, err)
	}
	return found, nil
}

// RescheduleWorkOrders moves every work order of a contract to newDate and
// marks them rescheduled. It reports whether any work order matched.
func (s *Store) RescheduleWorkOrders(ctx context.Context, contractID uint, newDate time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.WorkOrder{}).
		Where("contract_id = ?", contractID).
		Updates(map[string]interface{}{
			"scheduled_date": newDate,
			"status":         models.WorkOrderRescheduled,
		})
	if result.Error != nil {
		return false, fmt.Errorf("store: reschedule contract %d: %w", contractID, result.Error)
	}
	return result.RowsAffected > 0, nil
}
