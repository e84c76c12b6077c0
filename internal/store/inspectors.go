package store

import (
	"context"
	"fmt"

	"github.com/propertystewards/steward/internal/models"
)

// InspectorByPhone looks up an inspector by normalized WhatsApp number.
// Returns ErrNotFound when the number is not registered.
func (s *Store) InspectorByPhone(ctx context.Context, phone string) (*models.Inspector, error) {
	var insp models.Inspector
	if err := s.db.WithContext(ctx).Where("whatsapp_number = ?", phone).First(&insp).Error; err != nil {
		return nil, fmt.Errorf("store: get inspector by phone: %w", notFound(err))
	}
	return &insp, nil
}

// CreateInspector provisions a new inspector.
func (s *Store) CreateInspector(ctx context.Context, name, phone, email string) (*models.Inspector, error) {
	insp := models.Inspector{
		Name:           name,
		WhatsAppNumber: phone,
		Email:          email,
		Active:         true,
		CreatedAt:      s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&insp).Error; err != nil {
		return nil, fmt.Errorf("store: create inspector %s: %w", phone, err)
	}
	return &insp, nil
}

// ListInspectors returns all inspectors ordered by name.
func (s *Store) ListInspectors(ctx context.Context) ([]models.Inspector, error) {
	var out []models.Inspector
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: list inspectors: %w", err)
	}
	return out, nil
}
