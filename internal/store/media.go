package store

import (
	"context"
	"fmt"

	"github.com/propertystewards/steward/internal/models"
)

// MediaInput describes a downloaded media payload to persist.
type MediaInput struct {
	InspectorID uint
	ContractID  *uint
	TaskName    *string
	MediaType   string
	Filename    string
	Mimetype    string
	Data        []byte
}

// StoreMedia persists a media payload and returns its generated ID.
func (s *Store) StoreMedia(ctx context.Context, in MediaInput) (uint, error) {
	m := models.Media{
		InspectorID: in.InspectorID,
		ContractID:  in.ContractID,
		TaskName:    in.TaskName,
		MediaType:   in.MediaType,
		Filename:    in.Filename,
		Mimetype:    in.Mimetype,
		FileData:    in.Data,
		UploadedAt:  s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return 0, fmt.Errorf("store: store media for inspector %d: %w", in.InspectorID, err)
	}
	return m.ID, nil
}

// GetMedia fetches a media row including its payload.
func (s *Store) GetMedia(ctx context.Context, mediaID uint) (*models.Media, error) {
	var m models.Media
	if err := s.db.WithContext(ctx).First(&m, mediaID).Error; err != nil {
		return nil, fmt.Errorf("store: get media %d: %w", mediaID, notFound(err))
	}
	return &m, nil
}

// DeleteMedia removes a media row. It reports whether a row was deleted.
func (s *Store) DeleteMedia(ctx context.Context, mediaID uint) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&models.Media{}, mediaID)
	if result.Error != nil {
		return false, fmt.Errorf("store: delete media %d: %w", mediaID, result.Error)
	}
	return result.RowsAffected > 0, nil
}
