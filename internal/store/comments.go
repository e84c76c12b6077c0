package store

import (
	"context"
	"fmt"

	"github.com/propertystewards/steward/internal/models"
)

// AddComment records an inspector's comment on a contract task and returns
// the new comment ID.
func (s *Store) AddComment(ctx context.Context, inspectorID, contractID uint, taskName, text string) (uint, error) {
	c := models.Comment{
		InspectorID: inspectorID,
		ContractID:  contractID,
		TaskName:    taskName,
		CommentText: text,
		CreatedAt:   s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return 0, fmt.Errorf("store: add comment on contract %d: %w", contractID, err)
	}
	return c.ID, nil
}

// UpdateComment replaces a comment's text. It reports whether the comment existed.
func (s *Store) UpdateComment(ctx context.Context, commentID uint, text string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("comment_id = ?", commentID).
		Updates(map[string]interface{}{
			"comment_text": text,
			"updated_at":   s.now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("store: update comment %d: %w", commentID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetComment fetches a single comment.
func (s *Store) GetComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, commentID).Error; err != nil {
		return nil, fmt.Errorf("store: get comment %d: %w", commentID, notFound(err))
	}
	return &c, nil
}
