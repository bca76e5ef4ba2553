package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/omnipost/omnipost/internal/models"
)

// ErrNotPending reports an attempt to move a scheduled post out of pending a
// second time. Terminal entries are never re-dispatched.
var ErrNotPending = errors.New("scheduled post is not pending")

// ScheduledPostService is the durable queue of deferred posts. Entries are
// created here and by external collaborators; only the runner moves them to a
// terminal status, and nothing in this core deletes them.
type ScheduledPostService struct {
	db *gorm.DB
}

func NewScheduledPostService(db *gorm.DB) *ScheduledPostService {
	return &ScheduledPostService{db: db}
}

func (s *ScheduledPostService) Create(ctx context.Context, post *models.ScheduledPost) error {
	post.Status = models.StatusPending
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create scheduled post: %w", err)
	}
	return nil
}

func (s *ScheduledPostService) ListPending(ctx context.Context) ([]models.ScheduledPost, error) {
	var posts []models.ScheduledPost
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("created_at").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending posts: %w", err)
	}
	return posts, nil
}

func (s *ScheduledPostService) ListForOwner(ctx context.Context, ownerID string) ([]models.ScheduledPost, error) {
	var posts []models.ScheduledPost
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled posts: %w", err)
	}
	return posts, nil
}

func (s *ScheduledPostService) MarkPublished(ctx context.Context, id uint) error {
	return s.transition(ctx, id, models.StatusPublished, "")
}

func (s *ScheduledPostService) MarkFailed(ctx context.Context, id uint, errMsg string) error {
	return s.transition(ctx, id, models.StatusFailed, errMsg)
}

// transition is a compare-and-set out of pending, so a post reaches a
// terminal status at most once even if two pollers race.
func (s *ScheduledPostService) transition(ctx context.Context, id uint, status, errMsg string) error {
	res := s.db.WithContext(ctx).
		Model(&models.ScheduledPost{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status": status,
			"error":  errMsg,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update scheduled post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotPending
	}
	return nil
}
