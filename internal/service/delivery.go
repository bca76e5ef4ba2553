package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/omnipost/omnipost/internal/models"
	"github.com/omnipost/omnipost/internal/service/publisher"
)

// DeliveryHistory records one row per destination per publish attempt.
// Recording is best-effort; a history write failure never affects the
// publish outcome.
type DeliveryHistory struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewDeliveryHistory(db *gorm.DB, logger *zap.Logger) *DeliveryHistory {
	return &DeliveryHistory{db: db, logger: logger}
}

func (h *DeliveryHistory) Record(ctx context.Context, ownerID string, outcome publisher.Outcome) {
	record := models.DeliveryRecord{
		OwnerID:       ownerID,
		Platform:      string(outcome.Platform),
		DestinationID: outcome.DestinationID,
		Success:       outcome.Success,
		RemotePostID:  outcome.RemotePostID,
		Error:         outcome.Error,
	}
	if err := h.db.WithContext(ctx).Create(&record).Error; err != nil {
		h.logger.Error("Failed to record delivery",
			zap.String("platform", record.Platform),
			zap.String("destination_id", record.DestinationID),
			zap.Error(err))
	}
}

func (h *DeliveryHistory) ListForOwner(ctx context.Context, ownerID string, limit int) ([]models.DeliveryRecord, error) {
	var records []models.DeliveryRecord
	q := h.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
