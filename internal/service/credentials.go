package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omnipost/omnipost/internal/models"
	"github.com/omnipost/omnipost/internal/service/publisher"
)

// ErrCredentialNotFound reports that no credential exists for the requested
// (owner, platform, destination) key.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialService stores opaque platform secrets. Token platforms carry one
// secret per destination; session platforms have a single slot per owner.
type CredentialService struct {
	db *gorm.DB
}

func NewCredentialService(db *gorm.DB) *CredentialService {
	return &CredentialService{db: db}
}

func (s *CredentialService) Get(ctx context.Context, ownerID string, platform publisher.Platform, destinationID string) (string, error) {
	var cred models.Credential
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND platform = ? AND destination_id = ?", ownerID, string(platform), destinationID).
		First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrCredentialNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	return cred.Secret, nil
}

// Set writes a credential as an atomic upsert on the full key, so two
// concurrent writers for the same owner cannot lose each other's update.
func (s *CredentialService) Set(ctx context.Context, ownerID string, platform publisher.Platform, destinationID, secret, label string) error {
	cred := models.Credential{
		OwnerID:       ownerID,
		Platform:      string(platform),
		DestinationID: destinationID,
		Secret:        secret,
		Label:         label,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "owner_id"},
			{Name: "platform"},
			{Name: "destination_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"secret", "label", "updated_at"}),
	}).Create(&cred).Error
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (s *CredentialService) Remove(ctx context.Context, ownerID string, platform publisher.Platform, destinationID string) error {
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND platform = ? AND destination_id = ?", ownerID, string(platform), destinationID).
		Delete(&models.Credential{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	return nil
}
