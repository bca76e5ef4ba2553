package models

import (
	"time"
)

// Credential is an opaque platform secret. Token platforms carry one row per
// (owner, platform, destination); session platforms use a single row per
// (owner, platform) with an empty destination.
type Credential struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OwnerID       string    `gorm:"not null;size:255;uniqueIndex:idx_credential_key" json:"owner_id"`
	Platform      string    `gorm:"not null;size:50;uniqueIndex:idx_credential_key" json:"platform"`
	DestinationID string    `gorm:"size:255;uniqueIndex:idx_credential_key" json:"destination_id"`
	Secret        string    `gorm:"type:text;not null" json:"-"`
	Label         string    `gorm:"size:255" json:"label"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
