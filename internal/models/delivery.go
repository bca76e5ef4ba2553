package models

import (
	"time"
)

// DeliveryRecord is the per-destination outcome history written by the
// dispatcher, one row per requested destination per publish attempt.
type DeliveryRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OwnerID       string    `gorm:"not null;index;size:255" json:"owner_id"`
	Platform      string    `gorm:"not null;size:50" json:"platform"`
	DestinationID string    `gorm:"not null;size:255" json:"destination_id"`
	Success       bool      `json:"success"`
	RemotePostID  string    `gorm:"size:255" json:"remote_post_id,omitempty"`
	Error         string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
