package models

import (
	"time"

	"gorm.io/gorm"
)

// Scheduled post lifecycle. A post leaves "pending" exactly once.
const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusFailed    = "failed"
)

type ScheduledPost struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OwnerID       string         `gorm:"not null;index;size:255" json:"owner_id"`
	Text          string         `gorm:"type:text" json:"text"`
	VKGroups      StringArray    `gorm:"type:text[]" json:"vk_groups"`
	TGChannels    StringArray    `gorm:"type:text[]" json:"tg_channels"`
	Attachments   StringArray    `gorm:"type:text[]" json:"attachments"`
	ScheduledTime string         `gorm:"size:64" json:"scheduled_time"`
	Status        string         `gorm:"size:50;default:'pending';index" json:"status"`
	Error         string         `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
