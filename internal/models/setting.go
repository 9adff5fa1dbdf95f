package models

import (
	"time"
)

// Site-wide toggles consulted by the comment endpoints.
const (
	SettingCommentsEnabled = "comments_enabled"
	SettingGuestComments   = "guest_comments"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:60;not null" json:"key"`
	Value     string    `gorm:"size:200;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
