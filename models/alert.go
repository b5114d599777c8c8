package models

import "time"

// Alert is a transient toast-style notification. Clients auto-dismiss
// after a few seconds; the row stays for the notification history.
type Alert struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index"`
	Type      string    `gorm:"size:20"` // "info" | "warning"
	Message   string    `gorm:"type:text"`
	CreatedAt time.Time
}
