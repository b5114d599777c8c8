package models

import "gorm.io/gorm"

// DocKind identifies one of the four per-user documents.
type DocKind string

const (
	DocSettings DocKind = "settings"
	DocLogs     DocKind = "logs"
	DocFood     DocKind = "food"
	DocActivity DocKind = "activity"
)

// AllDocKinds in subscription order.
var AllDocKinds = []DocKind{DocSettings, DocLogs, DocFood, DocActivity}

// UserDocument is a stored per-user document. The whole log/food/activity
// history lives in a single row per kind; subscribers always receive the
// full payload, never a diff.
type UserDocument struct {
	gorm.Model
	UserID  uint   `gorm:"uniqueIndex:idx_user_doc;not null"`
	Kind    string `gorm:"uniqueIndex:idx_user_doc;size:16;not null"`
	Data    []byte `gorm:"type:jsonb"`
	Version int64  `gorm:"not null;default:0"`
}

// LogsDoc is the payload shape of the "logs" document.
type LogsDoc struct {
	Data []DailyLog `json:"data"`
}

// FoodDoc is the payload shape of the "food" document.
type FoodDoc struct {
	Data FoodBuckets `json:"data"`
}

// ActivityDoc is the payload shape of the "activity" document.
type ActivityDoc struct {
	Data ActivityBuckets `json:"data"`
}
