package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/VP171097/vitality/models"
)

// AlertService persists toast notifications and pushes them over the
// realtime hub. Failures here are logged and swallowed: a lost toast must
// never fail the action that produced it.
type AlertService struct {
	db  *gorm.DB
	hub *RealtimeHub
}

func NewAlertService(db *gorm.DB, hub *RealtimeHub) *AlertService {
	return &AlertService{db: db, hub: hub}
}

func (s *AlertService) Emit(userID uint, typ, message string) {
	a := &models.Alert{UserID: userID, Type: typ, Message: message, CreatedAt: time.Now()}
	if s.db != nil {
		if err := s.db.Create(a).Error; err != nil {
			logrus.WithError(err).Warn("persist alert")
		}
	}
	if s.hub != nil {
		s.hub.BroadcastAlert(userID, a)
	}
}

// Recent returns the latest n alerts, newest first.
func (s *AlertService) Recent(userID uint, n int) ([]models.Alert, error) {
	var alerts []models.Alert
	if s.db == nil {
		return alerts, nil
	}
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(n).
		Find(&alerts).Error
	return alerts, err
}
