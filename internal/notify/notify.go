// Package notify stores user notifications and pushes them to open sockets.
package notify

import (
	"fmt"

	"fivem_tools/internal/domain"
	"fivem_tools/internal/realtime"
	"fivem_tools/internal/rewards"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Publisher delivers a message to a user's live connections
type Publisher interface {
	Publish(userID uint, msg realtime.Message) int
}

// Service creates notifications
type Service struct {
	db  *gorm.DB
	pub Publisher
}

// New creates a Service; pub may be nil to skip live delivery
func New(db *gorm.DB, pub Publisher) *Service {
	return &Service{db: db, pub: pub}
}

// Send stores a notification and pushes it live. Failures are logged, never returned,
// so a broken notification cannot undo the action that triggered it.
func (s *Service) Send(userID uint, kind, title, message, link string) *domain.Notification {
	if s == nil {
		return nil
	}
	n := &domain.Notification{UserID: userID, Type: kind, Title: title, Message: message, Link: link}
	if err := s.db.Create(n).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"user_id": userID, "type": kind}).Error("Failed to store notification")
		return nil
	}
	if s.pub != nil {
		s.pub.Publish(userID, realtime.Message{Type: "notification", Data: n})
	}
	return n
}

// XP announces level ups and badges coming out of an XP award
func (s *Service) XP(userID uint, res *rewards.XPResult) {
	if s == nil || res == nil {
		return
	}
	if res.LeveledUp {
		s.Send(userID, domain.NotifyLevelUp, "Level up!",
			fmt.Sprintf("You reached level %d: %s", res.Info.Level, res.Info.Title), "/profile")
	}
	for _, b := range res.NewBadges {
		s.Send(userID, domain.NotifyBadge, "New badge earned", "You earned the "+b.Name+" badge", "/profile")
	}
}
