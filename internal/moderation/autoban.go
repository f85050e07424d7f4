// Package moderation bans accounts that post prohibited content or flood the site.
package moderation

import (
	"errors"  // Sentinel errors
	"strings" // Content matching
	"time"    // Sliding windows

	"fivem_tools/internal/domain"  // Importing domain models
	"fivem_tools/internal/metrics" // Auto-ban counter

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Auto-ban thresholds, counted over the last minute
const (
	PostSpamThreshold = 5
	SpinAbuseLimit    = 10
	Window            = time.Minute
)

// ProhibitedWords trigger an immediate ban when found in user content
var ProhibitedWords = []string{"scam", "cheat", "hack", "free money", "discord.gg/malicious"}

// ErrProtectedUser is returned when trying to ban an admin
var ErrProtectedUser = errors.New("admins cannot be banned")

// ContainsProhibited returns the first prohibited word found in text
func ContainsProhibited(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, w := range ProhibitedWords {
		if strings.Contains(lower, w) {
			return w, true
		}
	}
	return "", false
}

// AutoBan checks user activity against the auto-ban rules
type AutoBan struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAutoBan creates an AutoBan using the wall clock
func NewAutoBan(db *gorm.DB) *AutoBan {
	return &AutoBan{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// CheckPost bans the author when content is prohibited or they posted too much in the last minute.
// It reports whether the user got banned.
func (a *AutoBan) CheckPost(user *domain.User, content string) (bool, error) {
	if user.IsAdmin() {
		return false, nil
	}
	if word, found := ContainsProhibited(content); found {
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "word": word}).Warn("Prohibited content detected")
		return true, a.ban(user.ID, "prohibited_content", "Auto-Ban: Detected prohibited content in post")
	}
	since := a.now().Add(-Window)
	var threads, replies int64
	if err := a.db.Model(&domain.ForumThread{}).Where("author_id = ? AND created_at >= ?", user.ID, since).Count(&threads).Error; err != nil {
		return false, err
	}
	if err := a.db.Model(&domain.ForumReply{}).Where("author_id = ? AND created_at >= ?", user.ID, since).Count(&replies).Error; err != nil {
		return false, err
	}
	if threads+replies >= PostSpamThreshold {
		return true, a.ban(user.ID, "post_spam", "Auto-Ban: Comment spamming detected")
	}
	return false, nil
}

// CheckSpin bans users spinning faster than any person could
func (a *AutoBan) CheckSpin(user *domain.User) (bool, error) {
	if user.IsAdmin() {
		return false, nil
	}
	var spins int64
	if err := a.db.Model(&domain.SpinHistory{}).Where("user_id = ? AND created_at >= ?", user.ID, a.now().Add(-Window)).Count(&spins).Error; err != nil {
		return false, err
	}
	if spins >= SpinAbuseLimit {
		return true, a.ban(user.ID, "spin_abuse", "Auto-Ban: Spin wheel abuse detected")
	}
	return false, nil
}

func (a *AutoBan) ban(userID uint, rule, reason string) error {
	if err := Ban(a.db, userID, reason); err != nil {
		return err
	}
	metrics.AutoBans.WithLabelValues(rule).Inc()
	logrus.WithFields(logrus.Fields{"user_id": userID, "reason": reason}).Warn("User auto-banned")
	return nil
}

// Ban flags the user as banned, admins are refused
func Ban(db *gorm.DB, userID uint, reason string) error {
	var user domain.User
	if err := db.Select("id", "role", "membership").First(&user, userID).Error; err != nil {
		return err
	}
	if user.IsAdmin() {
		return ErrProtectedUser
	}
	return db.Model(&domain.User{}).Where("id = ?", userID).
		Updates(map[string]any{"is_banned": true, "ban_reason": reason}).Error
}

// Unban lifts a ban
func Unban(db *gorm.DB, userID uint) error {
	var user domain.User
	if err := db.Select("id").First(&user, userID).Error; err != nil {
		return err
	}
	return db.Model(&user).Updates(map[string]any{"is_banned": false, "ban_reason": ""}).Error
}
