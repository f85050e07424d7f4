package rewards

import (
	"fmt" // Error wrapping

	"fivem_tools/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/clause"        // Insert-or-ignore for badges
)

// Activities that earn XP
const (
	ActivityUploadAsset   = "upload_asset"
	ActivityCreateThread  = "create_thread"
	ActivityCreateReply   = "create_reply"
	ActivityReceiveLike   = "receive_like"
	ActivityDailyLogin    = "daily_login"
	ActivityAssetDownload = "asset_download"
)

// ActivityXP is the XP granted per activity
var ActivityXP = map[string]int64{
	ActivityUploadAsset:   100,
	ActivityCreateThread:  50,
	ActivityCreateReply:   20,
	ActivityReceiveLike:   10,
	ActivityDailyLogin:    10,
	ActivityAssetDownload: 15,
}

// Level is one step of the level ladder
type Level struct {
	Level int    `json:"level"`  // 1 based
	Title string `json:"title"`  // Display name
	MinXP int64  `json:"min_xp"` // XP needed to reach it
}

// Levels is ordered by MinXP
var Levels = []Level{
	{Level: 1, Title: "Beginner", MinXP: 0},
	{Level: 2, Title: "Intermediate", MinXP: 1000},
	{Level: 3, Title: "Advanced", MinXP: 5000},
	{Level: 4, Title: "Expert", MinXP: 15000},
	{Level: 5, Title: "Legend", MinXP: 50000},
}

// LevelInfo describes where an XP total sits on the ladder
type LevelInfo struct {
	XP          int64  `json:"xp"`
	Level       int    `json:"level"`
	Title       string `json:"title"`
	BadgeTier   int    `json:"badge_tier"`
	CurrentMin  int64  `json:"current_level_xp"`
	NextLevelXP int64  `json:"next_level_xp"` // 0 at max level
	XPToNext    int64  `json:"xp_to_next"`
	Progress    int    `json:"progress"` // Percent toward the next level
}

// LevelForXP maps an XP total to its level
func LevelForXP(xp int64) LevelInfo {
	if xp < 0 {
		xp = 0 // Clamp bad data
	}
	// Highest level whose threshold is met
	idx := 0
	for i, l := range Levels {
		if xp >= l.MinXP {
			idx = i
		}
	}
	cur := Levels[idx]
	info := LevelInfo{XP: xp, Level: cur.Level, Title: cur.Title, BadgeTier: cur.Level, CurrentMin: cur.MinXP, Progress: 100}
	// Max level keeps Progress at 100 and no next level
	if idx+1 < len(Levels) {
		next := Levels[idx+1]
		info.NextLevelXP = next.MinXP
		info.XPToNext = next.MinXP - xp
		info.Progress = int((xp - cur.MinXP) * 100 / (next.MinXP - cur.MinXP))
	}
	return info
}

// XPResult is the outcome of an XP award
type XPResult struct {
	Amount    int64          `json:"amount"`               // XP granted
	Info      LevelInfo      `json:"level"`                // Level after the award
	LeveledUp bool           `json:"leveled_up"`           // Crossed a level threshold
	NewBadges []domain.Badge `json:"new_badges,omitempty"` // Badges unlocked by the award
}

// AwardXP grants the XP of activity to the user, must run inside a transaction
func AwardXP(tx *gorm.DB, userID uint, activity, reference string) (*XPResult, error) {
	amount, ok := ActivityXP[activity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivity, activity)
	}
	// Increment in SQL, then read back the new total
	res := tx.Model(&domain.User{}).Where("id = ?", userID).Update("xp", gorm.Expr("xp + ?", amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound // No such user
	}
	var user domain.User
	if err := tx.Select("id", "xp", "level").First(&user, userID).Error; err != nil {
		return nil, err
	}
	info := LevelForXP(user.XP)
	out := &XPResult{Amount: amount, Info: info, LeveledUp: info.Level > user.Level}
	// Store the derived level and badge tier only when they moved
	if info.Level != user.Level {
		if err := tx.Model(&domain.User{}).Where("id = ?", userID).
			Updates(map[string]any{"level": info.Level, "badge_tier": info.BadgeTier}).Error; err != nil {
			return nil, err
		}
	}
	// XP history row
	if err := tx.Create(&domain.XPTransaction{UserID: userID, Activity: activity, Amount: amount, ReferenceID: reference}).Error; err != nil {
		return nil, err
	}
	badges, err := EvaluateBadges(tx, userID) // New totals may unlock badges
	if err != nil {
		return nil, err
	}
	out.NewBadges = badges
	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"activity": activity,
		"xp":       amount,
		"total":    info.XP,
		"level":    info.Level,
	}).Info("XP awarded")
	return out, nil
}

// Stats are the counters badge requirements are checked against
type Stats struct {
	XP            int64 `json:"xp"`                 // Total XP
	Threads       int64 `json:"threads"`            // Live threads
	Replies       int64 `json:"replies"`            // Live replies
	Posts         int64 `json:"posts"`              // Threads plus replies
	Assets        int64 `json:"assets"`             // Approved assets
	Downloads     int64 `json:"downloads_received"` // Downloads across all own assets
	LikesReceived int64 `json:"likes_received"`     // Likes on threads, replies and assets
}

// Value returns the counter matching a badge requirement type
func (s Stats) Value(requirement string) (int64, bool) {
	switch requirement {
	case "xp":
		return s.XP, true
	case "posts":
		return s.Posts, true
	case "threads":
		return s.Threads, true
	case "likes":
		return s.LikesReceived, true
	case "assets":
		return s.Assets, true
	case "downloads":
		return s.Downloads, true
	}
	return 0, false // Unknown requirement, the badge is never auto-awarded
}

// LoadStats counts the user's contributions
func LoadStats(db *gorm.DB, userID uint) (Stats, error) {
	var s Stats
	if err := db.Model(&domain.User{}).Where("id = ?", userID).Select("xp").Scan(&s.XP).Error; err != nil {
		return s, err
	}
	if err := db.Model(&domain.ForumThread{}).Where("author_id = ? AND is_deleted = ?", userID, false).Count(&s.Threads).Error; err != nil {
		return s, err
	}
	if err := db.Model(&domain.ForumReply{}).Where("author_id = ? AND is_deleted = ?", userID, false).Count(&s.Replies).Error; err != nil {
		return s, err
	}
	s.Posts = s.Threads + s.Replies
	// Contributions
	if err := db.Model(&domain.Asset{}).Where("author_id = ? AND status = ?", userID, domain.AssetApproved).Count(&s.Assets).Error; err != nil {
		return s, err
	}
	if err := db.Model(&domain.Asset{}).Where("author_id = ?", userID).Select("COALESCE(SUM(downloads), 0)").Scan(&s.Downloads).Error; err != nil {
		return s, err
	}
	// Likes are summed per content type
	var threadLikes, replyLikes, assetLikes int64
	if err := db.Model(&domain.ForumThread{}).Where("author_id = ? AND is_deleted = ?", userID, false).Select("COALESCE(SUM(likes), 0)").Scan(&threadLikes).Error; err != nil {
		return s, err
	}
	if err := db.Model(&domain.ForumReply{}).Where("author_id = ? AND is_deleted = ?", userID, false).Select("COALESCE(SUM(likes), 0)").Scan(&replyLikes).Error; err != nil {
		return s, err
	}
	if err := db.Model(&domain.Asset{}).Where("author_id = ?", userID).Select("COALESCE(SUM(likes), 0)").Scan(&assetLikes).Error; err != nil {
		return s, err
	}
	s.LikesReceived = threadLikes + replyLikes + assetLikes
	return s, nil
}

// EvaluateBadges awards every catalog badge whose requirement the user now meets
func EvaluateBadges(tx *gorm.DB, userID uint) ([]domain.Badge, error) {
	stats, err := LoadStats(tx, userID)
	if err != nil {
		return nil, err
	}
	// Manual badges are only handed out by admins
	var catalog []domain.Badge
	if err := tx.Where("requirement_type <> ?", "manual").Order("sort_order").Find(&catalog).Error; err != nil {
		return nil, err
	}
	var earnedIDs []string
	if err := tx.Model(&domain.UserBadge{}).Where("user_id = ?", userID).Pluck("badge_id", &earnedIDs).Error; err != nil {
		return nil, err
	}
	earned := make(map[string]bool, len(earnedIDs))
	for _, id := range earnedIDs {
		earned[id] = true
	}
	var awarded []domain.Badge
	for _, b := range catalog {
		if earned[b.ID] {
			continue // Already owned
		}
		v, ok := stats.Value(b.RequirementType)
		if !ok || v < b.RequirementValue {
			continue
		}
		// Ignore the conflict when a concurrent award got there first
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.UserBadge{UserID: userID, BadgeID: b.ID, EarnedAt: tx.NowFunc()})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			awarded = append(awarded, b)
		}
	}
	return awarded, nil
}

// GrantBadge gives a badge by hand, reporting false when the user already has it
func GrantBadge(tx *gorm.DB, userID uint, badgeID string) (bool, error) {
	var badge domain.Badge
	if err := tx.First(&badge, "id = ?", badgeID).Error; err != nil {
		return false, err // Unknown badge
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.UserBadge{UserID: userID, BadgeID: badgeID, EarnedAt: tx.NowFunc()})
	return res.RowsAffected > 0, res.Error
}
