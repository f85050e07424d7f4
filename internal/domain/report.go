package domain

import "time"

// Report statuses
const (
	ReportPending   = "pending"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

// Report target types
const (
	ReportAsset   = "asset"
	ReportThread  = "thread"
	ReportReply   = "reply"
	ReportUser    = "user"
	ReportMessage = "message"
)

// ReportTypes lists what can be reported
var ReportTypes = []string{ReportAsset, ReportThread, ReportReply, ReportUser, ReportMessage}

// ReportReasons lists the accepted report reasons
var ReportReasons = []string{"spam", "inappropriate", "copyright", "malware", "harassment", "other"}

// Report Model, a user flagging content for moderators
type Report struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ReporterID  uint       `gorm:"index;not null" json:"reporter_id"`
	Reporter    *Author    `gorm:"foreignKey:ReporterID;-:migration" json:"reporter,omitempty"`
	Type        string     `gorm:"size:16;index:idx_report_target;not null" json:"type"`
	TargetID    uint       `gorm:"index:idx_report_target;not null" json:"target_id"`
	Reason      string     `gorm:"size:32;not null" json:"reason"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Status      string     `gorm:"size:16;index;not null;default:pending" json:"status"`
	AdminNotes  string     `gorm:"type:text" json:"admin_notes,omitempty"`
	ResolvedBy  *uint      `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
