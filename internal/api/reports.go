package api

import (
	"errors"   // Error comparison
	"net/http" // HTTP status codes
	"slices"   // Status filter

	"fivem_tools/internal/domain"     // Importing domain models
	"fivem_tools/internal/middleware" // Current user
	"fivem_tools/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

var errSelfReport = errors.New("self report")

// ReportRequest flags a piece of content or a user
type ReportRequest struct {
	Type        string `json:"type" binding:"required,report_type"`
	TargetID    uint   `json:"target_id" binding:"required"`
	Reason      string `json:"reason" binding:"required,report_reason"`
	Description string `json:"description" binding:"max=1000"`
}

// checkReportTarget makes sure the reported thing exists and is visible to the reporter
func checkReportTarget(db *gorm.DB, kind string, id uint, reporter *domain.User) error {
	var n int64
	var err error
	switch kind {
	case domain.ReportAsset:
		err = db.Model(&domain.Asset{}).Where("id = ?", id).Count(&n).Error
	case domain.ReportThread:
		err = db.Model(&domain.ForumThread{}).Where("id = ? AND is_deleted = ?", id, false).Count(&n).Error
	case domain.ReportReply:
		err = db.Model(&domain.ForumReply{}).Where("id = ? AND is_deleted = ?", id, false).Count(&n).Error
	case domain.ReportUser:
		if id == reporter.ID {
			return errSelfReport
		}
		err = db.Model(&domain.User{}).Where("id = ?", id).Count(&n).Error
	case domain.ReportMessage:
		// Only the two people in a conversation can report from it
		err = db.Model(&domain.Message{}).
			Where("id = ? AND (sender_id = ? OR receiver_id = ?)", id, reporter.ID, reporter.ID).Count(&n).Error
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateReportHandler files a report for the moderators
func CreateReportHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		var req ReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report"})
			return
		}
		switch err := checkReportTarget(d.DB, req.Type, req.TargetID, user); {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Target not found"})
			return
		case errors.Is(err, errSelfReport):
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot report yourself"})
			return
		case err != nil:
			serverError(c, "Failed to load target", err, logrus.Fields{"type": req.Type, "target_id": req.TargetID})
			return
		}

		report := domain.Report{
			ReporterID:  user.ID,
			Type:        req.Type,
			TargetID:    req.TargetID,
			Reason:      req.Reason,
			Description: utils.SanitizeText(req.Description),
			Status:      domain.ReportPending,
		}
		err := d.DB.Transaction(func(tx *gorm.DB) error {
			// One open report per reporter and target
			var open int64
			if err := tx.Model(&domain.Report{}).
				Where("reporter_id = ? AND type = ? AND target_id = ? AND status = ?", user.ID, req.Type, req.TargetID, domain.ReportPending).
				Count(&open).Error; err != nil {
				return err
			}
			if open > 0 {
				return gorm.ErrDuplicatedKey
			}
			return tx.Create(&report).Error
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "You already reported this"})
			return
		}
		if err != nil {
			serverError(c, "Failed to submit report", err, logrus.Fields{"user_id": user.ID})
			return
		}
		logrus.WithFields(logrus.Fields{"report_id": report.ID, "user_id": user.ID, "type": report.Type}).Info("Report submitted")
		if d.Notifier != nil {
			notifyAdmins(d, domain.NotifyReport, "New report", user.Username+" reported a "+report.Type+" for "+report.Reason, "/admin/reports")
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "report": report})
	}
}

var reportStatuses = []string{domain.ReportPending, domain.ReportResolved, domain.ReportDismissed}

// ListReportsHandler pages through reports, ?status defaults to pending and accepts all
func ListReportsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := c.DefaultQuery("status", domain.ReportPending)
		query := db.Model(&domain.Report{})
		switch {
		case status == "all":
		case slices.Contains(reportStatuses, status):
			query = query.Where("status = ?", status)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		if t := c.Query("type"); t != "" {
			query = query.Where("type = ?", t)
		}
		p := utils.ParsePage(c, "limit", 20)
		var total int64
		if err := query.Count(&total).Error; err != nil {
			serverError(c, "Failed to count reports", err, nil)
			return
		}
		var reports []domain.Report
		if err := query.Preload("Reporter").Order("created_at desc, id desc").
			Offset(p.Offset()).Limit(p.PageSize).Find(&reports).Error; err != nil {
			serverError(c, "Failed to fetch reports", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"reports": reports,
			"pagination": Pagination{Page: p.Page, Limit: p.PageSize, Total: total, Pages: p.TotalPages(total)},
		})
	}
}

// ReportUpdateRequest closes or reopens a report
type ReportUpdateRequest struct {
	Status     string `json:"status" binding:"required,oneof=pending resolved dismissed"`
	AdminNotes string `json:"admin_notes" binding:"max=2000"`
}

// UpdateReportHandler records the moderator decision and tells the reporter
func UpdateReportHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req ReportUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var report domain.Report
		if err := d.DB.First(&report, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
				return
			}
			serverError(c, "Failed to fetch report", err, logrus.Fields{"report_id": id})
			return
		}
		adminID, _ := userIDFrom(c)
		updates := map[string]any{
			"status":      req.Status,
			"admin_notes": utils.SanitizeText(req.AdminNotes),
			"resolved_by": nil,
			"resolved_at": nil,
		}
		if req.Status != domain.ReportPending {
			now := d.now()
			updates["resolved_by"], updates["resolved_at"] = adminID, now
		}
		if err := d.DB.Model(&report).Updates(updates).Error; err != nil {
			serverError(c, "Failed to update report", err, logrus.Fields{"report_id": id})
			return
		}
		if err := d.DB.Preload("Reporter").First(&report, id).Error; err != nil {
			serverError(c, "Failed to fetch report", err, logrus.Fields{"report_id": id})
			return
		}
		logrus.WithFields(logrus.Fields{"report_id": id, "admin_id": adminID, "status": req.Status}).Info("Report updated")
		if d.Notifier != nil && req.Status != domain.ReportPending {
			d.Notifier.Send(report.ReporterID, domain.NotifySystem, "Report "+req.Status,
				"Your report on a "+report.Type+" was "+req.Status, "/support/reports")
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
	}
}

// MyReportsHandler lists the reports the user filed, newest first
func MyReportsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		var reports []domain.Report
		if err := db.Where("reporter_id = ?", user.ID).Order("created_at desc, id desc").
			Limit(utils.QueryLimit(c, 20, utils.MaxPageSize)).Find(&reports).Error; err != nil {
			serverError(c, "Failed to fetch reports", err, logrus.Fields{"user_id": user.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reports": reports})
	}
}
