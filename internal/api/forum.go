package api

import (
	"errors"   // Error comparison
	"net/http" // HTTP status codes

	"fivem_tools/internal/domain"     // Importing domain models
	"fivem_tools/internal/middleware" // Current user
	"fivem_tools/internal/rewards"    // Posting XP
	"fivem_tools/internal/utils"      // Validation and sanitizing

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// CategoryView is a forum category with its thread count
type CategoryView struct {
	domain.ForumCategory
	ThreadCount int64 `json:"thread_count"`
}

// ForumCategoriesHandler lists the active categories
func ForumCategoriesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var categories []domain.ForumCategory
		if err := db.Where("is_active = ?", true).Order("sort_order, id").Find(&categories).Error; err != nil {
			serverError(c, "Failed to fetch categories", err, nil)
			return
		}
		var counts []struct {
			CategoryID uint
			N          int64
		}
		if err := db.Model(&domain.ForumThread{}).Select("category_id, COUNT(*) AS n").
			Where("status = ? AND is_deleted = ?", domain.ThreadApproved, false).
			Group("category_id").Scan(&counts).Error; err != nil {
			serverError(c, "Failed to count threads", err, nil)
			return
		}
		byCategory := make(map[uint]int64, len(counts))
		for _, row := range counts {
			byCategory[row.CategoryID] = row.N
		}
		out := make([]CategoryView, len(categories))
		for i, cat := range categories {
			out[i] = CategoryView{ForumCategory: cat, ThreadCount: byCategory[cat.ID]}
		}
		c.JSON(http.StatusOK, gin.H{"categories": out})
	}
}

// ListThreadsHandler lists approved threads, pinned first then newest
func ListThreadsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := utils.ParsePage(c, "limit", 20)
		query := db.Model(&domain.ForumThread{}).Where("status = ? AND is_deleted = ?", domain.ThreadApproved, false)
		if cat := c.Query("category_id"); cat != "" {
			query = query.Where("category_id = ?", cat)
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			serverError(c, "Failed to count threads", err, nil)
			return
		}
		var threads []domain.ForumThread
		if err := query.Preload("Author").Preload("Category").
			Order("is_pinned desc, created_at desc, id desc").
			Offset(p.Offset()).Limit(p.PageSize).
			Find(&threads).Error; err != nil {
			serverError(c, "Failed to fetch threads", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"threads": threads,
			"pagination": Pagination{Page: p.Page, Limit: p.PageSize, Total: total, Pages: p.TotalPages(total)},
		})
	}
}

// loadThread fetches a live thread, answering 404 when it is missing or deleted
func loadThread(c *gin.Context, db *gorm.DB) (*domain.ForumThread, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	var thread domain.ForumThread
	if err := db.Preload("Author").Preload("Category").First(&thread, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
			return nil, false
		}
		serverError(c, "Failed to fetch thread", err, logrus.Fields{"thread_id": id})
		return nil, false
	}
	return &thread, true
}

// threadVisible hides pending and rejected threads from everyone but their author and admins
func threadVisible(thread *domain.ForumThread, user *domain.User) bool {
	if thread.IsDeleted {
		return false
	}
	return thread.Status == domain.ThreadApproved || (user != nil && (user.ID == thread.AuthorID || user.IsAdmin()))
}

// GetThreadHandler returns a thread with its replies and counts the view
func GetThreadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		thread, ok := loadThread(c, db)
		if !ok {
			return
		}
		if !threadVisible(thread, middleware.CurrentUser(c)) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
			return
		}
		if err := db.Model(&domain.ForumThread{}).Where("id = ?", thread.ID).
			UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
			logrus.WithError(err).WithField("thread_id", thread.ID).Warn("Failed to count view")
		} else {
			thread.Views++
		}
		var replies []domain.ForumReply
		if err := db.Preload("Author").Where("thread_id = ? AND is_deleted = ?", thread.ID, false).
			Order("created_at asc, id asc").Find(&replies).Error; err != nil {
			serverError(c, "Failed to fetch replies", err, logrus.Fields{"thread_id": thread.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"thread": thread, "replies": replies})
	}
}

// ListRepliesHandler pages through the replies of a thread
func ListRepliesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		thread, ok := loadThread(c, db)
		if !ok {
			return
		}
		if !threadVisible(thread, middleware.CurrentUser(c)) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
			return
		}
		p := utils.ParsePage(c, "limit", 50)
		query := db.Model(&domain.ForumReply{}).Where("thread_id = ? AND is_deleted = ?", thread.ID, false)
		var total int64
		if err := query.Count(&total).Error; err != nil {
			serverError(c, "Failed to count replies", err, logrus.Fields{"thread_id": thread.ID})
			return
		}
		var replies []domain.ForumReply
		if err := query.Preload("Author").Order("created_at asc, id asc").
			Offset(p.Offset()).Limit(p.PageSize).Find(&replies).Error; err != nil {
			serverError(c, "Failed to fetch replies", err, logrus.Fields{"thread_id": thread.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"replies": replies,
			"pagination": Pagination{Page: p.Page, Limit: p.PageSize, Total: total, Pages: p.TotalPages(total)},
		})
	}
}

// ThreadRequest is a new thread
type ThreadRequest struct {
	CategoryID uint     `json:"category_id" binding:"required"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Images     []string `json:"images"`
}

// checkAutoBan runs the posting rules and answers 403 when the author got banned
func checkAutoBan(c *gin.Context, d *Deps, user *domain.User, text string) bool {
	if d.AutoBan == nil {
		return true
	}
	banned, err := d.AutoBan.CheckPost(user, text)
	if err != nil {
		serverError(c, "Failed to check content", err, logrus.Fields{"user_id": user.ID})
		return false
	}
	if banned {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account banned", "reason": "Your account has been automatically banned"})
		return false
	}
	return true
}

// CreateThreadHandler opens a new thread
func CreateThreadHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		var req ThreadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := utils.ValidateTitle(req.Title); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := utils.ValidateContent(req.Content); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		images, err := utils.CleanImages(req.Images)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var category domain.ForumCategory
		if err := d.DB.Where("id = ? AND is_active = ?", req.CategoryID, true).First(&category).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
			return
		}
		if !checkAutoBan(c, d, user, req.Title+"\n"+req.Content) {
			return
		}
		thread := domain.ForumThread{
			CategoryID: category.ID,
			AuthorID:   user.ID,
			Title:      utils.SanitizeText(req.Title),
			Content:    utils.SanitizeRichText(req.Content),
			Images:     images,
			Status:     domain.ThreadApproved,
		}
		if thread.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ErrTitleRequired.Error()})
			return
		}
		var xp *rewards.XPResult
		err = d.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&thread).Error; err != nil {
				return err
			}
			var err error
			xp, err = rewards.AwardXP(tx, user.ID, rewards.ActivityCreateThread, "thread:"+idString(thread.ID))
			return err
		})
		if err != nil {
			serverError(c, "Failed to create thread", err, logrus.Fields{"user_id": user.ID})
			return
		}
		logrus.WithFields(logrus.Fields{"thread_id": thread.ID, "user_id": user.ID}).Info("Thread created")
		if d.Notifier != nil {
			d.Notifier.XP(user.ID, xp)
		}
		thread.Author, thread.Category = user.AsAuthor(), &category
		c.JSON(http.StatusCreated, gin.H{"thread": thread, "xp": xp})
	}
}

// ReplyRequest is a new reply
type ReplyRequest struct {
	Content string `json:"content"`
}

// CreateReplyHandler answers a thread
func CreateReplyHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		thread, ok := loadThread(c, d.DB)
		if !ok {
			return
		}
		if thread.IsDeleted {
			c.JSON(http.StatusGone, gin.H{"error": "Thread has been deleted"})
			return
		}
		user := middleware.CurrentUser(c)
		// Unapproved threads take no replies except from their author or an admin
		if !threadVisible(thread, user) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
			return
		}
		if thread.IsLocked {
			c.JSON(http.StatusForbidden, gin.H{"error": "Thread is locked"})
			return
		}
		var req ReplyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := utils.ValidateReply(req.Content); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !checkAutoBan(c, d, user, req.Content) {
			return
		}
		reply := domain.ForumReply{ThreadID: thread.ID, AuthorID: user.ID, Content: utils.SanitizeRichText(req.Content)}
		if reply.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ErrReplyRequired.Error()})
			return
		}
		var xp *rewards.XPResult
		err := d.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&reply).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.ForumThread{}).Where("id = ?", thread.ID).Updates(map[string]any{
				"replies_count": gorm.Expr("replies_count + 1"),
				"updated_at":    d.now(),
			}).Error; err != nil {
				return err
			}
			var err error
			xp, err = rewards.AwardXP(tx, user.ID, rewards.ActivityCreateReply, "reply:"+idString(reply.ID))
			return err
		})
		if err != nil {
			serverError(c, "Failed to create reply", err, logrus.Fields{"thread_id": thread.ID, "user_id": user.ID})
			return
		}
		if d.Notifier != nil {
			d.Notifier.XP(user.ID, xp)
			if thread.AuthorID != user.ID {
				d.Notifier.Send(thread.AuthorID, domain.NotifyReply, "New reply",
					user.Username+" replied to "+thread.Title, "/forum/thread/"+idString(thread.ID))
			}
		}
		reply.Author = user.AsAuthor()
		c.JSON(http.StatusCreated, gin.H{"reply": reply, "xp": xp})
	}
}

// SearchThreadsHandler finds approved threads by title or content
func SearchThreadsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Query("q")
		if len([]rune(q)) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Search query must be at least 2 characters"})
			return
		}
		pattern := likePattern(q)
		var threads []domain.ForumThread
		if err := db.Preload("Author").
			Where("status = ? AND is_deleted = ?", domain.ThreadApproved, false).
			Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern).
			Order("created_at desc, id desc").Limit(utils.QueryLimit(c, 20, 50)).
			Find(&threads).Error; err != nil {
			serverError(c, "Search failed", err, nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"threads": threads})
	}
}
