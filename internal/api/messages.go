package api

import (
	"errors"   // Error comparison
	"net/http" // HTTP status codes
	"slices"   // Oldest first ordering
	"strconv"  // Query parsing

	"fivem_tools/internal/domain"     // Importing domain models
	"fivem_tools/internal/middleware" // Current user
	"fivem_tools/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// conversationScan caps how many recent messages are grouped into conversations
const conversationScan = 1000

// ConversationsHandler lists the partners the user has exchanged messages with, latest first
func ConversationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		var messages []domain.Message
		if err := db.Where("sender_id = ? OR receiver_id = ?", user.ID, user.ID).
			Order("created_at desc, id desc").Limit(conversationScan).Find(&messages).Error; err != nil {
			serverError(c, "Failed to fetch conversations", err, logrus.Fields{"user_id": user.ID})
			return
		}

		// Group by partner, the first message seen per partner is the latest one
		byPartner := map[uint]*domain.Conversation{}
		var order []uint
		for _, m := range messages {
			partner := m.SenderID
			if partner == user.ID {
				partner = m.ReceiverID
			}
			conv, seen := byPartner[partner]
			if !seen {
				conv = &domain.Conversation{LastMessage: m.Content, LastMessageAt: m.CreatedAt}
				byPartner[partner] = conv
				order = append(order, partner)
			}
			if m.ReceiverID == user.ID && !m.IsRead {
				conv.UnreadCount++
			}
		}
		if len(order) == 0 {
			c.JSON(http.StatusOK, gin.H{"conversations": []domain.Conversation{}})
			return
		}

		var partners []domain.Author
		if err := db.Where("id IN ?", order).Find(&partners).Error; err != nil {
			serverError(c, "Failed to fetch conversations", err, logrus.Fields{"user_id": user.ID})
			return
		}
		cards := make(map[uint]*domain.Author, len(partners))
		for i := range partners {
			cards[partners[i].ID] = &partners[i]
		}
		out := make([]domain.Conversation, 0, len(order))
		for _, id := range order {
			card, ok := cards[id]
			if !ok {
				continue // Partner account is gone
			}
			conv := byPartner[id]
			conv.Partner = card
			out = append(out, *conv)
		}
		c.JSON(http.StatusOK, gin.H{"conversations": out})
	}
}

// ListMessagesHandler returns the latest messages exchanged with ?user_id, oldest first
func ListMessagesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		otherID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
		if err != nil || otherID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user_id parameter"})
			return
		}
		var messages []domain.Message
		if err := db.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			user.ID, otherID, otherID, user.ID).
			Order("created_at desc, id desc").Limit(utils.QueryLimit(c, 100, 200)).
			Find(&messages).Error; err != nil {
			serverError(c, "Failed to fetch messages", err, logrus.Fields{"user_id": user.ID})
			return
		}
		slices.Reverse(messages)
		c.JSON(http.StatusOK, gin.H{"messages": messages})
	}
}

// MessageRequest is a new direct message
type MessageRequest struct {
	ReceiverID uint   `json:"receiver_id" binding:"required"`
	Content    string `json:"content" binding:"required,max=2000"`
}

// SendMessageHandler delivers a direct message and notifies the receiver
func SendMessageHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		var req MessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}
		content := utils.SanitizeText(req.Content)
		if content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
			return
		}
		if req.ReceiverID == user.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot message yourself"})
			return
		}
		var receiver domain.User
		if err := d.DB.Select("id").First(&receiver, req.ReceiverID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			serverError(c, "Failed to fetch user", err, logrus.Fields{"receiver_id": req.ReceiverID})
			return
		}
		if !checkAutoBan(c, d, user, content) {
			return
		}
		msg := domain.Message{SenderID: user.ID, ReceiverID: receiver.ID, Content: content}
		if err := d.DB.Create(&msg).Error; err != nil {
			serverError(c, "Failed to send message", err, logrus.Fields{"user_id": user.ID, "receiver_id": receiver.ID})
			return
		}
		if d.Notifier != nil {
			d.Notifier.Send(receiver.ID, domain.NotifyMessage, "New message",
				user.Username+" sent you a message: "+truncate(content, 50), "/messages?user="+idString(user.ID))
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "message": msg})
	}
}

// MarkMessagesReadRequest names the partner whose messages were read
type MarkMessagesReadRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// MarkMessagesReadHandler marks every message from a partner as read
func MarkMessagesReadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		var req MarkMessagesReadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		res := db.Model(&domain.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND is_read = ?", req.UserID, user.ID, false).
			Update("is_read", true)
		if res.Error != nil {
			serverError(c, "Failed to update messages", res.Error, logrus.Fields{"user_id": user.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "updated": res.RowsAffected})
	}
}
