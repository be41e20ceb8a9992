package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

const notificationPageSize = 50

type NotificationHandler struct {
	db *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

func (h *NotificationHandler) List(c *gin.Context) {
	var out []models.Notification
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", currentUserID(c)).
		Order("created_at DESC, id DESC").
		Limit(notificationPageSize).
		Find(&out).Error; err != nil {

		httperr.Internal(c, "failed_to_list_notifications", "could not list notifications")
		return
	}

	c.JSON(http.StatusOK, out)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	var count int64
	if err := h.db.WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", currentUserID(c), false).
		Count(&count).Error; err != nil {

		httperr.Internal(c, "failed_to_count_notifications", "could not count notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead answers 404 for notifications of other users.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var n models.Notification
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", id, currentUserID(c)).
		First(&n).Error; err != nil {

		httperr.NotFound(c, "notification_not_found", "notification not found")
		return
	}

	n.IsRead = true
	if err := h.db.WithContext(c.Request.Context()).
		Model(&n).
		Update("is_read", true).Error; err != nil {

		httperr.Internal(c, "failed_to_update_notification", "could not update notification")
		return
	}

	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	res := h.db.WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", currentUserID(c), false).
		Update("is_read", true)
	if res.Error != nil {
		httperr.Internal(c, "failed_to_update_notification", "could not update notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": res.RowsAffected})
}
