package public

import (
	"errors"
	"strconv"

	"github.com/assem2023-habib/shehrezad/internal/http/response"
	"github.com/assem2023-habib/shehrezad/internal/service"

	"github.com/gin-gonic/gin"
)

// ListMyNotifications 查询自己的通知
func (h *Handler) ListMyNotifications(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	notifications, err := h.NotificationService.ListForUser(uid, limit)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to list notifications", err)
		return
	}
	response.Success(c, gin.H{"notifications": notifications})
}

// MarkNotificationRead 标记通知已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	notificationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.NotificationService.MarkRead(uid, notificationID); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			respondError(c, response.CodeNotFound, "notification not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to mark notification read", err)
		return
	}
	response.Success(c, gin.H{"read": true})
}
