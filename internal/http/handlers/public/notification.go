package public

import (
	"strconv"

	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
)

// ListNotifications 我的站内通知
func (h *Handler) ListNotifications(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, pageSize := pageParams(c)
	unreadOnly := c.Query("unread") == "1" || c.Query("unread") == "true"

	items, total, err := h.NotificationService.List(uid, page, pageSize, unreadOnly)
	if err != nil {
		respondError(c, response.CodeInternal, "error.notification_fetch_failed", err)
		return
	}
	response.Page(c, items, page, pageSize, total)
}

// MarkNotificationRead 标记通知已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.NotificationService.MarkRead(uid, uint(id)); err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrNotificationNotFound, code: response.CodeNotFound, key: "error.notification_not_found"},
		}, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, gin.H{"read": true})
}
