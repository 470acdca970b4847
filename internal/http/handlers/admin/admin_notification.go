package admin

import (
	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
)

// BroadcastRequest 群发请求
type BroadcastRequest struct {
	Title string `json:"title" binding:"required,max=120"`
	Body  string `json:"body" binding:"max=2000"`
}

// CreateBroadcast 创建群发任务，由队列分批投递
func (h *Handler) CreateBroadcast(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req BroadcastRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	broadcast, err := h.NotificationService.CreateBroadcast(c.Request.Context(), service.CreateBroadcastInput{
		AdminID: adminID,
		Title:   req.Title,
		Body:    req.Body,
	})
	if err != nil {
		respondWithMappedError(c, err, notificationAdminErrorRules, response.CodeInternal, "error.broadcast_create_failed")
		return
	}
	response.Success(c, broadcast)
}

// GetBroadcast 群发进度
func (h *Handler) GetBroadcast(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	broadcast, err := h.NotificationService.GetBroadcast(id)
	if err != nil {
		respondWithMappedError(c, err, notificationAdminErrorRules, response.CodeInternal, "error.broadcast_fetch_failed")
		return
	}
	response.Success(c, broadcast)
}
