package admin

import (
	"strings"

	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/repository"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminUsers 获取用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, pageSize := pageParams(c)
	users, total, err := h.UserAdminService.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Role:     strings.TrimSpace(c.Query("role")),
		Status:   strings.TrimSpace(c.Query("status")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	response.Page(c, users, page, pageSize, total)
}

// UpdateUserRoleRequest 角色变更请求
type UpdateUserRoleRequest struct {
	Role   string `json:"role" binding:"required,oneof=customer delivery"`
	Status string `json:"status" binding:"omitempty,oneof=active disabled"`
}

// UpdateUserRole 修改用户角色（如设为配送员）
func (h *Handler) UpdateUserRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRoleRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	user, err := h.UserAdminService.UpdateRole(c.Request.Context(), service.UpdateUserRoleInput{
		OperatorAdminID:  c.GetUint(handlershared.ContextAdminID),
		OperatorUsername: strings.TrimSpace(c.GetString("username")),
		UserID:           id,
		Role:             req.Role,
		Status:           req.Status,
		RequestID:        c.GetString("request_id"),
	})
	if err != nil {
		respondWithMappedError(c, err, userAdminErrorRules, response.CodeInternal, "error.user_update_failed")
		return
	}
	response.Success(c, user)
}
