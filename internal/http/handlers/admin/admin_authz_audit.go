package admin

import (
	"strings"

	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuthzAuditLogs 获取权限审计日志列表（角色授予、用户角色变更）
func (h *Handler) ListAuthzAuditLogs(c *gin.Context) {
	page, pageSize := pageParams(c)

	operatorAdminID, err := parseQueryUint(c, "operator_admin_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	targetID, err := parseQueryUint(c, "target_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	items, total, err := h.AuthzAuditService.ListForAdmin(repository.AuthzAuditLogListFilter{
		Page:            page,
		PageSize:        pageSize,
		OperatorAdminID: operatorAdminID,
		TargetType:      strings.TrimSpace(c.Query("target_type")),
		TargetID:        targetID,
		Action:          strings.TrimSpace(c.Query("action")),
		CreatedFrom:     createdFrom,
		CreatedTo:       createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.authz_fetch_failed", err)
		return
	}
	response.Page(c, items, page, pageSize, total)
}
