package admin

import (
	"strings"

	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 后台订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := pageParams(c)

	userID, err := parseQueryUint(c, "user_id")
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

	orders, total, err := h.OrderService.ListAdmin(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Status:      strings.TrimSpace(c.Query("status")),
		OrderCode:   strings.TrimSpace(c.Query("order_code")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.Page(c, orders, page, pageSize, total)
}

// AdminGetOrder 后台订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.OrderService.GetAdmin(id)
	if err != nil {
		respondWithMappedError(c, err, deliveryAdminErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, detail)
}
