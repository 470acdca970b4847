package admin

import (
	"strings"

	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminListDeliveries 配送列表
func (h *Handler) AdminListDeliveries(c *gin.Context) {
	page, pageSize := pageParams(c)
	personID, err := parseQueryUint(c, "delivery_person_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	deliveries, total, err := h.DeliveryService.List(repository.DeliveryListFilter{
		Page:             page,
		PageSize:         pageSize,
		Status:           strings.TrimSpace(c.Query("status")),
		DeliveryPersonID: personID,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.delivery_fetch_failed", err)
		return
	}
	response.Page(c, deliveries, page, pageSize, total)
}

// AdminGetDelivery 配送详情（含流转日志）
func (h *Handler) AdminGetDelivery(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.DeliveryService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, deliveryAdminErrorRules, response.CodeInternal, "error.delivery_fetch_failed")
		return
	}
	response.Success(c, detail)
}

// AssignDeliveryRequest 指派请求
type AssignDeliveryRequest struct {
	DeliveryPersonID uint `json:"delivery_person_id" binding:"required"`
}

// AssignDelivery 指派配送员
func (h *Handler) AssignDelivery(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AssignDeliveryRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	delivery, err := h.DeliveryService.Assign(c.Request.Context(), id, req.DeliveryPersonID, adminID)
	if err != nil {
		respondWithMappedError(c, err, deliveryAdminErrorRules, response.CodeInternal, "error.delivery_assign_failed")
		return
	}
	response.Success(c, delivery)
}

// FailDeliveryRequest 配送失败请求
type FailDeliveryRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// FailDelivery 标记配送失败
func (h *Handler) FailDelivery(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req FailDeliveryRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	delivery, err := h.DeliveryService.MarkFailed(c.Request.Context(), id, adminID, req.Reason)
	if err != nil {
		respondWithMappedError(c, err, deliveryAdminErrorRules, response.CodeInternal, "error.delivery_update_failed")
		return
	}
	response.Success(c, delivery)
}
