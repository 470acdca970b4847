package public

import (
	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
)

// VerifyDeliveryRequest 签收核验请求：订单号 + 下单手机号
type VerifyDeliveryRequest struct {
	OrderCode string `json:"order_code" binding:"required,max=32"`
	Phone     string `json:"phone" binding:"required,max=32"`
	handlershared.CaptchaPayloadRequest
}

// VerifyDelivery 手机号挑战签收
func (h *Handler) VerifyDelivery(c *gin.Context) {
	var req VerifyDeliveryRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	if h.CaptchaService != nil {
		if err := h.CaptchaService.Verify(service.CaptchaSceneDeliveryVerify, req.ToServicePayload()); err != nil {
			respondDeliveryError(c, err)
			return
		}
	}

	order, err := h.DeliveryService.VerifyByChallenge(c.Request.Context(), req.OrderCode, req.Phone)
	if err != nil {
		respondDeliveryError(c, err)
		return
	}
	response.Success(c, gin.H{
		"order_code": order.OrderCode,
		"status":     order.Status,
	})
}

// ListAssignedDeliveries 配送员查看指派给自己的配送
func (h *Handler) ListAssignedDeliveries(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, pageSize := pageParams(c)

	deliveries, total, err := h.DeliveryService.ListAssigned(uid, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.delivery_fetch_failed", err)
		return
	}
	response.Page(c, deliveries, page, pageSize, total)
}

// ConfirmDeliveryRequest 配送员凭一次性签收码确认
type ConfirmDeliveryRequest struct {
	OrderCode        string `json:"order_code" binding:"required,max=32"`
	VerificationCode string `json:"verification_code" binding:"required,max=16"`
}

// ConfirmDelivery 配送员签收确认
func (h *Handler) ConfirmDelivery(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req ConfirmDeliveryRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	order, err := h.DeliveryService.VerifyByCode(c.Request.Context(), uid, req.OrderCode, req.VerificationCode)
	if err != nil {
		respondDeliveryError(c, err)
		return
	}
	response.Success(c, gin.H{
		"order_code": order.OrderCode,
		"status":     order.Status,
	})
}
