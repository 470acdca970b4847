package public

import (
	"io"
	"strings"

	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/payment/mobilemoney"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
)

const maxCallbackBodyBytes = 64 << 10

// InitiatePaymentRequest 发起移动支付请求
type InitiatePaymentRequest struct {
	DeliveryTargetRequest
	Amount  models.Money `json:"amount"`
	Mobile  string       `json:"mobile" binding:"required,min=7,max=32"`
	Network string       `json:"network" binding:"required,max=32"`
	Note    string       `json:"note" binding:"max=500"`
}

// InitiatePayment 冻结购物车并向网关发起扣款
func (h *Handler) InitiatePayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req InitiatePaymentRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	result, err := h.PaymentService.Initiate(c.Request.Context(), service.InitiatePaymentInput{
		UserID:     uid,
		Amount:     req.Amount,
		Mobile:     req.Mobile,
		Network:    req.Network,
		Lat:        *req.Latitude,
		Lng:        *req.Longitude,
		Address:    req.Address,
		LocationID: req.LocationID,
		Note:       req.Note,
	})
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.Success(c, result)
}

// GetPaymentStatus 查询支付状态，非终态时向网关核实
func (h *Handler) GetPaymentStatus(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	txRef := strings.TrimSpace(c.Query("tx_ref"))
	if txRef == "" {
		handlershared.RespondValidationError(c, service.NewValidationError("tx_ref", "required"))
		return
	}

	result, err := h.PaymentService.Status(c.Request.Context(), uid, txRef)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.Success(c, result)
}

// PaymentCallback 网关异步回调
func (h *Handler) PaymentCallback(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBodyBytes))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.PaymentService.HandleCallback(c.Request.Context(), body, c.GetHeader(mobilemoney.SignatureHeader))
	if err != nil {
		respondPaymentCallbackError(c, err)
		return
	}
	response.Success(c, gin.H{
		"tx_ref":            result.Payment.TxRef,
		"status":            result.Payment.Status,
		"already_processed": result.AlreadyProcessed,
	})
}

// UploadProofRequest 人工付款凭证请求（multipart）
type UploadProofRequest struct {
	DeliveryTargetRequest
	Amount  string `form:"amount" binding:"required"`
	Mobile  string `form:"mobile" binding:"required,min=7,max=32"`
	Network string `form:"network" binding:"required,max=32"`
	Note    string `form:"note" binding:"max=500"`
}

// UploadPaymentProof 上传付款截图，待后台审核
func (h *Handler) UploadPaymentProof(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req UploadProofRequest
	if !handlershared.Bind(c, &req) {
		return
	}
	amount, err := models.ParseMoney(req.Amount)
	if err != nil {
		handlershared.RespondValidationError(c, service.NewValidationError("amount", "decimal"))
		return
	}
	image, err := c.FormFile("image")
	if err != nil {
		handlershared.RespondValidationError(c, service.NewValidationError("image", "required"))
		return
	}

	payment, err := h.PaymentService.UploadProof(c.Request.Context(), service.UploadProofInput{
		UserID:        uid,
		Image:         image,
		ClaimedAmount: amount,
		Mobile:        req.Mobile,
		Network:       req.Network,
		Note:          req.Note,
		Lat:           *req.Latitude,
		Lng:           *req.Longitude,
		Address:       req.Address,
		LocationID:    req.LocationID,
	})
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.Success(c, payment)
}
