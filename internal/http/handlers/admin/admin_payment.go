package admin

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"

	"github.com/gin-gonic/gin"
)

const adminPaymentExportBatchSize = 500

// GetAdminPayments 获取支付记录列表
func (h *Handler) GetAdminPayments(c *gin.Context) {
	page, pageSize := pageParams(c)

	filter, err := buildAdminPaymentFilter(c, page, pageSize)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	payments, total, err := h.PaymentService.ListAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.payment_fetch_failed", err)
		return
	}
	response.Page(c, payments, page, pageSize, total)
}

// ExportAdminPayments 导出对账 CSV
func (h *Handler) ExportAdminPayments(c *gin.Context) {
	filter, err := buildAdminPaymentFilter(c, 1, adminPaymentExportBatchSize)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	payments, _, err := h.PaymentService.ListAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.payment_fetch_failed", err)
		return
	}

	filename := fmt.Sprintf("payments_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write([]string{
		"id",
		"tx_ref",
		"user_id",
		"provider",
		"network",
		"mobile",
		"status",
		"amount",
		"currency",
		"order_code",
		"notes",
		"created_at",
		"paid_at",
		"failed_at",
		"provider_ref",
	}); err != nil {
		requestLog(c).Errorw("admin_payment_export_header_write_failed", "error", err)
		return
	}

	page := 1
	for {
		if len(payments) > 0 {
			if err := writeAdminPaymentCSVRows(writer, payments); err != nil {
				requestLog(c).Errorw("admin_payment_export_rows_write_failed", "page", page, "error", err)
				return
			}
			writer.Flush()
			if err := writer.Error(); err != nil {
				requestLog(c).Errorw("admin_payment_export_flush_failed", "page", page, "error", err)
				return
			}
		}
		if len(payments) < adminPaymentExportBatchSize {
			break
		}
		page++
		filter.Page = page
		payments, _, err = h.PaymentService.ListAdmin(filter)
		if err != nil {
			requestLog(c).Errorw("admin_payment_export_batch_fetch_failed", "page", page, "error", err)
			return
		}
	}
}

// GetAdminPayment 获取支付详情（含关联订单）
func (h *Handler) GetAdminPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.PaymentService.GetAdmin(id)
	if err != nil {
		respondWithMappedError(c, err, paymentReviewErrorRules, response.CodeInternal, "error.payment_fetch_failed")
		return
	}
	response.Success(c, result)
}

// ApproveAdminPayment 审核通过人工凭证并下单
func (h *Handler) ApproveAdminPayment(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.PaymentService.Approve(c.Request.Context(), adminID, id)
	if err != nil {
		respondWithMappedError(c, err, paymentReviewErrorRules, response.CodeInternal, "error.payment_approve_failed")
		return
	}
	response.Success(c, result)
}

// RejectPaymentRequest 驳回请求
type RejectPaymentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RejectAdminPayment 驳回付款凭证
func (h *Handler) RejectAdminPayment(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RejectPaymentRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	payment, err := h.PaymentService.Reject(c.Request.Context(), adminID, id, req.Reason)
	if err != nil {
		respondWithMappedError(c, err, paymentReviewErrorRules, response.CodeInternal, "error.payment_reject_failed")
		return
	}
	response.Success(c, payment)
}

func buildAdminPaymentFilter(c *gin.Context, page, pageSize int) (repository.PaymentListFilter, error) {
	userID, err := parseQueryUint(c, "user_id")
	if err != nil {
		return repository.PaymentListFilter{}, err
	}

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		return repository.PaymentListFilter{}, err
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		return repository.PaymentListFilter{}, err
	}
	flagged, _ := strconv.ParseBool(strings.TrimSpace(c.DefaultQuery("flagged", "false")))

	return repository.PaymentListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Provider:    strings.TrimSpace(c.Query("provider")),
		Status:      strings.TrimSpace(c.Query("status")),
		TxRef:       strings.TrimSpace(c.Query("tx_ref")),
		OrderCode:   strings.TrimSpace(c.Query("order_code")),
		Flagged:     flagged,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}, nil
}

func writeAdminPaymentCSVRows(writer *csv.Writer, payments []models.Payment) error {
	for _, payment := range payments {
		meta := payment.MetaData()
		kinds := make([]string, 0, len(meta.Notes))
		for _, note := range meta.Notes {
			kinds = append(kinds, note.Kind)
		}
		providerRef := ""
		if payment.ProviderRef != nil {
			providerRef = *payment.ProviderRef
		}
		if err := writer.Write([]string{
			strconv.FormatUint(uint64(payment.ID), 10),
			payment.TxRef,
			strconv.FormatUint(uint64(payment.UserID), 10),
			payment.Provider,
			payment.Network,
			payment.Mobile,
			payment.Status,
			payment.Amount.String(),
			payment.Currency,
			meta.OrderCode,
			strings.Join(kinds, "|"),
			payment.CreatedAt.Format(time.RFC3339),
			formatTimeNullable(payment.PaidAt),
			formatTimeNullable(payment.FailedAt),
			providerRef,
		}); err != nil {
			return err
		}
	}
	return nil
}
