package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/campusdash/internal/models"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserDisabled         = errors.New("user disabled")
	ErrEmailExists          = errors.New("email already registered")
	ErrWeakPassword         = errors.New("password does not meet policy")
	ErrQueueUnavailable     = errors.New("task queue unavailable")
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrUploadInvalid        = errors.New("upload invalid")
	ErrUploadTooLarge       = errors.New("upload too large")
	ErrProductNotFound      = errors.New("product not found")
	ErrProductNotAvailable  = errors.New("product not available")
	ErrProductSlugExists    = errors.New("product slug already exists")
	ErrLocationNotFound     = errors.New("location not found")
	ErrLocationInvalid      = errors.New("location geometry invalid")
	ErrInvalidCartItem      = errors.New("invalid cart item")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrOutsideDeliveryZone  = errors.New("outside delivery zone")
	ErrInvalidCoordinates   = errors.New("invalid coordinates")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrAmountMismatch       = errors.New("amount mismatch")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentInvalid       = errors.New("payment invalid")
	ErrPaymentStatusInvalid = errors.New("payment status invalid")
	ErrNetworkNotSupported  = errors.New("mobile network not supported")
	ErrSignatureInvalid     = errors.New("callback signature invalid")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrGatewayRejected      = errors.New("payment gateway rejected the charge")
	ErrIntegrityViolation   = errors.New("integrity violation")
	ErrOrderNotFound        = errors.New("order not found")
	ErrDeliveryNotFound     = errors.New("delivery not found")
	ErrDeliveryStatus       = errors.New("delivery status invalid")
	ErrDeliveryPerson       = errors.New("delivery person invalid")
	ErrChallengeFailed      = errors.New("delivery challenge failed")
	ErrVerificationCode     = errors.New("verification code invalid")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrBroadcastNotFound    = errors.New("broadcast not found")
)

// FieldError 单个字段的校验错误
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// ValidationError 字段级校验错误
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+":"+f.Rule)
	}
	return "validation failed: " + strings.Join(parts, ",")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError 构造单字段校验错误
func NewValidationError(field, rule string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: rule}}}
}

// InsufficientStockError 库存不足，列出全部短缺商品
type InsufficientStockError struct {
	Items []models.StockShortageLine
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		parts = append(parts, fmt.Sprintf("product %d available %d requested %d", item.ProductID, item.Available, item.Requested))
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// AmountMismatchError 支付金额与快照核算金额不一致
type AmountMismatchError struct {
	Expected  models.Money
	Submitted models.Money
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s submitted %s", ErrAmountMismatch.Error(), e.Expected.StringFixed(2), e.Submitted.StringFixed(2))
}

func (e *AmountMismatchError) Unwrap() error {
	return ErrAmountMismatch
}
