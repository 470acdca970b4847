package admin

import (
	"errors"

	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	if handlershared.RespondTypedError(c, err) {
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var paymentReviewErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, key: "error.payment_not_found"},
	{target: service.ErrPaymentStatusInvalid, code: response.CodeConflict, key: "error.payment_status_invalid"},
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, key: "error.payment_invalid"},
	{target: service.ErrEmptyCart, code: response.CodeUnprocessable, key: "error.empty_cart"},
	{target: service.ErrOutsideDeliveryZone, code: response.CodeUnprocessable, key: "error.outside_delivery_zone"},
	{target: service.ErrInvalidCoordinates, code: response.CodeBadRequest, key: "error.coordinates_invalid"},
	{target: service.ErrProductNotAvailable, code: response.CodeUnprocessable, key: "error.product_not_available"},
	{target: service.ErrInsufficientStock, code: response.CodeConflict, key: "error.insufficient_stock"},
	{target: service.ErrAmountMismatch, code: response.CodeConflict, key: "error.amount_mismatch"},
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
}

var deliveryAdminErrorRules = []mappedHandlerError{
	{target: service.ErrDeliveryNotFound, code: response.CodeNotFound, key: "error.delivery_not_found"},
	{target: service.ErrDeliveryStatus, code: response.CodeConflict, key: "error.delivery_status_invalid"},
	{target: service.ErrDeliveryPerson, code: response.CodeBadRequest, key: "error.delivery_person_invalid"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
}

var catalogErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrProductSlugExists, code: response.CodeConflict, key: "error.product_slug_exists"},
	{target: service.ErrLocationNotFound, code: response.CodeNotFound, key: "error.location_not_found"},
	{target: service.ErrLocationInvalid, code: response.CodeBadRequest, key: "error.location_invalid"},
	{target: service.ErrUploadTooLarge, code: response.CodeBadRequest, key: "error.upload_too_large"},
	{target: service.ErrUploadInvalid, code: response.CodeBadRequest, key: "error.upload_invalid"},
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
}

var notificationAdminErrorRules = []mappedHandlerError{
	{target: service.ErrQueueUnavailable, code: response.CodeServiceUnavailable, key: "error.queue_unavailable"},
	{target: service.ErrBroadcastNotFound, code: response.CodeNotFound, key: "error.broadcast_not_found"},
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
}

var userAdminErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound, key: "error.user_not_found"},
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
}
