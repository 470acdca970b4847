package public

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

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var commonErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
	{target: service.ErrUnauthorized, code: response.CodeUnauthorized, key: "error.unauthorized"},
	{target: service.ErrForbidden, code: response.CodeForbidden, key: "error.forbidden"},
}

var authErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, key: "error.login_invalid"},
	{target: service.ErrUserDisabled, code: response.CodeUnauthorized, key: "error.user_disabled"},
	{target: service.ErrEmailExists, code: response.CodeConflict, key: "error.email_exists"},
	{target: service.ErrNotFound, code: response.CodeNotFound, key: "error.user_not_found"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCartItem, code: response.CodeBadRequest, key: "error.cart_item_invalid"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrProductNotAvailable, code: response.CodeUnprocessable, key: "error.product_not_available"},
}

var zoneErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCoordinates, code: response.CodeBadRequest, key: "error.coordinates_invalid"},
	{target: service.ErrOutsideDeliveryZone, code: response.CodeUnprocessable, key: "error.outside_delivery_zone"},
	{target: service.ErrLocationNotFound, code: response.CodeNotFound, key: "error.location_not_found"},
}

var placementErrorRules = []mappedHandlerError{
	{target: service.ErrEmptyCart, code: response.CodeUnprocessable, key: "error.empty_cart"},
	{target: service.ErrInvalidCartItem, code: response.CodeBadRequest, key: "error.cart_item_invalid"},
	{target: service.ErrProductNotAvailable, code: response.CodeUnprocessable, key: "error.product_not_available"},
	{target: service.ErrInsufficientStock, code: response.CodeConflict, key: "error.insufficient_stock"},
	{target: service.ErrAmountMismatch, code: response.CodeConflict, key: "error.amount_mismatch"},
}

var paymentErrorRules = []mappedHandlerError{
	{target: service.ErrNetworkNotSupported, code: response.CodeBadRequest, key: "error.network_not_supported"},
	{target: service.ErrGatewayUnavailable, code: response.CodeServiceUnavailable, key: "error.gateway_unavailable"},
	{target: service.ErrGatewayRejected, code: response.CodeUnprocessable, key: "error.gateway_rejected"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, key: "error.payment_not_found"},
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, key: "error.payment_invalid"},
	{target: service.ErrPaymentStatusInvalid, code: response.CodeConflict, key: "error.payment_status_invalid"},
	{target: service.ErrUploadTooLarge, code: response.CodeBadRequest, key: "error.upload_too_large"},
	{target: service.ErrUploadInvalid, code: response.CodeBadRequest, key: "error.upload_invalid"},
}

var paymentCallbackErrorRules = []mappedHandlerError{
	{target: service.ErrSignatureInvalid, code: response.CodeUnauthorized, key: "error.signature_invalid"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, key: "error.payment_not_found"},
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, key: "error.payment_invalid"},
}

var deliveryErrorRules = []mappedHandlerError{
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, key: "error.captcha_required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, key: "error.captcha_invalid"},
	{target: service.ErrChallengeFailed, code: response.CodeForbidden, key: "error.challenge_failed"},
	{target: service.ErrVerificationCode, code: response.CodeForbidden, key: "error.verification_code_invalid"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrDeliveryNotFound, code: response.CodeNotFound, key: "error.delivery_not_found"},
	{target: service.ErrDeliveryStatus, code: response.CodeConflict, key: "error.delivery_status_invalid"},
}

func respondAuthError(c *gin.Context, err error, fallbackKey string) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(authErrorRules, commonErrorRules), response.CodeInternal, fallbackKey)
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(cartErrorRules, commonErrorRules), response.CodeInternal, "error.cart_update_failed")
}

func respondZoneError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(zoneErrorRules, commonErrorRules), response.CodeInternal, "error.zone_check_failed")
}

func respondPlacementError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(placementErrorRules, zoneErrorRules, commonErrorRules), response.CodeInternal, "error.order_create_failed")
}

func respondPaymentError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(paymentErrorRules, placementErrorRules, zoneErrorRules, commonErrorRules), response.CodeInternal, "error.payment_create_failed")
}

func respondPaymentCallbackError(c *gin.Context, err error) {
	respondWithMappedError(c, err, paymentCallbackErrorRules, response.CodeInternal, "error.payment_callback_failed")
}

func respondDeliveryError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(deliveryErrorRules, commonErrorRules), response.CodeInternal, "error.delivery_verify_failed")
}
