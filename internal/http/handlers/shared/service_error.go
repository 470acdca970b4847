package shared

import (
	"errors"

	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
)

// RespondTypedError 处理携带明细的业务错误，已处理返回 true
func RespondTypedError(c *gin.Context, err error) bool {
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		RespondValidationError(c, validation)
		return true
	}
	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		RespondErrorWithData(c, response.CodeConflict, "error.insufficient_stock", gin.H{"items": stockErr.Items}, nil)
		return true
	}
	var amountErr *service.AmountMismatchError
	if errors.As(err, &amountErr) {
		RespondErrorWithData(c, response.CodeConflict, "error.amount_mismatch", gin.H{
			"expected":  amountErr.Expected,
			"submitted": amountErr.Submitted,
		}, nil)
		return true
	}
	var policyErr interface {
		Key() string
		Args() []interface{}
	}
	if errors.As(err, &policyErr) && errors.Is(err, service.ErrWeakPassword) {
		Respond(c, response.NewAppError(response.CodeBadRequest, policyErr.Key(), nil).WithArgs(policyErr.Args()...))
		return true
	}
	if errors.Is(err, service.ErrIntegrityViolation) {
		// 完整上下文只进日志，响应只给通用信息
		RespondError(c, response.CodeInternal, "error.internal", err)
		return true
	}
	return false
}
