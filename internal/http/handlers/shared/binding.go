package shared

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerTagNameOnce sync.Once

// RegisterValidatorTagNames 让校验错误使用 json/form 标签中的字段名
func RegisterValidatorTagNames() {
	registerTagNameOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		engine.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return field.Name
		})
	})
}

// BindJSON 绑定 JSON 请求体，失败时直接写出校验错误
func BindJSON(c *gin.Context, req interface{}) bool {
	return handleBindError(c, c.ShouldBindJSON(req))
}

// Bind 按 Content-Type 绑定（multipart/form 等）
func Bind(c *gin.Context, req interface{}) bool {
	return handleBindError(c, c.ShouldBind(req))
}

func handleBindError(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	if validation := ValidationErrorFromBinding(err); validation != nil {
		RespondValidationError(c, validation)
		return false
	}
	RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
	RequestLog(c).Debugw("request_bind_failed", "error", err)
	return false
}

// ValidationErrorFromBinding 将 validator 错误转为字段级校验错误
func ValidationErrorFromBinding(err error) *service.ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	fields := make([]service.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, service.FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return &service.ValidationError{Fields: fields}
}

// RespondValidationError 输出 400 与字段明细
func RespondValidationError(c *gin.Context, validation *service.ValidationError) {
	fields := validation.Fields
	if fields == nil {
		fields = []service.FieldError{}
	}
	RespondErrorWithData(c, response.CodeBadRequest, "error.validation_failed", gin.H{"fields": fields}, nil)
}
