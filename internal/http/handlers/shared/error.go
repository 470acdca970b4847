package shared

import (
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/i18n"
	"github.com/campusdash/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString("request_id"); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// Respond 按请求语言翻译文案后输出错误信封；原始错误只进日志
func Respond(c *gin.Context, appErr *response.AppError) {
	msg := i18n.Sprintf(i18n.ResolveLocale(c), appErr.Key, appErr.Args...)
	if appErr.Err != nil {
		log := RequestLog(c).With("code", appErr.Code, "key", appErr.Key, "error", appErr.Err)
		if appErr.Code >= response.CodeInternal {
			log.Errorw("handler_error")
		} else {
			log.Warnw("handler_rejected")
		}
	}
	if appErr.Data != nil {
		response.ErrorWithData(c, appErr.Code, msg, appErr.Data)
		return
	}
	response.Error(c, appErr.Code, msg)
}

// RespondError 返回国际化错误响应
func RespondError(c *gin.Context, code int, key string, err error) {
	Respond(c, response.NewAppError(code, key, err))
}

// RespondErrorWithData 返回带附加数据的国际化错误响应
func RespondErrorWithData(c *gin.Context, code int, key string, data interface{}, err error) {
	Respond(c, response.NewAppError(code, key, err).WithData(data))
}
