package shared

import (
	"github.com/campusdash/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文键
const (
	ContextAdminID = "admin_id"
	ContextUserID  = "user_id"
)

// RequireContextID 读取鉴权主体 ID，缺失时直接返回未登录
func RequireContextID(c *gin.Context, key string) (uint, bool) {
	id := c.GetUint(key)
	if id == 0 {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	return id, true
}
