package public

import (
	handlershared "github.com/campusdash/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.RequireContextID(c, handlershared.ContextUserID)
}

func pageParams(c *gin.Context) (int, int) {
	return handlershared.PageParams(c)
}
