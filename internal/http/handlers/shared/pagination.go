package shared

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageParams 读取 page / page_size 查询参数，非法值回落到默认分页
func PageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	return NormalizePagination(page, pageSize)
}

// NormalizePagination page 从 1 开始，page_size 上限 100
func NormalizePagination(page, pageSize int) (int, int) {
	page = max(page, 1)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return page, min(pageSize, maxPageSize)
}
