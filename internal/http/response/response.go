package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope 所有接口统一以 HTTP 200 返回，业务结果看 status_code
type Envelope struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

func newPagination(page, pageSize int, total int64) *Pagination {
	p := &Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.TotalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return p
}

func write(c *gin.Context, env Envelope) {
	c.JSON(http.StatusOK, env)
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, Envelope{StatusCode: CodeOK, Msg: "success", Data: data})
}

// Page 分页成功响应
func Page(c *gin.Context, data interface{}, page, pageSize int, total int64) {
	write(c, Envelope{
		StatusCode: CodeOK,
		Msg:        "success",
		Data:       data,
		Pagination: newPagination(page, pageSize, total),
	})
}

// Error 错误响应，data 中附带 request_id 便于排查
func Error(c *gin.Context, code int, msg string) {
	ErrorWithData(c, code, msg, nil)
}

func ErrorWithData(c *gin.Context, code int, msg string, data interface{}) {
	write(c, Envelope{StatusCode: code, Msg: msg, Data: withRequestID(c, data)})
}

func withRequestID(c *gin.Context, data interface{}) interface{} {
	if c == nil {
		return data
	}
	requestID := c.GetString("request_id")
	if requestID == "" {
		return data
	}
	switch v := data.(type) {
	case nil:
		return gin.H{"request_id": requestID}
	case gin.H:
		return setDefault(v, "request_id", requestID)
	case map[string]interface{}:
		return setDefault(v, "request_id", requestID)
	default:
		return gin.H{"request_id": requestID, "data": data}
	}
}

func setDefault(m map[string]interface{}, key string, value interface{}) map[string]interface{} {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
	return m
}
