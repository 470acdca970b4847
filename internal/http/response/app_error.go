package response

import "fmt"

// AppError 接口层错误：业务码、文案键与可选明细
type AppError struct {
	Code int
	Key  string
	Args []interface{}
	Data interface{}
	Err  error
}

// NewAppError 创建接口层错误，err 仅用于日志
func NewAppError(code int, key string, err error) *AppError {
	return &AppError{Code: code, Key: key, Err: err}
}

// WithData 附带响应明细
func (e *AppError) WithData(data interface{}) *AppError {
	e.Data = data
	return e
}

// WithArgs 附带文案格式化参数
func (e *AppError) WithArgs(args ...interface{}) *AppError {
	e.Args = args
	return e
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d %s", e.Code, e.Key)
	}
	return fmt.Sprintf("%d %s: %v", e.Code, e.Key, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
