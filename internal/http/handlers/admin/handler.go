package admin

import "github.com/campusdash/internal/provider"

// Handler 管理端接口：商品、区域、订单、支付审核、配送调度与权限
type Handler struct {
	*provider.Container
}

func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
