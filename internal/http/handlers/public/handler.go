package public

import "github.com/campusdash/internal/provider"

// Handler 学生端与骑手端接口，支付回调也挂在这里
type Handler struct {
	*provider.Container
}

func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
