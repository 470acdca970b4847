package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// LocationListFilter 查询配送区域列表的过滤条件
type LocationListFilter struct {
	Page       int
	PageSize   int
	OnlyActive bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderCode   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PaymentListFilter 查询支付列表的过滤条件
type PaymentListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Provider    string
	Status      string
	TxRef       string
	OrderCode   string
	Flagged     bool // 仅返回带对账记录的支付
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// DeliveryListFilter 查询配送列表的过滤条件
type DeliveryListFilter struct {
	Page             int
	PageSize         int
	Status           string
	DeliveryPersonID uint
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Role     string
	Status   string
	Search   string
}

// NotificationListFilter 查询通知列表的过滤条件
type NotificationListFilter struct {
	Page       int
	PageSize   int
	UserID     uint
	UnreadOnly bool
}

// AuthzAuditLogListFilter 权限审计日志过滤条件
type AuthzAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	TargetType      string
	TargetID        uint
	Action          string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}
