package constants

// 订单状态常量
const (
	OrderStatusPending         = "pending"
	OrderStatusPendingDelivery = "pending_delivery"
	OrderStatusDelivered       = "delivered"
)

// 订单编号前缀
const OrderCodePrefix = "ORD"

// 支付状态常量
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// 支付方式常量
const (
	PaymentProviderMobileMoney = "mobile_money"
	PaymentProviderManual      = "manual"
)

// 下单触发来源
const (
	PlacementTriggerAdminApprove    = "admin_approve"
	PlacementTriggerGatewayCallback = "gateway_callback"
	PlacementTriggerStatusPoll      = "status_poll"
	PlacementTriggerReconcile       = "reconcile"
	PlacementTriggerCheckout        = "checkout"
)

// 配送状态常量
const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusAssigned  = "assigned"
	DeliveryStatusCompleted = "completed"
	DeliveryStatusFailed    = "failed"
)

// 配送日志事件
const (
	DeliveryEventCreated           = "created"
	DeliveryEventAssigned          = "assigned"
	DeliveryEventChallengeVerified = "challenge_verified"
	DeliveryEventCodeVerified      = "code_verified"
	DeliveryEventFailed            = "failed"
)

// 用户角色与状态
const (
	UserRoleCustomer = "customer"
	UserRoleDelivery = "delivery"

	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 站内通知类型
const (
	NotificationTypeOrderPlaced       = "order_placed"
	NotificationTypeDeliveryAssigned  = "delivery_assigned"
	NotificationTypeDeliveryTask      = "delivery_task"
	NotificationTypeDeliveryCompleted = "delivery_completed"
	NotificationTypeDeliveryFailed    = "delivery_failed"
	NotificationTypePaymentFailed     = "payment_failed"
	NotificationTypeBroadcast         = "broadcast"
)

// 群发任务状态
const (
	BroadcastStatusQueued    = "queued"
	BroadcastStatusRunning   = "running"
	BroadcastStatusCompleted = "completed"
)

// 队列常量
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"

	TaskNotificationBroadcast = "notification:broadcast_batch"
	TaskPaymentReconcile      = "payment:reconcile"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "cd"
)

// 币种常量
const (
	CurrencyDefault = "MWK"
)

// 站点语言常量
const (
	LocaleEnUS = "en-US"
	LocaleZhCN = "zh-CN"
)

// SupportedLocales 支持的语言（首个为默认语言）
var SupportedLocales = []string{LocaleEnUS, LocaleZhCN}
