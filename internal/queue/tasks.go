package queue

import (
	"encoding/json"

	"github.com/campusdash/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationBroadcast 群发分批任务
	TaskNotificationBroadcast = constants.TaskNotificationBroadcast
	// TaskPaymentReconcile 支付对账任务
	TaskPaymentReconcile = constants.TaskPaymentReconcile
)

// BroadcastBatchPayload 群发批次载荷：从 AfterUserID 之后取下一页用户
type BroadcastBatchPayload struct {
	BroadcastID uint `json:"broadcast_id"`
	AfterUserID uint `json:"after_user_id"`
}

// PaymentReconcilePayload 支付对账载荷
type PaymentReconcilePayload struct {
	TxRef   string `json:"tx_ref"`
	Attempt int    `json:"attempt"`
}

// NewBroadcastBatchTask 创建群发批次任务
func NewBroadcastBatchTask(payload BroadcastBatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationBroadcast, body), nil
}

// NewPaymentReconcileTask 创建支付对账任务
func NewPaymentReconcileTask(payload PaymentReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentReconcile, body), nil
}

// ParseBroadcastBatchPayload 解析群发批次载荷
func ParseBroadcastBatchPayload(task *asynq.Task) (BroadcastBatchPayload, error) {
	var payload BroadcastBatchPayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}

// ParsePaymentReconcilePayload 解析支付对账载荷
func ParsePaymentReconcilePayload(task *asynq.Task) (PaymentReconcilePayload, error) {
	var payload PaymentReconcilePayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
