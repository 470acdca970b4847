package service

import (
	"time"

	"github.com/campusdash/internal/queue"
)

// TaskEnqueuer 异步任务投递接口，由 *queue.Client 实现
type TaskEnqueuer interface {
	Enabled() bool
	EnqueueBroadcastBatch(payload queue.BroadcastBatchPayload) error
	EnqueuePaymentReconcile(payload queue.PaymentReconcilePayload, delay time.Duration) error
}

func queueEnabled(q TaskEnqueuer) bool {
	return q != nil && q.Enabled()
}
