package worker

import (
	"context"
	"errors"

	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/provider"
	"github.com/campusdash/internal/queue"
	"github.com/campusdash/internal/service"

	"github.com/hibiken/asynq"
)

// BroadcastProcessor 群发批次处理
type BroadcastProcessor interface {
	ProcessBroadcastBatch(ctx context.Context, payload queue.BroadcastBatchPayload) error
}

// PaymentReconciler 支付对账
type PaymentReconciler interface {
	ReconcilePending(ctx context.Context, payload queue.PaymentReconcilePayload) error
	ReconcileStalePayments(ctx context.Context) (int, error)
}

// Consumer 异步任务消费者
type Consumer struct {
	broadcasts BroadcastProcessor
	payments   PaymentReconciler
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil {
		return &Consumer{}
	}
	consumer := &Consumer{}
	if c.NotificationService != nil {
		consumer.broadcasts = c.NotificationService
	}
	if c.PaymentService != nil {
		consumer.payments = c.PaymentService
	}
	return consumer
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationBroadcast, c.handleBroadcastBatch)
	mux.HandleFunc(queue.TaskPaymentReconcile, c.handlePaymentReconcile)
}

func (c *Consumer) handleBroadcastBatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_broadcast_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseBroadcastBatchPayload(task)
	if err != nil {
		logger.Warnw("worker_broadcast_unmarshal_failed", "error", err)
		return err
	}
	if payload.BroadcastID == 0 {
		logger.Debugw("worker_broadcast_skip_invalid_payload", "broadcast_id", payload.BroadcastID)
		return nil
	}
	if c.broadcasts == nil {
		logger.Warnw("worker_broadcast_skip_service_nil", "broadcast_id", payload.BroadcastID)
		return nil
	}
	if err := c.broadcasts.ProcessBroadcastBatch(ctx, payload); err != nil {
		if errors.Is(err, service.ErrBroadcastNotFound) {
			logger.Debugw("worker_broadcast_skip_not_found", "broadcast_id", payload.BroadcastID)
			return nil
		}
		logger.Warnw("worker_broadcast_batch_failed",
			"broadcast_id", payload.BroadcastID,
			"after_user_id", payload.AfterUserID,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handlePaymentReconcile(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payment_reconcile_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParsePaymentReconcilePayload(task)
	if err != nil {
		logger.Warnw("worker_payment_reconcile_unmarshal_failed", "error", err)
		return err
	}
	if payload.TxRef == "" {
		logger.Debugw("worker_payment_reconcile_skip_invalid_payload", "attempt", payload.Attempt)
		return nil
	}
	if c.payments == nil {
		logger.Warnw("worker_payment_reconcile_skip_service_nil", "tx_ref", payload.TxRef)
		return nil
	}
	if err := c.payments.ReconcilePending(ctx, payload); err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			logger.Debugw("worker_payment_reconcile_skip_not_found", "tx_ref", payload.TxRef)
			return nil
		default:
			logger.Warnw("worker_payment_reconcile_failed", "tx_ref", payload.TxRef, "attempt", payload.Attempt, "error", err)
			return err
		}
	}
	return nil
}
