package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/campusdash/internal/queue"
	"github.com/campusdash/internal/service"

	"github.com/hibiken/asynq"
)

type fakeBroadcasts struct {
	calls []queue.BroadcastBatchPayload
	err   error
}

func (f *fakeBroadcasts) ProcessBroadcastBatch(_ context.Context, payload queue.BroadcastBatchPayload) error {
	f.calls = append(f.calls, payload)
	return f.err
}

type fakePayments struct {
	pending   []queue.PaymentReconcilePayload
	err       error
	stale     int
	staleErr  error
	staleRuns int
}

func (f *fakePayments) ReconcilePending(_ context.Context, payload queue.PaymentReconcilePayload) error {
	f.pending = append(f.pending, payload)
	return f.err
}

func (f *fakePayments) ReconcileStalePayments(_ context.Context) (int, error) {
	f.staleRuns++
	return f.stale, f.staleErr
}

func TestHandleBroadcastBatch(t *testing.T) {
	broadcasts := &fakeBroadcasts{}
	consumer := &Consumer{broadcasts: broadcasts}

	task, err := queue.NewBroadcastBatchTask(queue.BroadcastBatchPayload{BroadcastID: 7, AfterUserID: 500})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleBroadcastBatch(context.Background(), task); err != nil {
		t.Fatalf("handle broadcast failed: %v", err)
	}
	if len(broadcasts.calls) != 1 || broadcasts.calls[0].AfterUserID != 500 {
		t.Fatalf("unexpected calls: %+v", broadcasts.calls)
	}

	broadcasts.err = service.ErrBroadcastNotFound
	if err := consumer.handleBroadcastBatch(context.Background(), task); err != nil {
		t.Fatalf("missing broadcast should be dropped, got %v", err)
	}

	broadcasts.err = errors.New("db down")
	if err := consumer.handleBroadcastBatch(context.Background(), task); err == nil {
		t.Fatalf("transient error should be returned for retry")
	}

	empty := asynq.NewTask(queue.TaskNotificationBroadcast, []byte(`{"broadcast_id":0}`))
	if err := consumer.handleBroadcastBatch(context.Background(), empty); err != nil {
		t.Fatalf("invalid payload should be skipped, got %v", err)
	}
	if len(broadcasts.calls) != 3 {
		t.Fatalf("invalid payload should not reach service, calls=%d", len(broadcasts.calls))
	}

	broken := asynq.NewTask(queue.TaskNotificationBroadcast, []byte(`{`))
	if err := consumer.handleBroadcastBatch(context.Background(), broken); err == nil {
		t.Fatalf("malformed payload should fail")
	}
}

func TestHandlePaymentReconcile(t *testing.T) {
	payments := &fakePayments{}
	consumer := &Consumer{payments: payments}

	task, err := queue.NewPaymentReconcileTask(queue.PaymentReconcilePayload{TxRef: "CD-TX-1", Attempt: 2})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handlePaymentReconcile(context.Background(), task); err != nil {
		t.Fatalf("handle reconcile failed: %v", err)
	}
	if len(payments.pending) != 1 || payments.pending[0].Attempt != 2 {
		t.Fatalf("unexpected reconcile calls: %+v", payments.pending)
	}

	payments.err = service.ErrPaymentNotFound
	if err := consumer.handlePaymentReconcile(context.Background(), task); err != nil {
		t.Fatalf("unknown payment should be dropped, got %v", err)
	}

	noRef := asynq.NewTask(queue.TaskPaymentReconcile, []byte(`{"attempt":1}`))
	if err := consumer.handlePaymentReconcile(context.Background(), noRef); err != nil {
		t.Fatalf("empty tx_ref should be skipped, got %v", err)
	}
	if len(payments.pending) != 2 {
		t.Fatalf("empty tx_ref should not reach service, calls=%d", len(payments.pending))
	}
}

func TestHandlersWithoutServices(t *testing.T) {
	consumer := &Consumer{}
	task, _ := queue.NewPaymentReconcileTask(queue.PaymentReconcilePayload{TxRef: "CD-TX-2"})
	if err := consumer.handlePaymentReconcile(context.Background(), task); err != nil {
		t.Fatalf("nil payment service should skip, got %v", err)
	}
	batch, _ := queue.NewBroadcastBatchTask(queue.BroadcastBatchPayload{BroadcastID: 1})
	if err := consumer.handleBroadcastBatch(context.Background(), batch); err != nil {
		t.Fatalf("nil broadcast service should skip, got %v", err)
	}
	if got := consumer.reconcileStale(context.Background()); got != 0 {
		t.Fatalf("nil payment service stale run want 0 got %d", got)
	}
}

func TestReconcileStale(t *testing.T) {
	payments := &fakePayments{stale: 3}
	consumer := &Consumer{payments: payments}
	if got := consumer.reconcileStale(context.Background()); got != 3 {
		t.Fatalf("processed want 3 got %d", got)
	}
	payments.stale, payments.staleErr = 1, errors.New("timeout")
	if got := consumer.reconcileStale(context.Background()); got != 1 {
		t.Fatalf("processed on error want 1 got %d", got)
	}
	if payments.staleRuns != 2 {
		t.Fatalf("stale runs want 2 got %d", payments.staleRuns)
	}
}

func TestNewServiceRequiresQueue(t *testing.T) {
	if _, err := NewService(nil, &Consumer{}); err == nil {
		t.Fatalf("nil config should fail")
	}
}
