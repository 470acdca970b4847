package worker

import (
	"context"
	"errors"
	"time"

	"github.com/campusdash/internal/config"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultStaleReconcileInterval = 5 * time.Minute

// Service 异步队列服务
type Service struct {
	name              string
	server            *asynq.Server
	mux               *asynq.ServeMux
	consumer          *Consumer
	reconcileInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	interval := time.Duration(cfg.Payment.ReconcileIntervalSecs) * time.Second
	if interval <= 0 {
		interval = defaultStaleReconcileInterval
	}
	return &Service{
		name:              "worker",
		server:            server,
		mux:               mux,
		consumer:          consumer,
		reconcileInterval: interval,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.payments != nil {
		go s.runStaleReconcileLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runStaleReconcileLoop 周期性兜底：处理丢失回调且延迟任务已耗尽的待支付记录
func (s *Service) runStaleReconcileLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.payments == nil {
		return
	}
	ticker := time.NewTicker(s.reconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.consumer.reconcileStale(ctx)
		}
	}
}

func (c *Consumer) reconcileStale(ctx context.Context) int {
	if c == nil || c.payments == nil {
		return 0
	}
	processed, err := c.payments.ReconcileStalePayments(ctx)
	if err != nil {
		logger.Warnw("worker_stale_reconcile_failed", "processed", processed, "error", err)
		return processed
	}
	if processed > 0 {
		logger.Infow("worker_stale_reconcile_done", "processed", processed)
	}
	return processed
}
