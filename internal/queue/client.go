package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusdash/internal/config"
	"github.com/campusdash/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 支付对账队列
	CriticalQueue = constants.QueueCritical
	// LowQueue 群发等可延后任务
	LowQueue = constants.QueueLow
)

// Client 队列客户端封装
type Client struct {
	client  *asynq.Client
	enabled bool
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false}, nil
	}
	return &Client{
		client:  asynq.NewClient(buildRedisOpt(cfg)),
		enabled: true,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueBroadcastBatch 推送群发批次任务，同一批次按 TaskID 去重
func (c *Client) EnqueueBroadcastBatch(payload BroadcastBatchPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewBroadcastBatchTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task,
		asynq.Queue(LowQueue),
		asynq.TaskID(fmt.Sprintf("broadcast:%d:%d", payload.BroadcastID, payload.AfterUserID)),
		asynq.MaxRetry(5),
	)
	return ignoreDuplicate(err)
}

// EnqueuePaymentReconcile 推送延迟对账任务
func (c *Client) EnqueuePaymentReconcile(payload PaymentReconcilePayload, delay time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if delay < 0 {
		delay = 0
	}
	task, err := NewPaymentReconcileTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task,
		asynq.Queue(CriticalQueue),
		asynq.ProcessIn(delay),
		asynq.TaskID(fmt.Sprintf("reconcile:%s:%d", payload.TxRef, payload.Attempt)),
		asynq.MaxRetry(3),
	)
	return ignoreDuplicate(err)
}

func ignoreDuplicate(err error) error {
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{CriticalQueue: 6, DefaultQueue: 3, LowQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency:    concurrency,
		Queues:         queues,
		StrictPriority: false,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
