package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/metrics"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/queue"
	"github.com/campusdash/internal/repository"

	"gorm.io/gorm"
)

const defaultBroadcastBatchSize = 500

// NotificationService 站内通知服务
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	queueClient      TaskEnqueuer
	metrics          *metrics.StoreMetrics
	batchSize        int
}

// NewNotificationService 创建通知服务
func NewNotificationService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository, queueClient TaskEnqueuer, storeMetrics *metrics.StoreMetrics, batchSize int) *NotificationService {
	if batchSize <= 0 {
		batchSize = defaultBroadcastBatchSize
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		queueClient:      queueClient,
		metrics:          storeMetrics,
		batchSize:        batchSize,
	}
}

// NotifyInput 单条通知
type NotifyInput struct {
	UserID uint
	Type   string
	Title  string
	Body   string
	Ref    string
}

// NotifyTx 在调用方事务内写入通知
func (s *NotificationService) NotifyTx(tx *gorm.DB, input NotifyInput) error {
	if input.UserID == 0 {
		return nil
	}
	return s.notificationRepo.WithTx(tx).Create(&models.Notification{
		UserID:    input.UserID,
		Type:      input.Type,
		Title:     input.Title,
		Body:      input.Body,
		Ref:       input.Ref,
		CreatedAt: time.Now(),
	})
}

// List 用户通知列表
func (s *NotificationService) List(userID uint, page, pageSize int, unreadOnly bool) ([]models.Notification, int64, error) {
	if userID == 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.notificationRepo.List(repository.NotificationListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     userID,
		UnreadOnly: unreadOnly,
	})
}

// MarkRead 标记已读
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	affected, err := s.notificationRepo.MarkRead(notificationID, userID, time.Now())
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// CreateBroadcastInput 全员群发输入
type CreateBroadcastInput struct {
	AdminID uint
	Title   string
	Body    string
}

// CreateBroadcast 创建群发记录并投递首个批次
func (s *NotificationService) CreateBroadcast(ctx context.Context, input CreateBroadcastInput) (*models.NotificationBroadcast, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, NewValidationError("title", "required")
	}
	if !queueEnabled(s.queueClient) {
		return nil, ErrQueueUnavailable
	}
	broadcast := &models.NotificationBroadcast{
		Title:            title,
		Body:             strings.TrimSpace(input.Body),
		Status:           constants.BroadcastStatusQueued,
		CreatedByAdminID: input.AdminID,
	}
	if err := s.notificationRepo.CreateBroadcast(broadcast); err != nil {
		return nil, err
	}
	if err := s.queueClient.EnqueueBroadcastBatch(queue.BroadcastBatchPayload{BroadcastID: broadcast.ID}); err != nil {
		logger.Errorw("broadcast_enqueue_failed", "broadcast_id", broadcast.ID, "error", err)
		return nil, ErrQueueUnavailable
	}
	logger.Infow("broadcast_queued", "broadcast_id", broadcast.ID, "admin_id", input.AdminID)
	return broadcast, nil
}

// GetBroadcast 查询群发进度
func (s *NotificationService) GetBroadcast(id uint) (*models.NotificationBroadcast, error) {
	broadcast, err := s.notificationRepo.GetBroadcast(id)
	if err != nil {
		return nil, err
	}
	if broadcast == nil {
		return nil, ErrBroadcastNotFound
	}
	return broadcast, nil
}

// ProcessBroadcastBatch 投递一页用户（按 ID 游标），页满时投递下一批次
func (s *NotificationService) ProcessBroadcastBatch(ctx context.Context, payload queue.BroadcastBatchPayload) error {
	broadcast, err := s.notificationRepo.GetBroadcast(payload.BroadcastID)
	if err != nil {
		return err
	}
	if broadcast == nil {
		logger.Warnw("broadcast_batch_missing", "broadcast_id", payload.BroadcastID)
		return nil
	}
	if broadcast.Status == constants.BroadcastStatusCompleted {
		return nil
	}
	// 重试时以已持久化的游标为准，避免重复投递
	cursor := payload.AfterUserID
	if broadcast.CursorUserID > cursor {
		cursor = broadcast.CursorUserID
	}

	ids, err := s.userRepo.ListActiveIDsAfter(cursor, s.batchSize)
	if err != nil {
		return err
	}
	now := time.Now()
	if len(ids) > 0 {
		batch := make([]models.Notification, 0, len(ids))
		for _, id := range ids {
			batch = append(batch, models.Notification{
				UserID:    id,
				Type:      constants.NotificationTypeBroadcast,
				Title:     broadcast.Title,
				Body:      broadcast.Body,
				CreatedAt: now,
			})
		}
		lastID := ids[len(ids)-1]
		err = models.DB.Transaction(func(tx *gorm.DB) error {
			repo := s.notificationRepo.WithTx(tx)
			if err := repo.CreateBatch(batch, 200); err != nil {
				return err
			}
			return repo.UpdateBroadcast(broadcast.ID, map[string]interface{}{
				"status":          constants.BroadcastStatusRunning,
				"cursor_user_id":  lastID,
				"delivered_count": gorm.Expr("delivered_count + ?", len(ids)),
			})
		})
		if err != nil {
			s.metrics.ObserveBroadcastBatch("failed", len(ids))
			return err
		}
		s.metrics.ObserveBroadcastBatch("delivered", len(ids))
		cursor = lastID
	}

	if len(ids) < s.batchSize {
		if err := s.notificationRepo.UpdateBroadcast(broadcast.ID, map[string]interface{}{
			"status":       constants.BroadcastStatusCompleted,
			"completed_at": now,
		}); err != nil {
			return err
		}
		logger.Infow("broadcast_completed", "broadcast_id", broadcast.ID, "cursor_user_id", cursor)
		return nil
	}

	if !queueEnabled(s.queueClient) {
		return ErrQueueUnavailable
	}
	next := queue.BroadcastBatchPayload{BroadcastID: broadcast.ID, AfterUserID: cursor}
	if err := s.queueClient.EnqueueBroadcastBatch(next); err != nil {
		return errors.Join(ErrQueueUnavailable, err)
	}
	logger.Debugw("broadcast_batch_enqueued", "broadcast_id", broadcast.ID, "after_user_id", cursor)
	return nil
}
