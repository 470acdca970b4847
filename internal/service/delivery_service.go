package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/metrics"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"

	"gorm.io/gorm"
)

// 签收核验方式
const (
	verifyMethodChallenge = "challenge"
	verifyMethodCode      = "code"
)

// DeliveryOptions 配送参数
type DeliveryOptions struct {
	ConcealUnknownOrder bool
}

// DeliveryService 配送指派与签收核验
type DeliveryService struct {
	deliveryRepo    repository.DeliveryRepository
	orderRepo       repository.OrderRepository
	userRepo        repository.UserRepository
	notificationSvc *NotificationService
	metrics         *metrics.StoreMetrics
	opts            DeliveryOptions
	now             func() time.Time
}

// NewDeliveryService 创建配送服务
func NewDeliveryService(
	deliveryRepo repository.DeliveryRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	notificationSvc *NotificationService,
	storeMetrics *metrics.StoreMetrics,
	opts DeliveryOptions,
) *DeliveryService {
	return &DeliveryService{
		deliveryRepo:    deliveryRepo,
		orderRepo:       orderRepo,
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		metrics:         storeMetrics,
		opts:            opts,
		now:             time.Now,
	}
}

// DeliveryDetail 配送详情
type DeliveryDetail struct {
	Delivery *models.Delivery     `json:"delivery"`
	Logs     []models.DeliveryLog `json:"logs"`
}

// Assign 指派配送员，订单 pending -> pending_delivery
func (s *DeliveryService) Assign(ctx context.Context, deliveryID, deliveryPersonID, adminID uint) (*models.Delivery, error) {
	if deliveryID == 0 {
		return nil, ErrDeliveryNotFound
	}
	if deliveryPersonID == 0 {
		return nil, NewValidationError("delivery_person_id", "required")
	}
	person, err := s.userRepo.GetByID(deliveryPersonID)
	if err != nil {
		return nil, err
	}
	if person == nil || person.Role != constants.UserRoleDelivery || person.Status != constants.UserStatusActive {
		return nil, ErrDeliveryPerson
	}

	var (
		delivery *models.Delivery
		order    *models.Order
	)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		deliveryRepo := s.deliveryRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		locked, err := deliveryRepo.LockByID(deliveryID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrDeliveryNotFound
		}
		if locked.Status != constants.DeliveryStatusPending && locked.Status != constants.DeliveryStatusAssigned {
			return ErrDeliveryStatus
		}
		order, err = orderRepo.GetByID(locked.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status == constants.OrderStatusDelivered {
			return ErrDeliveryStatus
		}

		now := s.now()
		personID := person.ID
		locked.DeliveryPersonID = &personID
		locked.Status = constants.DeliveryStatusAssigned
		locked.AssignedAt = &now
		locked.UpdatedAt = now
		if err := deliveryRepo.Update(locked); err != nil {
			return err
		}
		if order.Status == constants.OrderStatusPending {
			if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusPendingDelivery, map[string]interface{}{"updated_at": now}); err != nil {
				return err
			}
			order.Status = constants.OrderStatusPendingDelivery
		}
		if err := deliveryRepo.AppendLog(&models.DeliveryLog{
			DeliveryID: locked.ID,
			OrderID:    order.ID,
			Event:      constants.DeliveryEventAssigned,
			Actor:      adminActor(adminID),
			Detail:     fmt.Sprintf("delivery_person_id=%d", person.ID),
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		if err := s.notificationSvc.NotifyTx(tx, NotifyInput{
			UserID: person.ID,
			Type:   constants.NotificationTypeDeliveryTask,
			Title:  "New delivery task",
			Body:   fmt.Sprintf("Order %s is assigned to you. Deliver to: %s", order.OrderCode, order.DeliveryAddress),
			Ref:    order.OrderCode,
		}); err != nil {
			return err
		}
		if err := s.notificationSvc.NotifyTx(tx, NotifyInput{
			UserID: order.UserID,
			Type:   constants.NotificationTypeDeliveryAssigned,
			Title:  "Delivery on the way",
			Body:   fmt.Sprintf("A delivery person has been assigned to order %s.", order.OrderCode),
			Ref:    order.OrderCode,
		}); err != nil {
			return err
		}
		delivery = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("delivery_assigned",
		"delivery_id", delivery.ID,
		"order_code", order.OrderCode,
		"delivery_person_id", person.ID,
		"admin_id", adminID,
	)
	return delivery, nil
}

// VerifyByChallenge 订单号加手机号核验签收，手机号严格相等
func (s *DeliveryService) VerifyByChallenge(ctx context.Context, orderCode, phone string) (*models.Order, error) {
	orderCode = strings.TrimSpace(orderCode)
	if orderCode == "" {
		return nil, NewValidationError("order_code", "required")
	}
	if phone == "" {
		return nil, NewValidationError("phone", "required")
	}
	order, err := s.complete(orderCode, verifyMethodChallenge, "customer", func(order *models.Order, _ *models.Delivery) bool {
		return order.CustomerPhone == phone
	})
	s.metrics.IncDeliveryVerification(verifyMethodChallenge, verificationOutcome(err))
	if err != nil {
		return nil, err
	}
	return order, nil
}

// VerifyByCode 配送员使用一次性签收码确认送达
func (s *DeliveryService) VerifyByCode(ctx context.Context, deliveryPersonID uint, orderCode, code string) (*models.Order, error) {
	orderCode = strings.TrimSpace(orderCode)
	code = strings.TrimSpace(code)
	if orderCode == "" {
		return nil, NewValidationError("order_code", "required")
	}
	if code == "" {
		return nil, NewValidationError("code", "required")
	}
	order, err := s.complete(orderCode, verifyMethodCode, userActor(deliveryPersonID), func(_ *models.Order, delivery *models.Delivery) bool {
		if delivery.DeliveryPersonID == nil || *delivery.DeliveryPersonID != deliveryPersonID {
			return false
		}
		if delivery.VerificationCode == "" {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(delivery.VerificationCode), []byte(code)) == 1
	})
	s.metrics.IncDeliveryVerification(verifyMethodCode, verificationOutcome(err))
	if err != nil {
		return nil, err
	}
	return order, nil
}

// complete 核验通过后：订单 delivered、配送 completed、清空签收码、写日志并通知
func (s *DeliveryService) complete(orderCode, method, actor string, check func(*models.Order, *models.Delivery) bool) (*models.Order, error) {
	mismatch := ErrChallengeFailed
	if method == verifyMethodCode {
		mismatch = ErrVerificationCode
	}

	var order *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		deliveryRepo := s.deliveryRepo.WithTx(tx)
		found, err := orderRepo.GetByOrderCode(orderCode)
		if err != nil {
			return err
		}
		if found == nil {
			if s.opts.ConcealUnknownOrder {
				return mismatch
			}
			return ErrOrderNotFound
		}
		delivery, err := deliveryRepo.LockByOrderID(found.ID)
		if err != nil {
			return err
		}
		if delivery == nil {
			return ErrDeliveryNotFound
		}
		if !check(found, delivery) {
			return mismatch
		}
		if found.Status == constants.OrderStatusDelivered || delivery.Status == constants.DeliveryStatusCompleted || delivery.Status == constants.DeliveryStatusFailed {
			return ErrDeliveryStatus
		}

		now := s.now()
		if err := orderRepo.UpdateStatus(found.ID, constants.OrderStatusDelivered, map[string]interface{}{
			"delivered_at": now,
			"updated_at":   now,
		}); err != nil {
			return err
		}
		delivery.Status = constants.DeliveryStatusCompleted
		delivery.VerificationCode = ""
		delivery.CompletedAt = &now
		delivery.UpdatedAt = now
		if err := deliveryRepo.Update(delivery); err != nil {
			return err
		}
		event := constants.DeliveryEventChallengeVerified
		if method == verifyMethodCode {
			event = constants.DeliveryEventCodeVerified
		}
		if err := deliveryRepo.AppendLog(&models.DeliveryLog{
			DeliveryID: delivery.ID,
			OrderID:    found.ID,
			Event:      event,
			Actor:      actor,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		if err := s.notificationSvc.NotifyTx(tx, NotifyInput{
			UserID: found.UserID,
			Type:   constants.NotificationTypeDeliveryCompleted,
			Title:  "Order delivered",
			Body:   fmt.Sprintf("Order %s has been delivered.", found.OrderCode),
			Ref:    found.OrderCode,
		}); err != nil {
			return err
		}
		order, err = orderRepo.GetByID(found.ID)
		return err
	})
	if err != nil {
		if err == ErrChallengeFailed || err == ErrVerificationCode {
			logger.Warnw("delivery_verification_failed", "order_code", orderCode, "method", method)
		}
		return nil, err
	}
	logger.Infow("order_delivered", "order_code", order.OrderCode, "method", method, "actor", actor)
	return order, nil
}

// MarkFailed 标记配送失败，订单保持原状态等待人工处理
func (s *DeliveryService) MarkFailed(ctx context.Context, deliveryID, adminID uint, reason string) (*models.Delivery, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, NewValidationError("reason", "required")
	}
	var delivery *models.Delivery
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		deliveryRepo := s.deliveryRepo.WithTx(tx)
		locked, err := deliveryRepo.LockByID(deliveryID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrDeliveryNotFound
		}
		if locked.Status == constants.DeliveryStatusCompleted || locked.Status == constants.DeliveryStatusFailed {
			return ErrDeliveryStatus
		}
		order, err := s.orderRepo.WithTx(tx).GetByID(locked.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}

		now := s.now()
		locked.Status = constants.DeliveryStatusFailed
		locked.FailReason = reason
		locked.UpdatedAt = now
		if err := deliveryRepo.Update(locked); err != nil {
			return err
		}
		if err := deliveryRepo.AppendLog(&models.DeliveryLog{
			DeliveryID: locked.ID,
			OrderID:    order.ID,
			Event:      constants.DeliveryEventFailed,
			Actor:      adminActor(adminID),
			Detail:     reason,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		if err := s.notificationSvc.NotifyTx(tx, NotifyInput{
			UserID: order.UserID,
			Type:   constants.NotificationTypeDeliveryFailed,
			Title:  "Delivery failed",
			Body:   fmt.Sprintf("Delivery for order %s could not be completed: %s", order.OrderCode, reason),
			Ref:    order.OrderCode,
		}); err != nil {
			return err
		}
		delivery = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("delivery_failed", "delivery_id", delivery.ID, "admin_id", adminID, "reason", reason)
	return delivery, nil
}

// ListAssigned 配送员的待办配送
func (s *DeliveryService) ListAssigned(deliveryPersonID uint, page, pageSize int) ([]models.Delivery, int64, error) {
	if deliveryPersonID == 0 {
		return nil, 0, ErrUnauthorized
	}
	return s.deliveryRepo.List(repository.DeliveryListFilter{
		Page:             page,
		PageSize:         pageSize,
		Status:           constants.DeliveryStatusAssigned,
		DeliveryPersonID: deliveryPersonID,
	})
}

// List 管理端配送列表
func (s *DeliveryService) List(filter repository.DeliveryListFilter) ([]models.Delivery, int64, error) {
	return s.deliveryRepo.List(filter)
}

// Get 管理端配送详情（含流转记录）
func (s *DeliveryService) Get(id uint) (*DeliveryDetail, error) {
	delivery, err := s.deliveryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, ErrDeliveryNotFound
	}
	logs, err := s.deliveryRepo.ListLogs(delivery.ID)
	if err != nil {
		return nil, err
	}
	return &DeliveryDetail{Delivery: delivery, Logs: logs}, nil
}

func verificationOutcome(err error) string {
	switch err {
	case nil:
		return "success"
	case ErrChallengeFailed, ErrVerificationCode:
		return "mismatch"
	case ErrOrderNotFound:
		return "not_found"
	default:
		return "error"
	}
}

func adminActor(adminID uint) string {
	return fmt.Sprintf("admin:%d", adminID)
}

func userActor(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}
