package service

import (
	"strings"

	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"
)

// OrderService 订单查询服务（下单见 OrderPlacementService）
type OrderService struct {
	orderRepo    repository.OrderRepository
	deliveryRepo repository.DeliveryRepository
}

// NewOrderService 创建订单查询服务
func NewOrderService(orderRepo repository.OrderRepository, deliveryRepo repository.DeliveryRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo, deliveryRepo: deliveryRepo}
}

// OrderDetail 后台订单详情
type OrderDetail struct {
	Order *models.Order        `json:"order"`
	Logs  []models.DeliveryLog `json:"delivery_logs"`
}

// CustomerOrder 下单用户视角的订单，附带签收码
type CustomerOrder struct {
	*models.Order
	DeliveryCode string `json:"delivery_code,omitempty"`
}

// ListByUser 用户订单列表
func (s *OrderService) ListByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrUnauthorized
	}
	return s.orderRepo.ListByUser(filter)
}

// GetByUserOrderCode 按订单号获取用户订单详情，签收码只对下单用户可见
func (s *OrderService) GetByUserOrderCode(orderCode string, userID uint) (*CustomerOrder, error) {
	orderCode = strings.TrimSpace(orderCode)
	if orderCode == "" || userID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderCodeAndUser(orderCode, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	view := &CustomerOrder{Order: order}
	if order.Delivery != nil {
		view.DeliveryCode = order.Delivery.VerificationCode
	}
	return view, nil
}

// ListAdmin 后台订单列表
func (s *OrderService) ListAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// GetAdmin 后台订单详情（含配送流转）
func (s *OrderService) GetAdmin(id uint) (*OrderDetail, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	detail := &OrderDetail{Order: order, Logs: []models.DeliveryLog{}}
	if order.Delivery != nil {
		logs, err := s.deliveryRepo.ListLogs(order.Delivery.ID)
		if err != nil {
			return nil, err
		}
		detail.Logs = logs
	}
	return detail, nil
}
