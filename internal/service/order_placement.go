package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/metrics"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 下单结果标签
const (
	placementOutcomePlaced            = "placed"
	placementOutcomeAlreadyProcessed  = "already_processed"
	placementOutcomeEmptyCart         = "empty_cart"
	placementOutcomeOutsideZone       = "outside_zone"
	placementOutcomeAmountMismatch    = "amount_mismatch"
	placementOutcomeInsufficientStock = "insufficient_stock"
	placementOutcomeRejected          = "rejected"
	placementOutcomeError             = "error"
)

// PlacementConfig 下单参数
type PlacementConfig struct {
	Tolerance              decimal.Decimal
	Currency               string
	VerificationCodeLength int
}

// OrderPlacementService 下单编排：快照、区域、金额、库存校验后原子落库
type OrderPlacementService struct {
	paymentRepo     repository.PaymentRepository
	orderRepo       repository.OrderRepository
	cartRepo        repository.CartRepository
	productRepo     repository.ProductRepository
	deliveryRepo    repository.DeliveryRepository
	userRepo        repository.UserRepository
	ledger          *StockLedger
	geoZones        *GeoZoneService
	notificationSvc *NotificationService
	metrics         *metrics.StoreMetrics
	cfg             PlacementConfig
	now             func() time.Time
}

// NewOrderPlacementService 创建下单编排服务
func NewOrderPlacementService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	deliveryRepo repository.DeliveryRepository,
	userRepo repository.UserRepository,
	ledger *StockLedger,
	geoZones *GeoZoneService,
	notificationSvc *NotificationService,
	storeMetrics *metrics.StoreMetrics,
	cfg PlacementConfig,
) *OrderPlacementService {
	if cfg.Tolerance.IsZero() || cfg.Tolerance.IsNegative() {
		cfg.Tolerance = decimal.RequireFromString("0.01")
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = constants.CurrencyDefault
	}
	return &OrderPlacementService{
		paymentRepo:     paymentRepo,
		orderRepo:       orderRepo,
		cartRepo:        cartRepo,
		productRepo:     productRepo,
		deliveryRepo:    deliveryRepo,
		userRepo:        userRepo,
		ledger:          ledger,
		geoZones:        geoZones,
		notificationSvc: notificationSvc,
		metrics:         storeMetrics,
		cfg:             cfg,
		now:             time.Now,
	}
}

// PlaceOrderForPaymentInput 基于支付下单输入，PaymentID 与 TxRef 二选一
type PlaceOrderForPaymentInput struct {
	PaymentID   uint
	TxRef       string
	Trigger     string
	ProviderRef string
	AdminID     uint
}

// PlacementResult 下单结果
type PlacementResult struct {
	Order            *models.Order   `json:"order"`
	Payment          *models.Payment `json:"payment,omitempty"`
	AlreadyProcessed bool            `json:"already_processed"`
}

// CheckoutInput 货到付款直接下单输入
type CheckoutInput struct {
	UserID     uint
	Lat        float64
	Lng        float64
	Address    string
	LocationID uint
}

// orderDraft 待落库的订单
type orderDraft struct {
	userID       uint
	phone        string
	snapshot     *models.CartSnapshot
	geofence     *models.GeofenceResult
	address      string
	currency     string
	status       string
	paymentTxRef *string
}

// PlaceOrderForPayment 支付成功/审核通过后下单，同一 tx_ref 至多一单
func (s *OrderPlacementService) PlaceOrderForPayment(ctx context.Context, input PlaceOrderForPaymentInput) (*PlacementResult, error) {
	start := s.now()
	result, err := s.placeForPayment(ctx, input)
	s.metrics.ObservePlacement(input.Trigger, placementOutcome(result, err), time.Since(start))
	return result, err
}

func (s *OrderPlacementService) placeForPayment(ctx context.Context, input PlaceOrderForPaymentInput) (*PlacementResult, error) {
	payment, err := s.loadPayment(input)
	if err != nil {
		return nil, err
	}
	log := logger.SW("tx_ref", payment.TxRef, "payment_id", payment.ID, "trigger", input.Trigger)

	// 1. 幂等：已有订单引用该交易号则直接返回
	existing, err := s.orderRepo.GetByPaymentTxRef(payment.TxRef)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.alreadyProcessed(payment.ID, existing, input.ProviderRef)
	}
	if payment.Status == constants.PaymentStatusFailed {
		return nil, ErrPaymentStatusInvalid
	}

	// 2. 快照：优先使用支付快照，缺失时回退实时购物车
	meta := payment.MetaData()
	snapshot := meta.CartSnapshot
	if snapshot.IsEmpty() {
		items, err := s.cartRepo.ListByUser(payment.UserID)
		if err != nil {
			return nil, err
		}
		snapshot, err = buildSnapshot(items, s.productRepo, s.now())
		if err != nil {
			return nil, err
		}
		log.Infow("placement_live_cart_fallback", "items", len(snapshot.Items))
	}
	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}

	// 3. 区域：支付路径信任发起时的判定记录
	geofence := meta.Geofence
	if geofence == nil || !geofence.Inside {
		log.Errorw("placement_geofence_missing", "has_record", geofence != nil)
		s.annotate(payment.ID, models.NewTextNote(models.NoteSourceApproval, "geofence record missing", s.now()))
		return nil, fmt.Errorf("%w: geofence record missing for %s", ErrIntegrityViolation, payment.TxRef)
	}

	// 4. 金额：快照合计 + 配送费 与核定金额比对
	expected := snapshotTotal(snapshot).Add(geofence.DeliveryFee)
	if !expected.WithinTolerance(payment.Amount, s.cfg.Tolerance) {
		s.annotate(payment.ID, models.NewAmountMismatchNote(expected, payment.Amount, models.NoteSourceApproval, s.now()))
		log.Warnw("placement_amount_mismatch", "expected", expected.String(), "amount", payment.Amount.String())
		return nil, &AmountMismatchError{Expected: expected, Submitted: payment.Amount}
	}

	demands, err := ResolveStockDemands(SnapshotSource{Snapshot: snapshot})
	if err != nil {
		return nil, err
	}

	var result *PlacementResult
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		locked, err := paymentRepo.LockByID(payment.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return fmt.Errorf("%w: payment %d vanished", ErrIntegrityViolation, payment.ID)
		}
		if locked.Status == constants.PaymentStatusFailed {
			return ErrPaymentStatusInvalid
		}
		// 锁内复查，并发审核时后到者直接返回
		if order, err := s.orderRepo.WithTx(tx).GetByPaymentTxRef(locked.TxRef); err != nil {
			return err
		} else if order != nil {
			result = &PlacementResult{Order: order, Payment: locked, AlreadyProcessed: true}
			return nil
		}

		// 5. 库存
		if err := s.ledger.ReserveAndDecrement(tx, demands); err != nil {
			return err
		}

		// 6. 落库
		phone, err := s.customerPhone(tx, locked.UserID, locked.Mobile)
		if err != nil {
			return err
		}
		txRef := locked.TxRef
		order, err := s.persistOrder(tx, orderDraft{
			userID:       locked.UserID,
			phone:        phone,
			snapshot:     snapshot,
			geofence:     geofence,
			address:      meta.DeliveryAddress,
			currency:     locked.Currency,
			status:       constants.OrderStatusPendingDelivery,
			paymentTxRef: &txRef,
		})
		if err != nil {
			return err
		}

		// 8. 关联订单号并置为成功
		now := s.now()
		linked, err := locked.MetaData().LinkOrder(order.OrderCode)
		if err != nil {
			return err
		}
		locked.SetMeta(linked)
		locked.Status = constants.PaymentStatusSuccess
		locked.PaidAt = &now
		if ref := strings.TrimSpace(input.ProviderRef); ref != "" && locked.ProviderRef == nil {
			locked.ProviderRef = &ref
		}
		if err := paymentRepo.Update(locked); err != nil {
			return err
		}

		// 7. 实时购物车与扣款快照一致才清空
		if err := s.clearCartIfUnchanged(tx, locked.UserID, snapshot.Hash); err != nil {
			return err
		}
		result = &PlacementResult{Order: order, Payment: locked}
		return nil
	})
	if err != nil {
		return s.resolvePlacementFailure(payment, input, err)
	}

	if result.AlreadyProcessed {
		return s.alreadyProcessed(payment.ID, result.Order, input.ProviderRef)
	}
	s.metrics.IncPaymentTransition(payment.Provider, constants.PaymentStatusSuccess)
	log.Infow("order_placed",
		"order_code", result.Order.OrderCode,
		"total", result.Order.Total.String(),
		"delivery_fee", result.Order.DeliveryFee.String(),
		"admin_id", input.AdminID,
	)
	return result, nil
}

// resolvePlacementFailure 事务回滚后的处理：结构化错误写对账记录，唯一键冲突按幂等返回
func (s *OrderPlacementService) resolvePlacementFailure(payment *models.Payment, input PlaceOrderForPaymentInput, err error) (*PlacementResult, error) {
	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		s.annotate(payment.ID, models.NewStockIssueNote(stockErr.Items, s.now()))
		logger.Warnw("placement_insufficient_stock", "tx_ref", payment.TxRef, "items", stockErr.Items)
		return nil, err
	case errors.Is(err, ErrPaymentStatusInvalid), errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInvalidCartItem):
		return nil, err
	}

	// 并发审核：另一事务已写入同一 tx_ref 的订单
	if order, lookupErr := s.orderRepo.GetByPaymentTxRef(payment.TxRef); lookupErr == nil && order != nil {
		logger.Infow("placement_race_resolved", "tx_ref", payment.TxRef, "order_code", order.OrderCode, "cause", err)
		return s.alreadyProcessed(payment.ID, order, input.ProviderRef)
	}

	logger.Errorw("order_placement_failed",
		"tx_ref", payment.TxRef,
		"payment_id", payment.ID,
		"user_id", payment.UserID,
		"trigger", input.Trigger,
		"admin_id", input.AdminID,
		"error", err,
	)
	s.annotate(payment.ID, models.NewTextNote(models.NoteSourceApproval, "order placement failed: "+err.Error(), s.now()))
	if errors.Is(err, ErrIntegrityViolation) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %v", ErrIntegrityViolation, err)
}

// alreadyProcessed 返回已有订单，并补齐支付状态与关联
func (s *OrderPlacementService) alreadyProcessed(paymentID uint, order *models.Order, providerRef string) (*PlacementResult, error) {
	var payment *models.Payment
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.paymentRepo.WithTx(tx)
		locked, err := repo.LockByID(paymentID)
		if err != nil || locked == nil {
			return err
		}
		payment = locked
		changed := false
		if locked.Status == constants.PaymentStatusPending {
			now := s.now()
			locked.Status = constants.PaymentStatusSuccess
			locked.PaidAt = &now
			changed = true
		}
		meta := locked.MetaData()
		if meta.OrderCode == "" {
			linked, err := meta.LinkOrder(order.OrderCode)
			if err != nil {
				return err
			}
			locked.SetMeta(linked)
			changed = true
		} else if meta.OrderCode != order.OrderCode {
			logger.Warnw("payment_order_link_conflict", "tx_ref", locked.TxRef, "linked", meta.OrderCode, "order_code", order.OrderCode)
		}
		if ref := strings.TrimSpace(providerRef); ref != "" && locked.ProviderRef == nil {
			locked.ProviderRef = &ref
			changed = true
		}
		if !changed {
			return nil
		}
		return repo.Update(locked)
	})
	if err != nil {
		logger.Errorw("payment_link_repair_failed", "payment_id", paymentID, "order_code", order.OrderCode, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrIntegrityViolation, err)
	}
	full, err := s.orderRepo.GetByID(order.ID)
	if err == nil && full != nil {
		order = full
	}
	return &PlacementResult{Order: order, Payment: payment, AlreadyProcessed: true}, nil
}

// Checkout 货到付款：基于实时购物车直接下单
func (s *OrderPlacementService) Checkout(ctx context.Context, input CheckoutInput) (*PlacementResult, error) {
	start := s.now()
	result, err := s.checkout(ctx, input)
	s.metrics.ObservePlacement(constants.PlacementTriggerCheckout, placementOutcome(result, err), time.Since(start))
	return result, err
}

func (s *OrderPlacementService) checkout(ctx context.Context, input CheckoutInput) (*PlacementResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, NewValidationError("address", "required")
	}
	zone, err := s.geoZones.ResolveDeliveryZone(ctx, input.Lat, input.Lng, input.LocationID)
	if err != nil {
		return nil, err
	}
	geofence := GeofenceFor(zone, input.Lat, input.Lng, s.now())

	var order *models.Order
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		// 锁住购物车行，重复提交时后到者读到空购物车
		items, err := s.cartRepo.WithTx(tx).LockByUser(input.UserID)
		if err != nil {
			return err
		}
		snapshot, err := buildSnapshot(items, s.productRepo.WithTx(tx), s.now())
		if err != nil {
			return err
		}
		if snapshot.IsEmpty() {
			return ErrEmptyCart
		}
		demands, err := ResolveStockDemands(LiveCartSource(items))
		if err != nil {
			return err
		}
		if err := s.ledger.ReserveAndDecrement(tx, demands); err != nil {
			return err
		}
		phone, err := s.customerPhone(tx, input.UserID, "")
		if err != nil {
			return err
		}
		order, err = s.persistOrder(tx, orderDraft{
			userID:   input.UserID,
			phone:    phone,
			snapshot: snapshot,
			geofence: geofence,
			address:  address,
			currency: s.cfg.Currency,
			status:   constants.OrderStatusPending,
		})
		if err != nil {
			return err
		}
		return s.cartRepo.WithTx(tx).ClearByUser(input.UserID)
	})
	if err != nil {
		var stockErr *InsufficientStockError
		switch {
		case errors.As(err, &stockErr),
			errors.Is(err, ErrEmptyCart),
			errors.Is(err, ErrProductNotAvailable),
			errors.Is(err, ErrInvalidCartItem):
			return nil, err
		}
		logger.Errorw("checkout_failed", "user_id", input.UserID, "location_id", geofence.LocationID, "error", err)
		if errors.Is(err, ErrIntegrityViolation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrIntegrityViolation, err)
	}
	logger.Infow("order_placed",
		"order_code", order.OrderCode,
		"trigger", constants.PlacementTriggerCheckout,
		"user_id", input.UserID,
		"total", order.Total.String(),
	)
	return &PlacementResult{Order: order}, nil
}

// persistOrder 写入订单、订单项、配送记录、通知与配送日志
func (s *OrderPlacementService) persistOrder(tx *gorm.DB, draft orderDraft) (*models.Order, error) {
	now := s.now()
	orderRepo := s.orderRepo.WithTx(tx)
	code, err := s.uniqueOrderCode(orderRepo, now)
	if err != nil {
		return nil, err
	}
	verification, err := generateVerificationCode(s.cfg.VerificationCodeLength)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(draft.snapshot.Items))
	total := models.Money{}
	for _, line := range draft.snapshot.Items {
		lineTotal := line.LineTotal()
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   lineTotal,
			CreatedAt:   now,
		})
		total = total.Add(lineTotal)
	}

	order := &models.Order{
		OrderCode:       code,
		UserID:          draft.userID,
		CustomerPhone:   draft.phone,
		Total:           total,
		DeliveryFee:     draft.geofence.DeliveryFee,
		Currency:        draft.currency,
		DeliveryAddress: draft.address,
		DeliveryLat:     draft.geofence.Lat,
		DeliveryLng:     draft.geofence.Lng,
		LocationID:      draft.geofence.LocationID,
		Status:          draft.status,
		PaymentTxRef:    draft.paymentTxRef,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           items,
		Delivery: &models.Delivery{
			Status:           constants.DeliveryStatusPending,
			VerificationCode: verification,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}
	if err := orderRepo.Create(order); err != nil {
		return nil, err
	}

	if err := s.deliveryRepo.WithTx(tx).AppendLog(&models.DeliveryLog{
		DeliveryID: order.Delivery.ID,
		OrderID:    order.ID,
		Event:      constants.DeliveryEventCreated,
		Actor:      "system",
		CreatedAt:  now,
	}); err != nil {
		return nil, err
	}

	if err := s.notificationSvc.NotifyTx(tx, NotifyInput{
		UserID: draft.userID,
		Type:   constants.NotificationTypeOrderPlaced,
		Title:  "Order placed",
		Body: fmt.Sprintf("Your order %s has been placed. Total %s %s. Give delivery code %s to the courier on arrival.",
			code, order.GrandTotal().StringFixed(2), order.Currency, verification),
		Ref:    code,
	}); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderPlacementService) uniqueOrderCode(orderRepo repository.OrderRepository, now time.Time) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateOrderCode(now)
		if err != nil {
			return "", err
		}
		existing, err := orderRepo.GetByOrderCode(code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", errors.New("order code space exhausted")
}

func (s *OrderPlacementService) customerPhone(tx *gorm.DB, userID uint, fallback string) (string, error) {
	user, err := s.userRepo.WithTx(tx).GetByID(userID)
	if err != nil {
		return "", err
	}
	if user != nil && strings.TrimSpace(user.Phone) != "" {
		return strings.TrimSpace(user.Phone), nil
	}
	return strings.TrimSpace(fallback), nil
}

func (s *OrderPlacementService) clearCartIfUnchanged(tx *gorm.DB, userID uint, chargedHash string) error {
	cartRepo := s.cartRepo.WithTx(tx)
	items, err := cartRepo.ListByUser(userID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	live, err := buildSnapshot(items, s.productRepo.WithTx(tx), s.now())
	if err != nil {
		if errors.Is(err, ErrProductNotAvailable) {
			return nil
		}
		return err
	}
	if live.Hash != chargedHash {
		logger.Infow("cart_diverged_kept", "user_id", userID, "charged_hash", chargedHash, "live_hash", live.Hash)
		return nil
	}
	return cartRepo.ClearByUser(userID)
}

// annotate 在独立事务中追加对账记录（主事务回滚后调用）
func (s *OrderPlacementService) annotate(paymentID uint, note models.ReconciliationNote) {
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.paymentRepo.WithTx(tx)
		locked, err := repo.LockByID(paymentID)
		if err != nil || locked == nil {
			return err
		}
		merged, err := locked.MetaData().Merge(models.PaymentMeta{Notes: []models.ReconciliationNote{note}})
		if err != nil {
			return err
		}
		locked.SetMeta(merged)
		return repo.Update(locked)
	})
	if err != nil {
		logger.Errorw("payment_note_append_failed", "payment_id", paymentID, "kind", note.Kind, "error", err)
	}
}

func (s *OrderPlacementService) loadPayment(input PlaceOrderForPaymentInput) (*models.Payment, error) {
	var (
		payment *models.Payment
		err     error
	)
	switch {
	case input.PaymentID != 0:
		payment, err = s.paymentRepo.GetByID(input.PaymentID)
	case strings.TrimSpace(input.TxRef) != "":
		payment, err = s.paymentRepo.GetByTxRef(input.TxRef)
	default:
		return nil, ErrPaymentInvalid
	}
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func snapshotTotal(snapshot *models.CartSnapshot) models.Money {
	total := models.Money{}
	if snapshot == nil {
		return total
	}
	for _, item := range snapshot.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func placementOutcome(result *PlacementResult, err error) string {
	if err == nil {
		if result != nil && result.AlreadyProcessed {
			return placementOutcomeAlreadyProcessed
		}
		return placementOutcomePlaced
	}
	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return placementOutcomeInsufficientStock
	case errors.Is(err, ErrAmountMismatch):
		return placementOutcomeAmountMismatch
	case errors.Is(err, ErrEmptyCart):
		return placementOutcomeEmptyCart
	case errors.Is(err, ErrOutsideDeliveryZone):
		return placementOutcomeOutsideZone
	case errors.Is(err, ErrIntegrityViolation):
		return placementOutcomeError
	default:
		return placementOutcomeRejected
	}
}
