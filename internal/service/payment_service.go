package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/metrics"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/payment/mobilemoney"
	"github.com/campusdash/internal/queue"
	"github.com/campusdash/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxReconcileAttempts = 6

// PaymentGateway 移动支付网关，由 *mobilemoney.Client 实现
type PaymentGateway interface {
	Initiate(ctx context.Context, input mobilemoney.InitiateInput) (*mobilemoney.InitiateResult, error)
	Verify(ctx context.Context, txRef string) (*mobilemoney.VerifyResult, error)
	SupportsNetwork(network string) bool
	WebhookSecret() string
}

// PaymentOptions 支付参数
type PaymentOptions struct {
	Currency       string
	Tolerance      decimal.Decimal
	TxRefPrefix    string
	ReconcileDelay time.Duration
	StaleAfter     time.Duration
	BatchSize      int
}

// PaymentService 支付服务
type PaymentService struct {
	paymentRepo     repository.PaymentRepository
	orderRepo       repository.OrderRepository
	snapshots       *CartSnapshotBuilder
	geoZones        *GeoZoneService
	placement       *OrderPlacementService
	notificationSvc *NotificationService
	uploads         *UploadService
	gateway         PaymentGateway
	queueClient     TaskEnqueuer
	metrics         *metrics.StoreMetrics
	opts            PaymentOptions
	now             func() time.Time
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	snapshots *CartSnapshotBuilder,
	geoZones *GeoZoneService,
	placement *OrderPlacementService,
	notificationSvc *NotificationService,
	uploads *UploadService,
	gateway PaymentGateway,
	queueClient TaskEnqueuer,
	storeMetrics *metrics.StoreMetrics,
	opts PaymentOptions,
) *PaymentService {
	if strings.TrimSpace(opts.Currency) == "" {
		opts.Currency = constants.CurrencyDefault
	}
	if opts.Tolerance.IsZero() || opts.Tolerance.IsNegative() {
		opts.Tolerance = decimal.RequireFromString("0.01")
	}
	if strings.TrimSpace(opts.TxRefPrefix) == "" {
		opts.TxRefPrefix = "CD"
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 10 * time.Minute
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	return &PaymentService{
		paymentRepo:     paymentRepo,
		orderRepo:       orderRepo,
		snapshots:       snapshots,
		geoZones:        geoZones,
		placement:       placement,
		notificationSvc: notificationSvc,
		uploads:         uploads,
		gateway:         gateway,
		queueClient:     queueClient,
		metrics:         storeMetrics,
		opts:            opts,
		now:             time.Now,
	}
}

// InitiatePaymentInput 发起移动支付输入
type InitiatePaymentInput struct {
	UserID     uint
	Amount     models.Money // 客户端金额，仅作参考
	Mobile     string
	Network    string
	Lat        float64
	Lng        float64
	Address    string
	LocationID uint
	Note       string
}

// InitiatePaymentResult 发起支付结果
type InitiatePaymentResult struct {
	CheckoutURL string          `json:"checkout_url"`
	TxRef       string          `json:"tx_ref"`
	Payment     *models.Payment `json:"payment"`
}

// UploadProofInput 上传付款凭证输入
type UploadProofInput struct {
	UserID        uint
	Image         *multipart.FileHeader
	ClaimedAmount models.Money
	Mobile        string
	Network       string
	Note          string
	Lat           float64
	Lng           float64
	Address       string
	LocationID    uint
}

// PaymentStatusResult 支付状态查询结果
type PaymentStatusResult struct {
	Payment          *models.Payment `json:"payment"`
	Order            *models.Order   `json:"order,omitempty"`
	AlreadyProcessed bool            `json:"already_processed"`
}

// pendingPaymentDraft 待创建的支付记录
type pendingPaymentDraft struct {
	userID    uint
	provider  string
	mobile    string
	network   string
	address   string
	note      string
	clientAmt models.Money
	proofRef  *string
	lat, lng  float64
}

// Initiate 冻结购物车、判定区域、核定金额后向网关发起扣款
func (s *PaymentService) Initiate(ctx context.Context, input InitiatePaymentInput) (*InitiatePaymentResult, error) {
	mobile := strings.TrimSpace(input.Mobile)
	network := strings.ToLower(strings.TrimSpace(input.Network))
	if mobile == "" {
		return nil, NewValidationError("mobile", "required")
	}
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}
	if !s.gateway.SupportsNetwork(network) {
		return nil, ErrNetworkNotSupported
	}

	payment, err := s.createPending(ctx, pendingPaymentDraft{
		userID:    input.UserID,
		provider:  constants.PaymentProviderMobileMoney,
		mobile:    mobile,
		network:   network,
		address:   input.Address,
		note:      input.Note,
		clientAmt: input.Amount,
		lat:       input.Lat,
		lng:       input.Lng,
	}, input.LocationID)
	if err != nil {
		return nil, err
	}
	log := logger.SW("tx_ref", payment.TxRef, "user_id", payment.UserID)

	// 网关调用在任何库存事务之外
	gwResult, gwErr := s.gateway.Initiate(ctx, mobilemoney.InitiateInput{
		TxRef:    payment.TxRef,
		Amount:   payment.Amount.Decimal,
		Currency: payment.Currency,
		Mobile:   payment.Mobile,
		Network:  payment.Network,
	})
	s.metrics.IncGatewayCall("initiate", gwErr)
	if gwErr != nil {
		if errors.Is(gwErr, mobilemoney.ErrRejected) {
			log.Warnw("payment_gateway_rejected", "error", gwErr)
			failed, _ := s.markFailed(payment.ID, models.NewTextNote(models.NoteSourceGateway, gwErr.Error(), s.now()))
			if failed != nil {
				payment = failed
			}
			return nil, fmt.Errorf("%w: %v", ErrGatewayRejected, gwErr)
		}
		log.Errorw("payment_gateway_unavailable", "operation", "initiate", "error", gwErr)
		s.appendNote(payment.ID, models.NewTextNote(models.NoteSourceGateway, "initiate failed: "+gwErr.Error(), s.now()), false)
		s.scheduleReconcile(payment.TxRef, 0)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, gwErr)
	}

	// 网关回调可能已先行落账，这里只写网关返回的列
	columns := map[string]interface{}{"checkout_url": gwResult.CheckoutURL}
	if gwResult.ProviderRef != "" {
		columns["provider_ref"] = gwResult.ProviderRef
	}
	if err := s.paymentRepo.UpdateColumns(payment.ID, columns); err != nil {
		return nil, err
	}
	if fresh, err := s.paymentRepo.GetByID(payment.ID); err == nil && fresh != nil {
		payment = fresh
	}
	s.scheduleReconcile(payment.TxRef, 0)
	log.Infow("payment_initiated", "amount", payment.Amount.String(), "provider_ref", gwResult.ProviderRef)
	return &InitiatePaymentResult{CheckoutURL: payment.CheckoutURL, TxRef: payment.TxRef, Payment: payment}, nil
}

// UploadProof 上传线下付款凭证，生成待人工审核的支付
func (s *PaymentService) UploadProof(ctx context.Context, input UploadProofInput) (*models.Payment, error) {
	if input.Image == nil {
		return nil, NewValidationError("image", "required")
	}
	if strings.TrimSpace(input.Mobile) == "" {
		return nil, NewValidationError("mobile", "required")
	}
	// 先完成快照与区域校验，再落盘图片
	if err := s.precheck(ctx, input.UserID, input.Lat, input.Lng, input.LocationID); err != nil {
		return nil, err
	}
	proofRef, err := s.uploads.SaveProofImage(input.Image)
	if err != nil {
		return nil, err
	}
	payment, err := s.createPending(ctx, pendingPaymentDraft{
		userID:    input.UserID,
		provider:  constants.PaymentProviderManual,
		mobile:    strings.TrimSpace(input.Mobile),
		network:   strings.ToLower(strings.TrimSpace(input.Network)),
		address:   input.Address,
		note:      input.Note,
		clientAmt: input.ClaimedAmount,
		proofRef:  &proofRef,
		lat:       input.Lat,
		lng:       input.Lng,
	}, input.LocationID)
	if err != nil {
		return nil, err
	}
	logger.Infow("payment_proof_uploaded", "tx_ref", payment.TxRef, "user_id", payment.UserID, "proof_ref", proofRef)
	return payment, nil
}

func (s *PaymentService) precheck(ctx context.Context, userID uint, lat, lng float64, locationID uint) error {
	if userID == 0 {
		return ErrInvalidInput
	}
	snapshot, err := s.snapshots.Build(userID)
	if err != nil {
		return err
	}
	if snapshot.IsEmpty() {
		return ErrEmptyCart
	}
	_, err = s.geoZones.ResolveDeliveryZone(ctx, lat, lng, locationID)
	return err
}

// createPending 冻结快照、判定区域并按"快照合计+配送费"核定金额后写入待支付记录
func (s *PaymentService) createPending(ctx context.Context, draft pendingPaymentDraft, locationID uint) (*models.Payment, error) {
	if draft.userID == 0 {
		return nil, ErrInvalidInput
	}
	address := strings.TrimSpace(draft.address)
	if address == "" {
		return nil, NewValidationError("address", "required")
	}
	snapshot, err := s.snapshots.Build(draft.userID)
	if err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}
	zone, err := s.geoZones.ResolveDeliveryZone(ctx, draft.lat, draft.lng, locationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	authoritative := snapshot.CartTotal.Add(zone.DeliveryFee)
	meta := models.PaymentMeta{
		CartSnapshot:    snapshot,
		Geofence:        GeofenceFor(zone, draft.lat, draft.lng, now),
		DeliveryAddress: address,
		CustomerNote:    strings.TrimSpace(draft.note),
	}
	if !draft.clientAmt.IsZero() {
		client := draft.clientAmt
		meta.ClientAmount = &client
		if !client.WithinTolerance(authoritative, s.opts.Tolerance) {
			meta.Notes = append(meta.Notes, models.NewAmountMismatchNote(authoritative, client, models.NoteSourceInitiation, now))
			logger.Warnw("payment_client_amount_mismatch",
				"user_id", draft.userID,
				"expected", authoritative.String(),
				"submitted", client.String(),
			)
		}
	}

	payment := &models.Payment{
		UserID:    draft.userID,
		TxRef:     s.newTxRef(),
		Provider:  draft.provider,
		Network:   draft.network,
		Mobile:    draft.mobile,
		Amount:    authoritative,
		Currency:  s.opts.Currency,
		Status:    constants.PaymentStatusPending,
		ProofRef:  draft.proofRef,
		CreatedAt: now,
		UpdatedAt: now,
	}
	payment.SetMeta(meta)
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}
	s.metrics.IncPaymentTransition(payment.Provider, constants.PaymentStatusPending)
	return payment, nil
}

// Status 查询支付状态：终态直接返回，网关支付实时查询并推进
func (s *PaymentService) Status(ctx context.Context, userID uint, txRef string) (*PaymentStatusResult, error) {
	payment, err := s.paymentRepo.GetByTxRef(txRef)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.UserID != userID {
		return nil, ErrPaymentNotFound
	}
	if payment.IsTerminal() || payment.Provider != constants.PaymentProviderMobileMoney {
		return s.statusResult(payment, false), nil
	}
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}

	verify, err := s.gateway.Verify(ctx, payment.TxRef)
	s.metrics.IncGatewayCall("verify", err)
	if err != nil {
		logger.Warnw("payment_gateway_unavailable", "operation", "verify", "tx_ref", payment.TxRef, "error", err)
		s.touchChecked(payment.ID)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return s.applyGatewayStatus(ctx, payment, verify.Status, verify.RawStatus, verify.ProviderRef, constants.PlacementTriggerStatusPoll)
}

// HandleCallback 处理网关回调；无法识别的状态仅记录不流转
func (s *PaymentService) HandleCallback(ctx context.Context, body []byte, signature string) (*PaymentStatusResult, error) {
	// 未配置网关时不存在合法回调
	if s.gateway == nil {
		logger.Warnw("payment_callback_gateway_disabled")
		return nil, ErrSignatureInvalid
	}
	if err := mobilemoney.VerifySignature(s.gateway.WebhookSecret(), body, signature); err != nil {
		logger.Warnw("payment_callback_signature_invalid", "error", err)
		return nil, ErrSignatureInvalid
	}
	data, err := mobilemoney.ParseCallback(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentInvalid, err)
	}
	logger.Infow("payment_callback_received", "tx_ref", data.TxRef, "status", data.Status, "provider_ref", data.ProviderRef)

	payment, err := s.paymentRepo.GetByTxRef(data.TxRef)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if payment.Provider != constants.PaymentProviderMobileMoney {
		return nil, ErrPaymentInvalid
	}
	return s.applyGatewayStatus(ctx, payment, mobilemoney.NormalizeStatus(data.Status), data.Status, data.ProviderRef, constants.PlacementTriggerGatewayCallback)
}

// applyGatewayStatus 根据网关状态推进支付
func (s *PaymentService) applyGatewayStatus(ctx context.Context, payment *models.Payment, status, rawStatus, providerRef, trigger string) (*PaymentStatusResult, error) {
	switch status {
	case mobilemoney.StatusSuccess:
		if payment.Status == constants.PaymentStatusFailed {
			s.appendNote(payment.ID, models.NewTextNote(models.NoteSourceGateway, "success reported for failed payment", s.now()), true)
			logger.Warnw("payment_success_after_failure", "tx_ref", payment.TxRef)
			return s.reload(payment), nil
		}
		result, err := s.placement.PlaceOrderForPayment(ctx, PlaceOrderForPaymentInput{
			PaymentID:   payment.ID,
			Trigger:     trigger,
			ProviderRef: providerRef,
		})
		if err != nil {
			return nil, err
		}
		return &PaymentStatusResult{Payment: result.Payment, Order: result.Order, AlreadyProcessed: result.AlreadyProcessed}, nil
	case mobilemoney.StatusFailed:
		if payment.Status == constants.PaymentStatusSuccess {
			s.appendNote(payment.ID, models.NewTextNote(models.NoteSourceGateway, "ignored status "+rawStatus+" on successful payment", s.now()), true)
			return s.reload(payment), nil
		}
		failed, err := s.markFailed(payment.ID, models.NewTextNote(models.NoteSourceGateway, "gateway status "+rawStatus, s.now()))
		if errors.Is(err, ErrPaymentStatusInvalid) {
			return s.reload(payment), nil
		}
		if err != nil {
			return nil, err
		}
		return s.statusResult(failed, false), nil
	case mobilemoney.StatusPending:
		s.touchChecked(payment.ID)
		return s.reload(payment), nil
	default:
		s.appendNote(payment.ID, models.NewTextNote(models.NoteSourceGateway, "unrecognized gateway status: "+rawStatus, s.now()), true)
		logger.Warnw("payment_status_unrecognized", "tx_ref", payment.TxRef, "status", rawStatus)
		return s.reload(payment), nil
	}
}

// Approve 管理员审核通过，触发下单（幂等）
func (s *PaymentService) Approve(ctx context.Context, adminID, paymentID uint) (*PlacementResult, error) {
	return s.placement.PlaceOrderForPayment(ctx, PlaceOrderForPaymentInput{
		PaymentID: paymentID,
		Trigger:   constants.PlacementTriggerAdminApprove,
		AdminID:   adminID,
	})
}

// Reject 管理员驳回待审核支付
func (s *PaymentService) Reject(ctx context.Context, adminID, paymentID uint, reason string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	switch payment.Status {
	case constants.PaymentStatusFailed:
		return payment, nil
	case constants.PaymentStatusSuccess:
		return nil, ErrPaymentStatusInvalid
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "rejected"
	}
	failed, err := s.markFailed(payment.ID, models.NewTextNote(models.NoteSourceAdmin, fmt.Sprintf("admin %d: %s", adminID, reason), s.now()))
	if err != nil {
		return nil, err
	}
	logger.Infow("payment_rejected", "tx_ref", failed.TxRef, "admin_id", adminID)
	return failed, nil
}

// ReconcilePending 异步对账：查询网关并推进，网关不可用时退避重试
func (s *PaymentService) ReconcilePending(ctx context.Context, payload queue.PaymentReconcilePayload) error {
	payment, err := s.paymentRepo.GetByTxRef(payload.TxRef)
	if err != nil {
		return err
	}
	if payment == nil || payment.IsTerminal() || payment.Provider != constants.PaymentProviderMobileMoney || s.gateway == nil {
		return nil
	}

	verify, err := s.gateway.Verify(ctx, payment.TxRef)
	s.metrics.IncGatewayCall("verify", err)
	if err != nil {
		s.touchChecked(payment.ID)
		logger.Warnw("payment_reconcile_gateway_error", "tx_ref", payment.TxRef, "attempt", payload.Attempt, "error", err)
		if payload.Attempt+1 < maxReconcileAttempts {
			s.scheduleReconcile(payment.TxRef, payload.Attempt+1)
		}
		return nil
	}

	_, err = s.applyGatewayStatus(ctx, payment, verify.Status, verify.RawStatus, verify.ProviderRef, constants.PlacementTriggerReconcile)
	if err == nil {
		return nil
	}
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) || errors.Is(err, ErrAmountMismatch) || errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrPaymentStatusInvalid) {
		// 已写入对账记录，等待人工处理
		return nil
	}
	return err
}

// ReconcileStalePayments 扫描长时间未终结的网关支付
func (s *PaymentService) ReconcileStalePayments(ctx context.Context) (int, error) {
	before := s.now().Add(-s.opts.StaleAfter)
	payments, err := s.paymentRepo.ListStalePending(constants.PaymentProviderMobileMoney, before, s.opts.BatchSize)
	if err != nil {
		return 0, err
	}
	processed := 0
	for _, payment := range payments {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if err := s.ReconcilePending(ctx, queue.PaymentReconcilePayload{TxRef: payment.TxRef, Attempt: maxReconcileAttempts}); err != nil {
			logger.Errorw("payment_reconcile_failed", "tx_ref", payment.TxRef, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

// ListAdmin 管理端支付列表
func (s *PaymentService) ListAdmin(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	return s.paymentRepo.ListAdmin(filter)
}

// GetAdmin 管理端支付详情
func (s *PaymentService) GetAdmin(id uint) (*PaymentStatusResult, error) {
	payment, err := s.paymentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return s.statusResult(payment, false), nil
}

func (s *PaymentService) statusResult(payment *models.Payment, alreadyProcessed bool) *PaymentStatusResult {
	result := &PaymentStatusResult{Payment: payment, AlreadyProcessed: alreadyProcessed}
	if order, err := s.orderRepo.GetByPaymentTxRef(payment.TxRef); err == nil && order != nil {
		result.Order = order
	}
	return result
}

func (s *PaymentService) reload(payment *models.Payment) *PaymentStatusResult {
	if fresh, err := s.paymentRepo.GetByID(payment.ID); err == nil && fresh != nil {
		payment = fresh
	}
	return s.statusResult(payment, false)
}

// markFailed pending -> failed，已终态时原样返回；已关联订单的支付拒绝流转
func (s *PaymentService) markFailed(paymentID uint, note models.ReconciliationNote) (*models.Payment, error) {
	var (
		payment     *models.Payment
		transitions bool
		linked      *models.Order
	)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.paymentRepo.WithTx(tx)
		locked, err := repo.LockByID(paymentID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrPaymentNotFound
		}
		payment = locked
		if locked.Status != constants.PaymentStatusPending {
			return nil
		}
		order, err := s.orderRepo.WithTx(tx).GetByPaymentTxRef(locked.TxRef)
		if err != nil {
			return err
		}
		if order != nil {
			linked = order
			return nil
		}
		merged, err := locked.MetaData().Merge(models.PaymentMeta{Notes: []models.ReconciliationNote{note}})
		if err != nil {
			return err
		}
		now := s.now()
		locked.SetMeta(merged)
		locked.Status = constants.PaymentStatusFailed
		locked.FailedAt = &now
		locked.LastCheckedAt = &now
		if err := repo.Update(locked); err != nil {
			return err
		}
		transitions = true
		return s.notificationSvc.NotifyTx(tx, NotifyInput{
			UserID: locked.UserID,
			Type:   constants.NotificationTypePaymentFailed,
			Title:  "Payment failed",
			Body:   fmt.Sprintf("Payment %s was not completed.", locked.TxRef),
			Ref:    locked.TxRef,
		})
	})
	if err != nil {
		return nil, err
	}
	if linked != nil {
		source := models.NoteSourceGateway
		if note.Note != nil {
			source = note.Note.Source
		}
		s.appendNote(payment.ID, models.NewTextNote(source, "failure refused, order "+linked.OrderCode+" already placed", s.now()), false)
		logger.Warnw("payment_fail_refused_order_linked", "tx_ref", payment.TxRef, "order_code", linked.OrderCode, "note_kind", note.Kind)
		return nil, ErrPaymentStatusInvalid
	}
	if transitions {
		s.metrics.IncPaymentTransition(payment.Provider, constants.PaymentStatusFailed)
		logger.Infow("payment_failed", "tx_ref", payment.TxRef, "note_kind", note.Kind)
	}
	return payment, nil
}

// appendNote 追加对账记录，touch 为 true 时同时刷新查询时间
func (s *PaymentService) appendNote(paymentID uint, note models.ReconciliationNote, touch bool) {
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
		if touch {
			now := s.now()
			locked.LastCheckedAt = &now
		}
		return repo.Update(locked)
	})
	if err != nil {
		logger.Errorw("payment_note_append_failed", "payment_id", paymentID, "kind", note.Kind, "error", err)
	}
}

func (s *PaymentService) touchChecked(paymentID uint) {
	now := s.now()
	if err := s.paymentRepo.UpdateColumns(paymentID, map[string]interface{}{"last_checked_at": now}); err != nil {
		logger.Warnw("payment_touch_failed", "payment_id", paymentID, "error", err)
	}
}

func (s *PaymentService) scheduleReconcile(txRef string, attempt int) {
	if !queueEnabled(s.queueClient) {
		return
	}
	// 指数退避：delay, 2*delay, 4*delay ...
	delay := s.opts.ReconcileDelay
	if delay <= 0 {
		delay = 2 * time.Minute
	}
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	if err := s.queueClient.EnqueuePaymentReconcile(queue.PaymentReconcilePayload{TxRef: txRef, Attempt: attempt}, delay); err != nil {
		logger.Warnw("payment_reconcile_enqueue_failed", "tx_ref", txRef, "attempt", attempt, "error", err)
	}
}

func (s *PaymentService) newTxRef() string {
	return s.opts.TxRefPrefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
