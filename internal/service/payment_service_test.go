package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/payment/mobilemoney"
	"github.com/campusdash/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec-test"

// fakeGateway 模拟移动支付网关：记录每笔扣款的状态
type fakeGateway struct {
	mu       sync.Mutex
	statuses map[string]string
	down     bool
	charges  int
}

func (g *fakeGateway) setStatus(txRef, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[txRef] = status
}

func (g *fakeGateway) setDown(down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.down = down
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	write := func(code int, payload map[string]interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(payload)
	}
	if g.down {
		write(http.StatusServiceUnavailable, map[string]interface{}{"message": "maintenance"})
		return
	}
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/charges":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["mobile"] == "+265000000000" {
			write(http.StatusBadRequest, map[string]interface{}{"status_code": 400, "message": "subscriber not found"})
			return
		}
		g.charges++
		g.statuses[body["tx_ref"]] = "pending"
		write(http.StatusOK, map[string]interface{}{
			"status_code": 200,
			"data": map[string]string{
				"provider_ref": "MM-" + body["tx_ref"],
				"checkout_url": "https://pay.example.test/checkout/" + body["tx_ref"],
				"status":       "pending",
			},
		})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/charges/"):
		txRef := strings.TrimPrefix(r.URL.Path, "/v1/charges/")
		status, ok := g.statuses[txRef]
		if !ok {
			write(http.StatusNotFound, map[string]interface{}{"status_code": 404, "message": "unknown charge"})
			return
		}
		write(http.StatusOK, map[string]interface{}{
			"status_code": 200,
			"data":        map[string]string{"status": status, "provider_ref": "MM-" + txRef},
		})
	default:
		write(http.StatusNotFound, map[string]interface{}{"status_code": 404})
	}
}

type paymentFixture struct {
	env      *workflowEnv
	gateway  *fakeGateway
	payments *PaymentService
	customer *models.User
	product  *models.Product
}

func newPaymentFixture(t *testing.T, name string) *paymentFixture {
	t.Helper()
	env := newWorkflowEnv(t, name)
	gateway := &fakeGateway{statuses: map[string]string{}}
	server := httptest.NewServer(gateway)
	t.Cleanup(server.Close)

	client := mobilemoney.NewClient(mobilemoney.Config{
		BaseURL:       server.URL,
		APIKey:        "test-key",
		WebhookSecret: testWebhookSecret,
		Timeout:       2 * time.Second,
		Networks:      []string{"airtel", "tnm"},
	})
	fx := &paymentFixture{
		env:      env,
		gateway:  gateway,
		payments: env.newPaymentService(client),
		customer: env.seedUser(t, "payer@campus.test", "+265991234567", constants.UserRoleCustomer),
		product:  env.seedProduct(t, "Rice 5kg", 2500, 10),
	}
	env.seedCampusZone(t, 500)
	env.addToCart(t, fx.customer.ID, fx.product.ID, 2)
	return fx
}

func (fx *paymentFixture) initiate(t *testing.T, mobile string) (*InitiatePaymentResult, error) {
	t.Helper()
	return fx.payments.Initiate(context.Background(), InitiatePaymentInput{
		UserID:  fx.customer.ID,
		Amount:  models.NewMoneyFromInt(5500),
		Mobile:  mobile,
		Network: "Airtel",
		Lat:     campusLat,
		Lng:     campusLng,
		Address: "Hostel B, room 12",
	})
}

func signedCallback(t *testing.T, txRef, status string) ([]byte, string) {
	t.Helper()
	body, err := json.Marshal(mobilemoney.CallbackData{TxRef: txRef, Status: status, ProviderRef: "MM-" + txRef})
	require.NoError(t, err)
	return body, mobilemoney.Sign(testWebhookSecret, body)
}

func TestInitiateThenCallbackPlacesOrderOnce(t *testing.T) {
	fx := newPaymentFixture(t, "payment_initiate_callback")
	ctx := context.Background()

	initiated, err := fx.initiate(t, "+265991234567")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(initiated.TxRef, "CDT-"))
	assert.Equal(t, "https://pay.example.test/checkout/"+initiated.TxRef, initiated.CheckoutURL)
	assert.Equal(t, constants.PaymentStatusPending, initiated.Payment.Status)
	assert.Equal(t, constants.PaymentProviderMobileMoney, initiated.Payment.Provider)
	assert.Equal(t, "airtel", initiated.Payment.Network)
	require.Len(t, fx.env.queue.reconciles, 1)
	assert.Equal(t, queue.PaymentReconcilePayload{TxRef: initiated.TxRef}, fx.env.queue.reconciles[0])
	assert.Equal(t, time.Minute, fx.env.queue.delays[0])

	body, signature := signedCallback(t, initiated.TxRef, "successful")
	_, err = fx.payments.HandleCallback(ctx, body, "deadbeef")
	require.ErrorIs(t, err, ErrSignatureInvalid)

	first, err := fx.payments.HandleCallback(ctx, body, signature)
	require.NoError(t, err)
	require.NotNil(t, first.Order)
	assert.False(t, first.AlreadyProcessed)
	assert.Equal(t, constants.PaymentStatusSuccess, first.Payment.Status)
	require.NotNil(t, first.Payment.ProviderRef)
	assert.Equal(t, "MM-"+initiated.TxRef, *first.Payment.ProviderRef)

	// 网关重复回调
	second, err := fx.payments.HandleCallback(ctx, body, signature)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.Order.OrderCode, second.Order.OrderCode)
	assert.EqualValues(t, 1, fx.env.count(t, &models.Order{}))
	assert.Equal(t, 8, fx.env.reloadProduct(t, fx.product.ID).Stock)

	status, err := fx.payments.Status(ctx, fx.customer.ID, initiated.TxRef)
	require.NoError(t, err)
	assert.Equal(t, first.Order.OrderCode, status.Order.OrderCode)
}

// settlingGateway 在发起扣款返回之前就完成落账，模拟比响应更快到达的回调
type settlingGateway struct {
	PaymentGateway
	env    *workflowEnv
	placed *PlacementResult
}

func (g *settlingGateway) Initiate(ctx context.Context, input mobilemoney.InitiateInput) (*mobilemoney.InitiateResult, error) {
	result, err := g.PaymentGateway.Initiate(ctx, input)
	if err != nil {
		return nil, err
	}
	g.placed, err = g.env.placement.PlaceOrderForPayment(ctx, PlaceOrderForPaymentInput{
		TxRef:       input.TxRef,
		Trigger:     constants.PlacementTriggerGatewayCallback,
		ProviderRef: result.ProviderRef,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func TestInitiateKeepsSettlementFromEarlyCallback(t *testing.T) {
	fx := newPaymentFixture(t, "payment_initiate_early_callback")
	ctx := context.Background()
	gateway := &settlingGateway{PaymentGateway: fx.payments.gateway, env: fx.env}
	fx.payments.gateway = gateway

	initiated, err := fx.initiate(t, "+265991234567")
	require.NoError(t, err)
	require.NotNil(t, gateway.placed)
	orderCode := gateway.placed.Order.OrderCode

	stored := fx.env.reloadPayment(t, initiated.Payment.ID)
	assert.Equal(t, constants.PaymentStatusSuccess, stored.Status)
	assert.NotNil(t, stored.PaidAt)
	assert.Equal(t, orderCode, stored.MetaData().OrderCode)
	assert.Equal(t, "https://pay.example.test/checkout/"+initiated.TxRef, stored.CheckoutURL)
	assert.Equal(t, constants.PaymentStatusSuccess, initiated.Payment.Status)

	// 之后网关报告失败：已成功的支付不回退
	fx.gateway.setStatus(initiated.TxRef, "declined")
	polled, err := fx.payments.Status(ctx, fx.customer.ID, initiated.TxRef)
	require.NoError(t, err)
	assert.Equal(t, constants.PaymentStatusSuccess, polled.Payment.Status)
	assert.Equal(t, orderCode, polled.Order.OrderCode)
}

func TestFailureRefusedWhenOrderAlreadyPlaced(t *testing.T) {
	fx := newPaymentFixture(t, "payment_fail_order_linked")
	ctx := context.Background()
	initiated, err := fx.initiate(t, "+265991234567")
	require.NoError(t, err)
	body, signature := signedCallback(t, initiated.TxRef, "success")
	placed, err := fx.payments.HandleCallback(ctx, body, signature)
	require.NoError(t, err)
	require.NotNil(t, placed.Order)

	// 人为把状态改回 pending，模拟被覆盖写回的旧数据
	require.NoError(t, fx.env.db.Model(&models.Payment{}).Where("id = ?", initiated.Payment.ID).
		UpdateColumn("status", constants.PaymentStatusPending).Error)

	body, signature = signedCallback(t, initiated.TxRef, "declined")
	result, err := fx.payments.HandleCallback(ctx, body, signature)
	require.NoError(t, err)
	assert.Equal(t, constants.PaymentStatusPending, result.Payment.Status)
	assert.Equal(t, placed.Order.OrderCode, result.Order.OrderCode)
	assert.Nil(t, result.Payment.FailedAt)
	assert.True(t, result.Payment.MetaData().HasNote(models.NoteKindNote))

	_, err = fx.payments.Reject(ctx, 1, initiated.Payment.ID, "duplicate")
	require.ErrorIs(t, err, ErrPaymentStatusInvalid)
	assert.Equal(t, constants.PaymentStatusPending, fx.env.reloadPayment(t, initiated.Payment.ID).Status)
}

func TestInitiateRejectedByGatewayFailsPayment(t *testing.T) {
	fx := newPaymentFixture(t, "payment_initiate_rejected")

	_, err := fx.initiate(t, "+265000000000")
	require.ErrorIs(t, err, ErrGatewayRejected)

	var payment models.Payment
	require.NoError(t, fx.env.db.First(&payment).Error)
	assert.Equal(t, constants.PaymentStatusFailed, payment.Status)
	assert.NotNil(t, payment.FailedAt)
	assert.Empty(t, fx.env.queue.reconciles)
	assert.Equal(t, 10, fx.env.reloadProduct(t, fx.product.ID).Stock)
}

func TestInitiateGatewayDownSchedulesReconcile(t *testing.T) {
	fx := newPaymentFixture(t, "payment_initiate_down")
	ctx := context.Background()
	fx.gateway.setDown(true)

	_, err := fx.initiate(t, "+265991234567")
	require.ErrorIs(t, err, ErrGatewayUnavailable)

	var payment models.Payment
	require.NoError(t, fx.env.db.First(&payment).Error)
	assert.Equal(t, constants.PaymentStatusPending, payment.Status)
	assert.True(t, payment.MetaData().HasNote(models.NoteKindNote))
	require.Len(t, fx.env.queue.reconciles, 1)

	// 对账时网关仍不可用：退避后再次投递
	require.NoError(t, fx.payments.ReconcilePending(ctx, fx.env.queue.reconciles[0]))
	require.Len(t, fx.env.queue.reconciles, 2)
	assert.Equal(t, 1, fx.env.queue.reconciles[1].Attempt)
	assert.Equal(t, 2*time.Minute, fx.env.queue.delays[1])

	// 达到最大次数后不再投递
	require.NoError(t, fx.payments.ReconcilePending(ctx, queue.PaymentReconcilePayload{TxRef: payment.TxRef, Attempt: maxReconcileAttempts - 1}))
	assert.Len(t, fx.env.queue.reconciles, 2)

	fx.gateway.setDown(false)
	fx.gateway.setStatus(payment.TxRef, "completed")
	require.NoError(t, fx.payments.ReconcilePending(ctx, queue.PaymentReconcilePayload{TxRef: payment.TxRef, Attempt: 2}))
	assert.Equal(t, constants.PaymentStatusSuccess, fx.env.reloadPayment(t, payment.ID).Status)
	assert.EqualValues(t, 1, fx.env.count(t, &models.Order{}))
}

func TestInitiateValidatesNetworkAndMobile(t *testing.T) {
	fx := newPaymentFixture(t, "payment_initiate_validation")
	ctx := context.Background()

	_, err := fx.payments.Initiate(ctx, InitiatePaymentInput{UserID: fx.customer.ID, Mobile: "+265991234567", Network: "mpamba", Lat: campusLat, Lng: campusLng, Address: "x"})
	require.ErrorIs(t, err, ErrNetworkNotSupported)

	_, err = fx.payments.Initiate(ctx, InitiatePaymentInput{UserID: fx.customer.ID, Network: "airtel", Lat: campusLat, Lng: campusLng, Address: "x"})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = fx.payments.Initiate(ctx, InitiatePaymentInput{UserID: fx.customer.ID, Mobile: "+265991234567", Network: "airtel", Lat: -13.9626, Lng: 33.7741, Address: "x"})
	require.ErrorIs(t, err, ErrOutsideDeliveryZone)

	assert.Zero(t, fx.env.count(t, &models.Payment{}))
	assert.Zero(t, fx.gateway.charges)
}

func TestStatusPollFailureAndOwnership(t *testing.T) {
	fx := newPaymentFixture(t, "payment_status_poll")
	ctx := context.Background()
	initiated, err := fx.initiate(t, "+265991234567")
	require.NoError(t, err)

	pending, err := fx.payments.Status(ctx, fx.customer.ID, initiated.TxRef)
	require.NoError(t, err)
	assert.Equal(t, constants.PaymentStatusPending, pending.Payment.Status)
	assert.NotNil(t, pending.Payment.LastCheckedAt)

	_, err = fx.payments.Status(ctx, fx.customer.ID+100, initiated.TxRef)
	require.ErrorIs(t, err, ErrPaymentNotFound)

	fx.gateway.setStatus(initiated.TxRef, "declined")
	failed, err := fx.payments.Status(ctx, fx.customer.ID, initiated.TxRef)
	require.NoError(t, err)
	assert.Equal(t, constants.PaymentStatusFailed, failed.Payment.Status)
	assert.Nil(t, failed.Order)

	// 失败后网关又报告成功：不流转，只记录
	body, signature := signedCallback(t, initiated.TxRef, "success")
	late, err := fx.payments.HandleCallback(ctx, body, signature)
	require.NoError(t, err)
	assert.Equal(t, constants.PaymentStatusFailed, late.Payment.Status)
	assert.Zero(t, fx.env.count(t, &models.Order{}))

	notes, _, err := fx.env.notifications.List(fx.customer.ID, 1, 10, false)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, constants.NotificationTypePaymentFailed, notes[0].Type)
}

func TestCallbackUnknownStatusKeepsPending(t *testing.T) {
	fx := newPaymentFixture(t, "payment_callback_unknown")
	ctx := context.Background()
	initiated, err := fx.initiate(t, "+265991234567")
	require.NoError(t, err)

	body, signature := signedCallback(t, initiated.TxRef, "on_hold")
	result, err := fx.payments.HandleCallback(ctx, body, signature)
	require.NoError(t, err)
	assert.Equal(t, constants.PaymentStatusPending, result.Payment.Status)
	assert.True(t, result.Payment.MetaData().HasNote(models.NoteKindNote))

	body, signature = signedCallback(t, "CDT-missing", "success")
	_, err = fx.payments.HandleCallback(ctx, body, signature)
	require.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = fx.payments.HandleCallback(ctx, []byte(`{}`), mobilemoney.Sign(testWebhookSecret, []byte(`{}`)))
	require.ErrorIs(t, err, ErrPaymentInvalid)
}

func TestCallbackIgnoresManualPayments(t *testing.T) {
	fx := newPaymentFixture(t, "payment_callback_manual")
	manual := fx.env.pendingPayment(t, fx.customer.ID, 5500)

	body, signature := signedCallback(t, manual.TxRef, "success")
	_, err := fx.payments.HandleCallback(context.Background(), body, signature)
	require.ErrorIs(t, err, ErrPaymentInvalid)
	assert.Equal(t, constants.PaymentStatusPending, fx.env.reloadPayment(t, manual.ID).Status)
}

func TestUploadProofCreatesManualPayment(t *testing.T) {
	fx := newPaymentFixture(t, "payment_upload_proof")
	ctx := context.Background()

	payment, err := fx.payments.UploadProof(ctx, UploadProofInput{
		UserID:        fx.customer.ID,
		Image:         pngFileHeader(t, "receipt.png", 40, 40),
		ClaimedAmount: models.NewMoneyFromInt(5500),
		Mobile:        "+265991234567",
		Network:       "TNM",
		Lat:           campusLat,
		Lng:           campusLng,
		Address:       "Hostel B, room 12",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.PaymentProviderManual, payment.Provider)
	require.NotNil(t, payment.ProofRef)
	assert.True(t, strings.HasPrefix(*payment.ProofRef, "/uploads/proof/"))
	assert.Equal(t, "5500.00", payment.Amount.String())

	_, err = fx.payments.UploadProof(ctx, UploadProofInput{
		UserID:  fx.customer.ID,
		Image:   pngFileHeader(t, "receipt.png", 40, 40),
		Mobile:  "+265991234567",
		Lat:     -13.9626,
		Lng:     33.7741,
		Address: "Lilongwe",
	})
	require.ErrorIs(t, err, ErrOutsideDeliveryZone)
	assert.EqualValues(t, 1, fx.env.count(t, &models.Payment{}))
}

func TestReconcileStalePayments(t *testing.T) {
	fx := newPaymentFixture(t, "payment_reconcile_stale")
	ctx := context.Background()
	initiated, err := fx.initiate(t, "+265991234567")
	require.NoError(t, err)

	stale := fx.env.reloadPayment(t, initiated.Payment.ID)
	old := time.Now().Add(-time.Hour)
	stale.CreatedAt = old
	stale.LastCheckedAt = &old
	require.NoError(t, fx.env.paymentRepo.Update(stale))
	fx.gateway.setStatus(initiated.TxRef, "success")

	processed, err := fx.payments.ReconcileStalePayments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, constants.PaymentStatusSuccess, fx.env.reloadPayment(t, initiated.Payment.ID).Status)

	processed, err = fx.payments.ReconcileStalePayments(ctx)
	require.NoError(t, err)
	assert.Zero(t, processed)
}
