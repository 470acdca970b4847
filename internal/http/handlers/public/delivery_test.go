package public

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/provider"
	"github.com/campusdash/internal/repository"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type envelopeAssert struct {
	StatusCode int                    `json:"status_code"`
	Msg        string                 `json:"msg"`
	Data       map[string]interface{} `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelopeAssert {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", w.Code)
	}
	var resp envelopeAssert
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp
}

func setupDeliveryHandlerTest(t *testing.T, opts service.DeliveryOptions) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:public_delivery_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	previous := models.DB
	models.DB = db
	t.Cleanup(func() { models.DB = previous })

	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), userRepo, nil, nil, 0)
	deliveries := service.NewDeliveryService(deliveryRepo, orderRepo, userRepo, notifications, nil, opts)

	h := &Handler{Container: &provider.Container{
		OrderRepo:       orderRepo,
		DeliveryRepo:    deliveryRepo,
		DeliveryService: deliveries,
	}}
	return h, db
}

func seedDispatchedOrder(t *testing.T, db *gorm.DB, code, phone string) *models.Order {
	t.Helper()
	user := models.User{Email: strings.ToLower(code) + "@campus.test", Phone: phone, PasswordHash: "hash", Status: constants.UserStatusActive}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	order := models.Order{
		OrderCode:     code,
		UserID:        user.ID,
		CustomerPhone: phone,
		Total:         models.NewMoneyFromInt(3000),
		Currency:      "MWK",
		Status:        constants.OrderStatusPendingDelivery,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if err := db.Create(&models.Delivery{
		OrderID:          order.ID,
		Status:           constants.DeliveryStatusPending,
		VerificationCode: "123456",
	}).Error; err != nil {
		t.Fatalf("create delivery failed: %v", err)
	}
	return &order
}

func performVerify(h *Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/delivery/verify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	h.VerifyDelivery(c)
	return w
}

func TestVerifyDeliveryRequiresFields(t *testing.T) {
	h, _ := setupDeliveryHandlerTest(t, service.DeliveryOptions{})

	resp := decodeEnvelope(t, performVerify(h, `{"order_code":"CD1"}`))
	if resp.StatusCode != 400 {
		t.Fatalf("status_code want 400 got %d", resp.StatusCode)
	}
	if _, ok := resp.Data["fields"]; !ok {
		t.Fatalf("validation response should list fields: %+v", resp.Data)
	}
}

func TestVerifyDeliveryByPhoneChallenge(t *testing.T) {
	h, db := setupDeliveryHandlerTest(t, service.DeliveryOptions{})
	order := seedDispatchedOrder(t, db, "CDVERIFY001", "+265991234567")

	resp := decodeEnvelope(t, performVerify(h, `{"order_code":"CDVERIFY001","phone":"+265990000000"}`))
	if resp.StatusCode != 403 {
		t.Fatalf("wrong phone status_code want 403 got %d", resp.StatusCode)
	}

	resp = decodeEnvelope(t, performVerify(h, `{"order_code":"CDVERIFY001","phone":"+265991234567"}`))
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	if resp.Data["status"] != constants.OrderStatusDelivered {
		t.Fatalf("order status want delivered got %v", resp.Data["status"])
	}

	var delivery models.Delivery
	if err := db.Where("order_id = ?", order.ID).First(&delivery).Error; err != nil {
		t.Fatalf("load delivery failed: %v", err)
	}
	if delivery.Status != constants.DeliveryStatusCompleted || delivery.VerificationCode != "" {
		t.Fatalf("delivery not completed: %+v", delivery)
	}

	// 已签收订单再次核验返回冲突
	resp = decodeEnvelope(t, performVerify(h, `{"order_code":"CDVERIFY001","phone":"+265991234567"}`))
	if resp.StatusCode != 409 {
		t.Fatalf("repeat verify status_code want 409 got %d", resp.StatusCode)
	}
}

func TestVerifyDeliveryUnknownOrder(t *testing.T) {
	h, _ := setupDeliveryHandlerTest(t, service.DeliveryOptions{})
	resp := decodeEnvelope(t, performVerify(h, `{"order_code":"CDMISSING","phone":"+265991234567"}`))
	if resp.StatusCode != 404 {
		t.Fatalf("status_code want 404 got %d", resp.StatusCode)
	}

	concealed, _ := setupDeliveryHandlerTest(t, service.DeliveryOptions{ConcealUnknownOrder: true})
	resp = decodeEnvelope(t, performVerify(concealed, `{"order_code":"CDMISSING","phone":"+265991234567"}`))
	if resp.StatusCode != 403 {
		t.Fatalf("concealed status_code want 403 got %d", resp.StatusCode)
	}
}

func TestPaymentCallbackRejectedWithoutGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)

	payments := service.NewPaymentService(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, service.PaymentOptions{})
	h := &Handler{Container: &provider.Container{PaymentService: payments}}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/callback", strings.NewReader(`{"tx_ref":"CD1","status":"successful"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.PaymentCallback(c)

	resp := decodeEnvelope(t, w)
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}
