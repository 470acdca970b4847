package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/queue"
	"github.com/campusdash/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 测试区域：以 (-15.3900, 35.3200) 为中心、边长约 2.2km 的正方形
const (
	campusLat = -15.3900
	campusLng = 35.3200
)

type fakeEnqueuer struct {
	mu         sync.Mutex
	enabled    bool
	broadcasts []queue.BroadcastBatchPayload
	reconciles []queue.PaymentReconcilePayload
	delays     []time.Duration
}

func (f *fakeEnqueuer) Enabled() bool { return f.enabled }

func (f *fakeEnqueuer) EnqueueBroadcastBatch(payload queue.BroadcastBatchPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, payload)
	return nil
}

func (f *fakeEnqueuer) EnqueuePaymentReconcile(payload queue.PaymentReconcilePayload, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconciles = append(f.reconciles, payload)
	f.delays = append(f.delays, delay)
	return nil
}

func (f *fakeEnqueuer) popBroadcast() (queue.BroadcastBatchPayload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.broadcasts) == 0 {
		return queue.BroadcastBatchPayload{}, false
	}
	next := f.broadcasts[0]
	f.broadcasts = f.broadcasts[1:]
	return next, true
}

type workflowEnv struct {
	db            *gorm.DB
	paymentRepo   *repository.GormPaymentRepository
	orderRepo     *repository.GormOrderRepository
	cartRepo      *repository.GormCartRepository
	productRepo   *repository.GormProductRepository
	deliveryRepo  *repository.GormDeliveryRepository
	userRepo      *repository.GormUserRepository
	locationRepo  *repository.GormLocationRepository
	notifyRepo    *repository.GormNotificationRepository
	queue         *fakeEnqueuer
	geoZones      *GeoZoneService
	snapshots     *CartSnapshotBuilder
	notifications *NotificationService
	placement     *OrderPlacementService
	deliveries    *DeliveryService
	payments      *PaymentService
}

func newWorkflowEnv(t *testing.T, name string) *workflowEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), models.GormConfig(false))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 单连接：并发事务在连接池处排队，行为等价于行锁串行化
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	previous := models.DB
	models.DB = db
	t.Cleanup(func() {
		models.DB = previous
		_ = sqlDB.Close()
	})

	env := &workflowEnv{
		db:           db,
		paymentRepo:  repository.NewPaymentRepository(db),
		orderRepo:    repository.NewOrderRepository(db),
		cartRepo:     repository.NewCartRepository(db),
		productRepo:  repository.NewProductRepository(db),
		deliveryRepo: repository.NewDeliveryRepository(db),
		userRepo:     repository.NewUserRepository(db),
		locationRepo: repository.NewLocationRepository(db),
		notifyRepo:   repository.NewNotificationRepository(db),
		queue:        &fakeEnqueuer{enabled: true},
	}
	env.geoZones = NewGeoZoneService(env.locationRepo, 0)
	env.snapshots = NewCartSnapshotBuilder(env.cartRepo, env.productRepo)
	env.notifications = NewNotificationService(env.notifyRepo, env.userRepo, env.queue, nil, 3)
	ledger := NewStockLedger(env.productRepo)
	env.placement = NewOrderPlacementService(
		env.paymentRepo, env.orderRepo, env.cartRepo, env.productRepo, env.deliveryRepo, env.userRepo,
		ledger, env.geoZones, env.notifications, nil,
		PlacementConfig{Currency: "MWK", VerificationCodeLength: 6},
	)
	env.deliveries = NewDeliveryService(env.deliveryRepo, env.orderRepo, env.userRepo, env.notifications, nil, DeliveryOptions{})
	env.payments = env.newPaymentService(nil)
	return env
}

func (e *workflowEnv) newPaymentService(gateway PaymentGateway) *PaymentService {
	return NewPaymentService(
		e.paymentRepo, e.orderRepo, e.snapshots, e.geoZones, e.placement, e.notifications,
		NewUploadService(testUploadConfig()), gateway, e.queue, nil,
		PaymentOptions{Currency: "MWK", TxRefPrefix: "CDT", ReconcileDelay: time.Minute},
	)
}

func (e *workflowEnv) seedUser(t *testing.T, email, phone, role string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		Phone:        phone,
		PasswordHash: "x",
		Role:         role,
		Status:       constants.UserStatusActive,
	}
	require.NoError(t, e.userRepo.Create(user))
	return user
}

func (e *workflowEnv) seedProduct(t *testing.T, name string, price int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Slug:     fmt.Sprintf("p-%d", time.Now().UnixNano()),
		Price:    models.NewMoneyFromInt(price),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, e.productRepo.Create(product))
	return product
}

func (e *workflowEnv) seedCampusZone(t *testing.T, fee int64) *models.Location {
	t.Helper()
	zone := &models.Location{
		Name:        "Main campus",
		IsActive:    true,
		Polygon:     datatypes.NewJSONType(squareAround(campusLat, campusLng, 0.01)),
		DeliveryFee: models.NewMoneyFromInt(fee),
	}
	require.NoError(t, e.locationRepo.Create(zone))
	return zone
}

func (e *workflowEnv) addToCart(t *testing.T, userID, productID uint, qty int) {
	t.Helper()
	require.NoError(t, e.cartRepo.Upsert(&models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}))
}

// pendingPayment 走真实的快照与区域判定创建待支付记录
func (e *workflowEnv) pendingPayment(t *testing.T, userID uint, clientAmount int64) *models.Payment {
	t.Helper()
	payment, err := e.payments.createPending(context.Background(), pendingPaymentDraft{
		userID:    userID,
		provider:  constants.PaymentProviderManual,
		mobile:    "+265991234567",
		network:   "airtel",
		address:   "Hostel B, room 12",
		clientAmt: models.NewMoneyFromInt(clientAmount),
		lat:       campusLat,
		lng:       campusLng,
	}, 0)
	require.NoError(t, err)
	return payment
}

func (e *workflowEnv) reloadPayment(t *testing.T, id uint) *models.Payment {
	t.Helper()
	payment, err := e.paymentRepo.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, payment)
	return payment
}

func (e *workflowEnv) reloadProduct(t *testing.T, id uint) *models.Product {
	t.Helper()
	product, err := e.productRepo.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, product)
	return product
}

func (e *workflowEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func squareAround(lat, lng, half float64) models.GeoPolygon {
	return models.GeoPolygon{
		{lat - half, lng - half},
		{lat - half, lng + half},
		{lat + half, lng + half},
		{lat + half, lng - half},
	}
}

func money(v string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(v))
}
