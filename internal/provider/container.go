package provider

import (
	"context"
	"time"

	"github.com/campusdash/internal/authz"
	"github.com/campusdash/internal/cache"
	"github.com/campusdash/internal/config"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/metrics"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/payment/mobilemoney"
	"github.com/campusdash/internal/queue"
	"github.com/campusdash/internal/repository"
	"github.com/campusdash/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container 依赖注入容器
type Container struct {
	Config          *config.Config
	QueueClient     *queue.Client
	MetricsRegistry *prometheus.Registry
	StoreMetrics    *metrics.StoreMetrics

	// Repositories
	AdminRepo         repository.AdminRepository
	UserRepo          repository.UserRepository
	ProductRepo       repository.ProductRepository
	LocationRepo      repository.LocationRepository
	CartRepo          repository.CartRepository
	OrderRepo         repository.OrderRepository
	PaymentRepo       repository.PaymentRepository
	DeliveryRepo      repository.DeliveryRepository
	NotificationRepo  repository.NotificationRepository
	AuthzAuditLogRepo repository.AuthzAuditLogRepository

	// Services
	AuthzService          *authz.Service
	AuthService           *service.AuthService
	UserAuthService       *service.UserAuthService
	UserAdminService      *service.UserAdminService
	CaptchaService        *service.CaptchaService
	UploadService         *service.UploadService
	ProductService        *service.ProductService
	GeoZoneService        *service.GeoZoneService
	LocationService       *service.LocationService
	CartService           *service.CartService
	CartSnapshotBuilder   *service.CartSnapshotBuilder
	StockLedger           *service.StockLedger
	NotificationService   *service.NotificationService
	OrderPlacementService *service.OrderPlacementService
	OrderService          *service.OrderService
	PaymentService        *service.PaymentService
	DeliveryService       *service.DeliveryService
	AuthzAuditService     *service.AuthzAuditService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(context.Background(), &cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initMetrics()

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initMetrics() {
	if !c.Config.Metrics.Enabled {
		c.StoreMetrics = metrics.NewStoreMetrics(nil)
		return
	}
	c.MetricsRegistry = prometheus.NewRegistry()
	c.MetricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.StoreMetrics = metrics.NewStoreMetrics(c.MetricsRegistry)
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.LocationRepo = repository.NewLocationRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.DeliveryRepo = repository.NewDeliveryRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	// 队列未启用时传入 nil 接口，服务按不可用处理
	var enqueuer service.TaskEnqueuer
	if c.QueueClient != nil {
		enqueuer = c.QueueClient
	}

	cfg := c.Config
	c.AuthService = service.NewAuthService(cfg, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(cfg, c.UserRepo)
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)
	c.UserAdminService = service.NewUserAdminService(c.UserRepo, c.AuthzAuditService)
	c.CaptchaService = service.NewCaptchaService(cfg.Captcha)
	c.UploadService = service.NewUploadService(cfg.Upload)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.GeoZoneService = service.NewGeoZoneService(c.LocationRepo, time.Duration(cfg.Delivery.ZoneCacheSeconds)*time.Second)
	c.LocationService = service.NewLocationService(c.LocationRepo, c.GeoZoneService)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.CartSnapshotBuilder = service.NewCartSnapshotBuilder(c.CartRepo, c.ProductRepo)
	c.StockLedger = service.NewStockLedger(c.ProductRepo)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.UserRepo, enqueuer, c.StoreMetrics, cfg.Delivery.BroadcastBatchSize)
	c.OrderPlacementService = service.NewOrderPlacementService(
		c.PaymentRepo,
		c.OrderRepo,
		c.CartRepo,
		c.ProductRepo,
		c.DeliveryRepo,
		c.UserRepo,
		c.StockLedger,
		c.GeoZoneService,
		c.NotificationService,
		c.StoreMetrics,
		service.PlacementConfig{
			Tolerance:              cfg.Payment.Tolerance(),
			Currency:               cfg.Payment.Currency,
			VerificationCodeLength: cfg.Delivery.VerificationCodeLength,
		},
	)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.DeliveryRepo)
	c.DeliveryService = service.NewDeliveryService(c.DeliveryRepo, c.OrderRepo, c.UserRepo, c.NotificationService, c.StoreMetrics, service.DeliveryOptions{
		ConcealUnknownOrder: cfg.Delivery.ConcealUnknownOrder,
	})
	c.PaymentService = service.NewPaymentService(
		c.PaymentRepo,
		c.OrderRepo,
		c.CartSnapshotBuilder,
		c.GeoZoneService,
		c.OrderPlacementService,
		c.NotificationService,
		c.UploadService,
		c.newPaymentGateway(),
		enqueuer,
		c.StoreMetrics,
		service.PaymentOptions{
			Currency:       cfg.Payment.Currency,
			Tolerance:      cfg.Payment.Tolerance(),
			TxRefPrefix:    cfg.Payment.TxRefPrefix,
			ReconcileDelay: cfg.Payment.ReconcileDelay(),
			StaleAfter:     time.Duration(cfg.Payment.ReconcileStaleMinutes) * time.Minute,
			BatchSize:      cfg.Payment.ReconcileBatchSize,
		},
	)
}

// newPaymentGateway 网关未配置时返回 nil，仅支持人工凭证支付
func (c *Container) newPaymentGateway() service.PaymentGateway {
	gw := c.Config.Payment.Gateway
	mmCfg := mobilemoney.Config{
		BaseURL:       gw.BaseURL,
		APIKey:        gw.APIKey,
		WebhookSecret: gw.WebhookSecret,
		CallbackURL:   gw.CallbackURL,
		ReturnURL:     gw.ReturnURL,
		Timeout:       time.Duration(gw.TimeoutSeconds) * time.Second,
		Networks:      gw.Networks,
	}
	if err := mobilemoney.ValidateConfig(mmCfg); err != nil {
		logger.Warnw("provider_payment_gateway_disabled", "error", err)
		return nil
	}
	return mobilemoney.NewClient(mmCfg)
}

// Close 释放队列与缓存连接
func (c *Container) Close() {
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
