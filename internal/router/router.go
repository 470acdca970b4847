package router

import (
	"net/http"
	"sort"
	"strings"

	"github.com/campusdash/internal/authz"
	"github.com/campusdash/internal/cache"
	"github.com/campusdash/internal/config"
	"github.com/campusdash/internal/constants"
	adminhandlers "github.com/campusdash/internal/http/handlers/admin"
	publichandlers "github.com/campusdash/internal/http/handlers/public"
	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()
	handlershared.RegisterValidatorTagNames()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cd"
	}
	redisClient := cache.Client()
	sec := cfg.Security
	loginRule := newRateLimitRule(redisPrefix, "login", sec.LoginRateLimit, "error.login_too_many")
	adminLoginRule := newRateLimitRule(redisPrefix, "admin_login", sec.LoginRateLimit, "error.login_too_many")
	verifyRule := newRateLimitRule(redisPrefix, "delivery_verify", sec.VerifyRateLimit, "error.verify_too_many")
	payRule := newRateLimitRule(redisPrefix, "payment", sec.PayRateLimit, "error.payment_too_many")

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 静态文件服务（商品图片与支付凭证）
	uploadDir := strings.TrimSpace(cfg.Upload.Dir)
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	r.Static("/uploads", uploadDir)

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:id", publicHandler.GetProduct)
			public.GET("/zones", publicHandler.GetZones)
			public.POST("/zones/check", publicHandler.CheckZone)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 支付网关回调（签名校验，无需鉴权）
		apiV1.POST("/payment/callback", publicHandler.PaymentCallback)

		// 收货核验：配送员现场输入订单号与收货人手机号
		apiV1.POST("/delivery/verify", RateLimitMiddleware(redisClient, verifyRule, KeyByIPAndJSONField("order_code")), publicHandler.VerifyDelivery)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserAuthService))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.PUT("/me/profile", publicHandler.UpdateUserProfile)
			user.PUT("/me/password", publicHandler.ChangeUserPassword)

			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.UpsertCartItem)
			user.DELETE("/cart/items/:product_id", publicHandler.DeleteCartItem)

			user.POST("/checkout/place-order", publicHandler.PlaceOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:code", publicHandler.GetOrderByCode)

			user.POST("/payment/initiate", RateLimitMiddleware(redisClient, payRule, KeyByUserOrIP), publicHandler.InitiatePayment)
			user.GET("/payment/status", publicHandler.GetPaymentStatus)
			user.POST("/payment/upload-proof", RateLimitMiddleware(redisClient, payRule, KeyByUserOrIP), publicHandler.UploadPaymentProof)

			user.GET("/notifications", publicHandler.ListNotifications)
			user.POST("/notifications/:id/read", publicHandler.MarkNotificationRead)

			// 配送员接口
			courier := user.Group("/deliveries")
			courier.Use(RequireUserRole(constants.UserRoleDelivery))
			{
				courier.GET("/assigned", publicHandler.ListAssignedDeliveries)
				courier.POST("/confirm", RateLimitMiddleware(redisClient, verifyRule, KeyByUserOrIP), publicHandler.ConfirmDelivery)
			}
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AuthService), AdminRBACMiddleware(c.AuthzService))
			{
				// 商品与图片
				authorized.GET("/products", adminHandler.GetAdminProducts)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.POST("/upload", adminHandler.UploadFile)

				// 配送区域
				authorized.GET("/locations", adminHandler.GetAdminLocations)
				authorized.POST("/locations", adminHandler.CreateLocation)
				authorized.PUT("/locations/:id", adminHandler.UpdateLocation)

				// 订单
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)

				// 支付审核
				authorized.GET("/payments", adminHandler.GetAdminPayments)
				authorized.GET("/payments/export", adminHandler.ExportAdminPayments)
				authorized.GET("/payments/:id", adminHandler.GetAdminPayment)
				authorized.POST("/payments/:id/approve", adminHandler.ApproveAdminPayment)
				authorized.POST("/payments/:id/reject", adminHandler.RejectAdminPayment)

				// 配送调度
				authorized.GET("/deliveries", adminHandler.AdminListDeliveries)
				authorized.GET("/deliveries/:id", adminHandler.AdminGetDelivery)
				authorized.POST("/deliveries/:id/assign", adminHandler.AssignDelivery)
				authorized.POST("/deliveries/:id/fail", adminHandler.FailDelivery)

				// 用户与通知
				authorized.GET("/users", adminHandler.GetAdminUsers)
				authorized.PUT("/users/:id/role", adminHandler.UpdateUserRole)
				authorized.POST("/notifications/broadcast", adminHandler.CreateBroadcast)
				authorized.GET("/notifications/broadcasts/:id", adminHandler.GetBroadcast)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
				authorized.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)
				authorized.GET("/authz/permissions", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled && c.MetricsRegistry != nil {
		metricsPath := strings.TrimSpace(cfg.Metrics.Path)
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(promhttp.HandlerFor(c.MetricsRegistry, promhttp.HandlerOpts{})))
	}

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
