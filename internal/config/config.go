package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/campusdash/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	UserJWT  JWTConfig      `mapstructure:"user_jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Upload   UploadConfig   `mapstructure:"upload"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Captcha  CaptchaConfig  `mapstructure:"captcha"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host                string `mapstructure:"host"`
	Port                string `mapstructure:"port"`
	Mode                string `mapstructure:"mode"` // debug / release
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Console    bool   `mapstructure:"console"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		Level:      c.Level,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Console:    c.Console,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// UploadConfig 文件上传配置
type UploadConfig struct {
	Dir               string   `mapstructure:"dir"`
	MaxSize           int64    `mapstructure:"max_size"`
	AllowedTypes      []string `mapstructure:"allowed_types"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	MaxWidth          int      `mapstructure:"max_width"`
	MaxHeight         int      `mapstructure:"max_height"`
	ProofMaxEdge      int      `mapstructure:"proof_max_edge"`     // 支付凭证缩放后的最长边
	ProofJPEGQuality  int      `mapstructure:"proof_jpeg_quality"` // 支付凭证重新编码质量
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	LoginRateLimit  RateLimitConfig      `mapstructure:"login_rate_limit"`
	VerifyRateLimit RateLimitConfig      `mapstructure:"verify_rate_limit"`
	PayRateLimit    RateLimitConfig      `mapstructure:"pay_rate_limit"`
	PasswordPolicy  PasswordPolicyConfig `mapstructure:"password_policy"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// PasswordPolicyConfig 密码策略配置
type PasswordPolicyConfig struct {
	MinLength     int  `mapstructure:"min_length"`
	RequireLetter bool `mapstructure:"require_letter"`
	RequireNumber bool `mapstructure:"require_number"`
}

// CaptchaConfig 图片验证码配置
type CaptchaConfig struct {
	DeliveryVerify bool `mapstructure:"delivery_verify"` // 签收核验是否需要图片验证码
	Length         int  `mapstructure:"length"`
	Width          int  `mapstructure:"width"`
	Height         int  `mapstructure:"height"`
	NoiseCount     int  `mapstructure:"noise_count"`
	ShowLine       int  `mapstructure:"show_line"`
	ExpireSeconds  int  `mapstructure:"expire_seconds"`
	MaxStore       int  `mapstructure:"max_store"`
}

// PaymentConfig 支付配置
type PaymentConfig struct {
	Currency              string        `mapstructure:"currency"`
	AmountTolerance       string        `mapstructure:"amount_tolerance"`
	TxRefPrefix           string        `mapstructure:"tx_ref_prefix"`
	ReconcileDelaySeconds int           `mapstructure:"reconcile_delay_seconds"`
	ReconcileIntervalSecs int           `mapstructure:"reconcile_interval_seconds"`
	ReconcileStaleMinutes int           `mapstructure:"reconcile_stale_minutes"`
	ReconcileBatchSize    int           `mapstructure:"reconcile_batch_size"`
	Gateway               GatewayConfig `mapstructure:"gateway"`
}

// Tolerance 金额比对容差
func (c PaymentConfig) Tolerance() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(c.AmountTolerance))
	if err != nil || d.IsNegative() {
		return decimal.RequireFromString("0.01")
	}
	return d
}

// ReconcileDelay 发起支付后首次对账延迟
func (c PaymentConfig) ReconcileDelay() time.Duration {
	return time.Duration(c.ReconcileDelaySeconds) * time.Second
}

// GatewayConfig 移动支付网关配置
type GatewayConfig struct {
	BaseURL        string   `mapstructure:"base_url"`
	APIKey         string   `mapstructure:"api_key"`
	WebhookSecret  string   `mapstructure:"webhook_secret"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	CallbackURL    string   `mapstructure:"callback_url"`
	ReturnURL      string   `mapstructure:"return_url"`
	Networks       []string `mapstructure:"networks"`
}

// DeliveryConfig 配送配置
type DeliveryConfig struct {
	VerificationCodeLength int  `mapstructure:"verification_code_length"`
	ConcealUnknownOrder    bool `mapstructure:"conceal_unknown_order"` // 签收核验时不区分订单不存在与手机号不匹配
	BroadcastBatchSize     int  `mapstructure:"broadcast_batch_size"`
	ZoneCacheSeconds       int  `mapstructure:"zone_cache_seconds"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load 加载 .env 与 config.yml，环境变量优先
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		logger.Infow("dotenv_loaded", "file", ".env")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("./etc")

	setDefaults(viper.GetViper())

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // server.port -> SERVER_PORT

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "campusdash.log")
	v.SetDefault("log.level", "")
	v.SetDefault("log.max_size_mb", 64)
	v.SetDefault("log.max_backups", 10)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.console", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/campusdash.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 12)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.expire_hours", 168)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "cd")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"critical": 6,
		"default":  3,
		"low":      1,
	})
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_size", 8388608)
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/webp"})
	v.SetDefault("upload.allowed_extensions", []string{".jpg", ".jpeg", ".png", ".webp"})
	v.SetDefault("upload.max_width", 6000)
	v.SetDefault("upload.max_height", 6000)
	v.SetDefault("upload.proof_max_edge", 1600)
	v.SetDefault("upload.proof_jpeg_quality", 82)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Authorization",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.login_rate_limit.window_seconds", 300)
	v.SetDefault("security.login_rate_limit.max_attempts", 5)
	v.SetDefault("security.login_rate_limit.block_seconds", 900)
	v.SetDefault("security.verify_rate_limit.window_seconds", 600)
	v.SetDefault("security.verify_rate_limit.max_attempts", 10)
	v.SetDefault("security.verify_rate_limit.block_seconds", 1800)
	v.SetDefault("security.pay_rate_limit.window_seconds", 60)
	v.SetDefault("security.pay_rate_limit.max_attempts", 6)
	v.SetDefault("security.pay_rate_limit.block_seconds", 0)
	v.SetDefault("security.password_policy.min_length", 8)
	v.SetDefault("security.password_policy.require_letter", true)
	v.SetDefault("security.password_policy.require_number", true)
	v.SetDefault("captcha.delivery_verify", false)
	v.SetDefault("captcha.length", 5)
	v.SetDefault("captcha.width", 240)
	v.SetDefault("captcha.height", 80)
	v.SetDefault("captcha.noise_count", 2)
	v.SetDefault("captcha.show_line", 2)
	v.SetDefault("captcha.expire_seconds", 300)
	v.SetDefault("captcha.max_store", 10240)
	v.SetDefault("payment.currency", "MWK")
	v.SetDefault("payment.amount_tolerance", "0.01")
	v.SetDefault("payment.tx_ref_prefix", "CD")
	v.SetDefault("payment.reconcile_delay_seconds", 120)
	v.SetDefault("payment.reconcile_interval_seconds", 300)
	v.SetDefault("payment.reconcile_stale_minutes", 10)
	v.SetDefault("payment.reconcile_batch_size", 50)
	v.SetDefault("payment.gateway.base_url", "")
	v.SetDefault("payment.gateway.api_key", "")
	v.SetDefault("payment.gateway.webhook_secret", "")
	v.SetDefault("payment.gateway.timeout_seconds", 15)
	v.SetDefault("payment.gateway.callback_url", "")
	v.SetDefault("payment.gateway.return_url", "")
	v.SetDefault("payment.gateway.networks", []string{"airtel", "tnm"})
	v.SetDefault("delivery.verification_code_length", 6)
	v.SetDefault("delivery.conceal_unknown_order", false)
	v.SetDefault("delivery.broadcast_batch_size", 500)
	v.SetDefault("delivery.zone_cache_seconds", 60)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
