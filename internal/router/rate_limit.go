package router

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/campusdash/internal/config"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/i18n"
	"github.com/campusdash/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 从请求中提取限流维度，返回空串时按 IP
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口计数；超限那一次把 key 的过期时间拉长到 BlockSeconds
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	MessageKey    string
}

func newRateLimitRule(prefix, scope string, cfg config.RateLimitConfig, messageKey string) RateLimitRule {
	return RateLimitRule{
		Prefix:        prefix + ":rate:" + scope,
		WindowSeconds: cfg.WindowSeconds,
		MaxRequests:   cfg.MaxAttempts,
		BlockSeconds:  cfg.BlockSeconds,
		MessageKey:    messageKey,
	}
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) key(raw string) string {
	if r.Prefix == "" {
		return raw
	}
	return r.Prefix + ":" + raw
}

// retryAfter 剩余 TTL 无效时退回窗口长度，至少 1 秒
func (r RateLimitRule) retryAfter(ttl int64) int {
	if ttl >= 1 {
		return int(ttl)
	}
	return max(r.WindowSeconds, 1)
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local block = tonumber(ARGV[3])
if block > 0 and current == tonumber(ARGV[2]) + 1 then
	redis.call("EXPIRE", KEYS[1], block)
end
return {current, redis.call("TTL", KEYS[1])}
`)

// RateLimitMiddleware 基于 Redis 的限流；未配置 Redis 时放行，Redis 故障时拒绝
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || !rule.enabled() {
			c.Next()
			return
		}

		raw := ""
		if keyFunc != nil {
			raw = strings.TrimSpace(keyFunc(c))
		}
		if raw == "" {
			raw = c.ClientIP()
		}

		values, err := rateLimitScript.Run(c.Request.Context(), client, []string{rule.key(raw)},
			rule.WindowSeconds, rule.MaxRequests, rule.BlockSeconds).Int64Slice()
		if err != nil || len(values) < 2 {
			logger.Warnw("rate_limit_script_failed", "prefix", rule.Prefix, "error", err)
			response.Error(c, response.CodeInternal, i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable"))
			c.Abort()
			return
		}

		count, ttl := values[0], values[1]
		if count <= int64(rule.MaxRequests) {
			c.Next()
			return
		}
		wait := rule.retryAfter(ttl)
		msgKey := rule.MessageKey
		if msgKey == "" {
			msgKey = "error.rate_limited"
		}
		logger.Warnw("rate_limit_exceeded", "prefix", rule.Prefix, "count", count, "wait_seconds", wait)
		response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), msgKey, wait))
		c.Abort()
	}
}

// KeyByIP 按客户端 IP 限流
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUserOrIP 已登录按用户，否则按 IP
func KeyByUserOrIP(c *gin.Context) string {
	if userID := c.GetUint("user_id"); userID > 0 {
		return "user:" + strconv.FormatUint(uint64(userID), 10)
	}
	return c.ClientIP()
}

// KeyByIPAndJSONField 按请求体中的字段（如邮箱、订单号）叠加 IP 限流
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(peekJSONField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

// peekJSONField 读取后回填请求体，后续 handler 仍可正常绑定
func peekJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload[field], &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
