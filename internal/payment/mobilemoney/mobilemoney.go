package mobilemoney

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("mobile money config invalid")
	ErrRequestFailed    = errors.New("mobile money request failed")
	ErrResponseInvalid  = errors.New("mobile money response invalid")
	ErrRejected         = errors.New("mobile money charge rejected")
	ErrSignatureInvalid = errors.New("mobile money signature invalid")
)

// 网关状态
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

const (
	defaultTimeout  = 15 * time.Second
	SignatureHeader = "X-Signature"
)

// Config 网关配置
type Config struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	CallbackURL   string
	ReturnURL     string
	Timeout       time.Duration
	Networks      []string // 允许的运营商网络，为空时不限制
}

// InitiateInput 发起扣款输入
type InitiateInput struct {
	TxRef       string
	Amount      decimal.Decimal
	Currency    string
	Mobile      string
	Network     string
	CallbackURL string
	ReturnURL   string
}

// InitiateResult 发起扣款结果
type InitiateResult struct {
	ProviderRef string
	CheckoutURL string
	Status      string // 已归一化
}

// VerifyResult 查询结果
type VerifyResult struct {
	Status      string // 已归一化，无法识别时为空
	RawStatus   string
	ProviderRef string
	Amount      decimal.Decimal
}

// CallbackData 网关回调数据
type CallbackData struct {
	TxRef       string `json:"tx_ref"`
	Status      string `json:"status"`
	ProviderRef string `json:"provider_ref"`
}

// Client 移动支付网关客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(cfg Config) *Client {
	cfg.normalize()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.CallbackURL = strings.TrimSpace(c.CallbackURL)
	c.ReturnURL = strings.TrimSpace(c.ReturnURL)
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	networks := make([]string, 0, len(c.Networks))
	for _, n := range c.Networks {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			networks = append(networks, n)
		}
	}
	c.Networks = networks
}

// ValidateConfig 校验配置
func ValidateConfig(cfg Config) error {
	cfg.normalize()
	if cfg.BaseURL == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("%w: api_key is required", ErrConfigInvalid)
	}
	return nil
}

// WebhookSecret 回调签名密钥
func (c *Client) WebhookSecret() string {
	if c == nil {
		return ""
	}
	return c.cfg.WebhookSecret
}

// SupportsNetwork 判断运营商网络是否可用
func (c *Client) SupportsNetwork(network string) bool {
	if c == nil || len(c.cfg.Networks) == 0 {
		return true
	}
	network = strings.ToLower(strings.TrimSpace(network))
	for _, n := range c.cfg.Networks {
		if n == network {
			return true
		}
	}
	return false
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// Initiate 发起扣款
func (c *Client) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	if err := ValidateConfig(c.cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.TxRef) == "" || !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: tx_ref and positive amount required", ErrConfigInvalid)
	}
	callbackURL := input.CallbackURL
	if callbackURL == "" {
		callbackURL = c.cfg.CallbackURL
	}
	returnURL := input.ReturnURL
	if returnURL == "" {
		returnURL = c.cfg.ReturnURL
	}

	params := map[string]interface{}{
		"tx_ref":       input.TxRef,
		"amount":       input.Amount.StringFixed(2),
		"currency":     input.Currency,
		"mobile":       input.Mobile,
		"network":      strings.ToLower(strings.TrimSpace(input.Network)),
		"callback_url": callbackURL,
		"return_url":   returnURL,
	}
	data, err := c.do(ctx, http.MethodPost, "/v1/charges", params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ProviderRef string `json:"provider_ref"`
		CheckoutURL string `json:"checkout_url"`
		Status      string `json:"status"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	status := NormalizeStatus(payload.Status)
	if status == StatusFailed {
		return nil, fmt.Errorf("%w: status %s", ErrRejected, payload.Status)
	}
	if status == "" {
		status = StatusPending
	}
	return &InitiateResult{
		ProviderRef: payload.ProviderRef,
		CheckoutURL: payload.CheckoutURL,
		Status:      status,
	}, nil
}

// Verify 查询交易状态
func (c *Client) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	if err := ValidateConfig(c.cfg); err != nil {
		return nil, err
	}
	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		return nil, fmt.Errorf("%w: tx_ref required", ErrConfigInvalid)
	}
	data, err := c.do(ctx, http.MethodGet, "/v1/charges/"+url.PathEscape(txRef), nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Status      string          `json:"status"`
		ProviderRef string          `json:"provider_ref"`
		Amount      decimal.Decimal `json:"amount"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return &VerifyResult{
		Status:      NormalizeStatus(payload.Status),
		RawStatus:   payload.Status,
		ProviderRef: payload.ProviderRef,
		Amount:      payload.Amount,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, params map[string]interface{}) (json.RawMessage, error) {
	var body io.Reader
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(respBytes, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	// 4xx 与业务拒绝视为明确拒绝
	if resp.StatusCode >= 400 || (env.StatusCode != 0 && env.StatusCode != 200) {
		return nil, fmt.Errorf("%w: %s", ErrRejected, strings.TrimSpace(env.Message))
	}
	return env.Data, nil
}

// ParseCallback 解析回调数据
func ParseCallback(body []byte) (*CallbackData, error) {
	if len(body) == 0 {
		return nil, ErrResponseInvalid
	}
	var data CallbackData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	data.TxRef = strings.TrimSpace(data.TxRef)
	if data.TxRef == "" {
		return nil, fmt.Errorf("%w: tx_ref missing", ErrResponseInvalid)
	}
	return &data, nil
}

// Sign 计算回调签名（HMAC-SHA256，十六进制小写）
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature 校验回调签名，未配置密钥时跳过
func VerifySignature(secret string, body []byte, signature string) error {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	got, err := hex.DecodeString(strings.TrimSpace(strings.ToLower(signature)))
	if err != nil || len(got) == 0 {
		return ErrSignatureInvalid
	}
	expected, _ := hex.DecodeString(Sign(secret, body))
	if !hmac.Equal(expected, got) {
		return ErrSignatureInvalid
	}
	return nil
}

// NormalizeStatus 归一化网关状态，无法识别时返回空串
func NormalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "successful", "completed":
		return StatusSuccess
	case "failed", "cancelled", "declined", "expired":
		return StatusFailed
	case "pending":
		return StatusPending
	default:
		return ""
	}
}
