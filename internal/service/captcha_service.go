package service

import (
	"strings"
	"sync"
	"time"

	"github.com/campusdash/internal/config"

	"github.com/mojocn/base64Captcha"
)

// 验证码场景
const (
	CaptchaSceneDeliveryVerify = "delivery_verify"
)

const captchaAlphabet = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ"

// CaptchaVerifyPayload 验证码校验请求载荷
type CaptchaVerifyPayload struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// CaptchaImageChallenge 图片验证码挑战
type CaptchaImageChallenge struct {
	CaptchaID   string `json:"captcha_id"`
	ImageBase64 string `json:"image_base64"`
}

// CaptchaService 图片验证码服务
type CaptchaService struct {
	mu    sync.RWMutex
	cfg   config.CaptchaConfig
	store base64Captcha.Store
}

// NewCaptchaService 创建验证码服务
func NewCaptchaService(cfg config.CaptchaConfig) *CaptchaService {
	cfg = normalizeCaptchaConfig(cfg)
	return &CaptchaService{
		cfg:   cfg,
		store: base64Captcha.NewMemoryStore(cfg.MaxStore, time.Duration(cfg.ExpireSeconds)*time.Second),
	}
}

// UseStore 替换验证码存储（测试或多实例共享存储时使用）
func (s *CaptchaService) UseStore(store base64Captcha.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
}

// SceneEnabled 场景是否开启验证码
func (s *CaptchaService) SceneEnabled(scene string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch scene {
	case CaptchaSceneDeliveryVerify:
		return s.cfg.DeliveryVerify
	default:
		return false
	}
}

// GenerateImageChallenge 生成图片验证码
func (s *CaptchaService) GenerateImageChallenge() (*CaptchaImageChallenge, error) {
	s.mu.RLock()
	cfg := s.cfg
	store := s.store
	s.mu.RUnlock()

	driver := base64Captcha.NewDriverString(
		cfg.Height,
		cfg.Width,
		cfg.NoiseCount,
		cfg.ShowLine,
		cfg.Length,
		captchaAlphabet,
		nil,
		base64Captcha.DefaultEmbeddedFonts,
		nil,
	)
	captcha := base64Captcha.NewCaptcha(driver, store)
	id, b64s, _, err := captcha.Generate()
	if err != nil {
		return nil, err
	}
	return &CaptchaImageChallenge{
		CaptchaID:   strings.TrimSpace(id),
		ImageBase64: strings.TrimSpace(b64s),
	}, nil
}

// Verify 按场景校验验证码，场景未开启时直接通过
func (s *CaptchaService) Verify(scene string, payload CaptchaVerifyPayload) error {
	if !s.SceneEnabled(scene) {
		return nil
	}
	captchaID := strings.TrimSpace(payload.CaptchaID)
	captchaCode := strings.TrimSpace(payload.CaptchaCode)
	if captchaID == "" || captchaCode == "" {
		return ErrCaptchaRequired
	}
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if !store.Verify(captchaID, captchaCode, true) {
		return ErrCaptchaInvalid
	}
	return nil
}

func normalizeCaptchaConfig(cfg config.CaptchaConfig) config.CaptchaConfig {
	if cfg.Length < 4 || cfg.Length > 8 {
		cfg.Length = 5
	}
	if cfg.Width < 80 {
		cfg.Width = 240
	}
	if cfg.Height < 30 {
		cfg.Height = 80
	}
	if cfg.NoiseCount < 0 {
		cfg.NoiseCount = 0
	}
	if cfg.ExpireSeconds <= 0 {
		cfg.ExpireSeconds = 300
	}
	if cfg.MaxStore <= 0 {
		cfg.MaxStore = 10240
	}
	return cfg
}
