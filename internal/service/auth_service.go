package service

import (
	"context"
	"strings"
	"time"

	"github.com/campusdash/internal/cache"
	"github.com/campusdash/internal/config"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService 后台管理员认证服务
type AuthService struct {
	cfg       *config.Config
	adminRepo repository.AdminRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, adminRepo repository.AdminRepository) *AuthService {
	return &AuthService{
		cfg:       cfg,
		adminRepo: adminRepo,
	}
}

// JWTClaims 管理员 JWT 声明
type JWTClaims struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 签发管理员令牌，TokenVersion 变化后旧令牌即失效
func (s *AuthService) GenerateJWT(admin *models.Admin) (string, time.Time, error) {
	ttl := time.Duration(s.cfg.JWT.ExpireHours) * time.Hour
	return issueToken(s.cfg.JWT.SecretKey, ttl, func(rc jwt.RegisteredClaims) jwt.Claims {
		return JWTClaims{
			AdminID:          admin.ID,
			Username:         admin.Username,
			TokenVersion:     admin.TokenVersion,
			RegisteredClaims: rc,
		}
	})
}

// Login 管理员登录
func (s *AuthService) Login(username, password string) (*models.Admin, string, time.Time, error) {
	admin, err := s.adminRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if admin == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(admin.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(admin)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	admin.LastLoginAt = &now
	if err := s.adminRepo.Update(admin); err != nil {
		return nil, "", time.Time{}, err
	}
	if err := cache.SetAdminAuthState(context.Background(), cache.BuildAdminAuthState(admin)); err != nil {
		logger.Warnw("admin_auth_state_cache_failed", "admin_id", admin.ID, "error", err)
	}
	logger.Infow("admin_login", "admin_id", admin.ID, "username", admin.Username)
	return admin, token, expiresAt, nil
}

// ResolveAdminAuthState 读取管理员鉴权快照，缓存未命中时回源
func (s *AuthService) ResolveAdminAuthState(ctx context.Context, adminID uint) (*cache.AdminAuthState, error) {
	state, ok, err := cache.GetAdminAuthState(ctx, adminID)
	if err != nil {
		logger.Warnw("admin_auth_state_cache_read_failed", "admin_id", adminID, "error", err)
	}
	if ok && state != nil {
		return state, nil
	}
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrUnauthorized
	}
	state = cache.BuildAdminAuthState(admin)
	_ = cache.SetAdminAuthState(ctx, state)
	return state, nil
}
