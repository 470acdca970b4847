package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/campusdash/internal/cache"
	"github.com/campusdash/internal/config"
	"github.com/campusdash/internal/constants"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// UserAuthService 用户认证服务
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository) *UserAuthService {
	return &UserAuthService{
		cfg:      cfg,
		userRepo: userRepo,
	}
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email       string
	Password    string
	Phone       string
	DisplayName string
	Locale      string
}

// UpdateProfileInput 资料更新输入，nil 表示不修改
type UpdateProfileInput struct {
	DisplayName *string
	Phone       *string
	Locale      *string
}

// GenerateUserJWT 令牌里带角色，中间件仍以缓存快照为准
func (s *UserAuthService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	ttl := time.Duration(resolveUserJWTExpireHours(s.cfg.UserJWT)) * time.Hour
	return issueToken(s.cfg.UserJWT.SecretKey, ttl, func(rc jwt.RegisteredClaims) jwt.Claims {
		return UserJWTClaims{
			UserID:           user.ID,
			Email:            user.Email,
			Role:             user.Role,
			TokenVersion:     user.TokenVersion,
			RegisteredClaims: rc,
		}
	})
}

// Register 用户注册，默认角色为顾客
func (s *UserAuthService) Register(input RegisterInput) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, input.Password); err != nil {
		return nil, "", time.Time{}, err
	}
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, "", time.Time{}, NewValidationError("phone", "required")
	}

	exist, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if exist != nil {
		return nil, "", time.Time{}, ErrEmailExists
	}

	hashedPassword, err := HashPassword(input.Password)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = resolveNicknameFromEmail(normalized)
	}
	user := &models.User{
		Email:        normalized,
		Phone:        phone,
		PasswordHash: hashedPassword,
		DisplayName:  displayName,
		Role:         constants.UserRoleCustomer,
		Status:       constants.UserStatusActive,
		Locale:       resolveLocale(input.Locale),
		LastLoginAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	s.cacheAuthState(user)
	logger.Infow("user_registered", "user_id", user.ID, "email", user.Email)
	return user, token, expiresAt, nil
}

// Login 用户登录
func (s *UserAuthService) Login(email, password string) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if strings.ToLower(user.Status) != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrUserDisabled
	}

	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", time.Time{}, err
	}
	s.cacheAuthState(user)
	return user, token, expiresAt, nil
}

// ChangePassword 登录态修改密码，旧 token 全部失效
func (s *UserAuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if err := VerifyPassword(user.PasswordHash, oldPassword); err != nil {
		return ErrInvalidCredentials
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}
	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	user.TokenVersion++
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	s.cacheAuthState(user)
	return nil
}

// UpdateProfile 更新用户资料
func (s *UserAuthService) UpdateProfile(userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			return nil, NewValidationError("phone", "required")
		}
		user.Phone = phone
	}
	if input.Locale != nil {
		user.Locale = resolveLocale(*input.Locale)
	}
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID 获取用户信息
func (s *UserAuthService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// ResolveUserAuthState 读取用户鉴权快照，缓存未命中时回源
func (s *UserAuthService) ResolveUserAuthState(ctx context.Context, userID uint) (*cache.UserAuthState, error) {
	state, ok, err := cache.GetUserAuthState(ctx, userID)
	if err != nil {
		logger.Warnw("user_auth_state_cache_read_failed", "user_id", userID, "error", err)
	}
	if ok && state != nil {
		return state, nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	state = cache.BuildUserAuthState(user)
	_ = cache.SetUserAuthState(ctx, state)
	return state, nil
}

func (s *UserAuthService) cacheAuthState(user *models.User) {
	if err := cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user)); err != nil {
		logger.Warnw("user_auth_state_cache_failed", "user_id", user.ID, "error", err)
	}
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", NewValidationError("email", "required")
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", NewValidationError("email", "email")
	}
	return normalized, nil
}

// NormalizeEmail 统一邮箱格式
func NormalizeEmail(email string) (string, error) {
	return normalizeEmail(email)
}

func resolveUserJWTExpireHours(cfg config.JWTConfig) int {
	if cfg.ExpireHours > 0 {
		return cfg.ExpireHours
	}
	return 24
}

func resolveNicknameFromEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}
	return email[:at]
}

func resolveLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, locale := range constants.SupportedLocales {
		if strings.EqualFold(raw, locale) {
			return locale
		}
	}
	return constants.SupportedLocales[0]
}
