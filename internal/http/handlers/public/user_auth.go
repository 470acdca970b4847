package public

import (
	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
)

// UserRegisterRequest 注册请求
type UserRegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	Phone       string `json:"phone" binding:"required,min=7,max=32"`
	DisplayName string `json:"display_name" binding:"max=64"`
	Locale      string `json:"locale"`
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	user, token, expiresAt, err := h.UserAuthService.Register(service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Phone:       req.Phone,
		DisplayName: req.DisplayName,
		Locale:      req.Locale,
	})
	if err != nil {
		respondAuthError(c, err, "error.register_failed")
		return
	}

	response.Success(c, gin.H{
		"user":       userProfileResponse(user),
		"token":      token,
		"expires_at": expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// UserLoginRequest 登录请求
type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	user, token, expiresAt, err := h.UserAuthService.Login(req.Email, req.Password)
	if err != nil {
		respondAuthError(c, err, "error.login_failed")
		return
	}

	requestLog(c).Infow("user_login_succeeded", "user_id", user.ID, "client_ip", c.ClientIP())
	response.Success(c, gin.H{
		"user":       userProfileResponse(user),
		"token":      token,
		"expires_at": expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// GetCurrentUser 获取当前用户信息
func (h *Handler) GetCurrentUser(c *gin.Context) {
	id, ok := getUserID(c)
	if !ok {
		return
	}

	user, err := h.UserAuthService.GetUserByID(id)
	if err != nil {
		respondAuthError(c, err, "error.user_fetch_failed")
		return
	}
	response.Success(c, userProfileResponse(user))
}

// UserProfileUpdateRequest 用户资料更新请求
type UserProfileUpdateRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=64"`
	Phone       *string `json:"phone" binding:"omitempty,min=7,max=32"`
	Locale      *string `json:"locale"`
}

// UpdateUserProfile 更新用户资料
func (h *Handler) UpdateUserProfile(c *gin.Context) {
	id, ok := getUserID(c)
	if !ok {
		return
	}

	var req UserProfileUpdateRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	user, err := h.UserAuthService.UpdateProfile(id, service.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Locale:      req.Locale,
	})
	if err != nil {
		respondAuthError(c, err, "error.user_update_failed")
		return
	}
	response.Success(c, userProfileResponse(user))
}

// ChangeUserPasswordRequest 修改密码请求
type ChangeUserPasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangeUserPassword 用户登录态修改密码
func (h *Handler) ChangeUserPassword(c *gin.Context) {
	id, ok := getUserID(c)
	if !ok {
		return
	}

	var req ChangeUserPasswordRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	if err := h.UserAuthService.ChangePassword(id, req.OldPassword, req.NewPassword); err != nil {
		respondAuthError(c, err, "error.save_failed")
		return
	}

	response.Success(c, gin.H{"updated": true})
}

func userProfileResponse(user *models.User) gin.H {
	return gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"phone":         user.Phone,
		"display_name":  user.DisplayName,
		"role":          user.Role,
		"locale":        user.Locale,
		"last_login_at": user.LastLoginAt,
	}
}
