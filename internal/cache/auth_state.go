package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/campusdash/internal/models"
)

const (
	authStateTTL         = 10 * time.Minute
	userAuthStatePrefix  = "auth:user:"
	adminAuthStatePrefix = "auth:admin:"
)

// UserAuthState 中间件校验用户令牌所需的最小字段
type UserAuthState struct {
	UserID       uint   `json:"user_id"`
	Status       string `json:"status"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
}

type AdminAuthState struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	IsSuper      bool   `json:"is_super"`
}

func authStateKey(prefix string, id uint) string {
	return prefix + strconv.FormatUint(uint64(id), 10)
}

func getAuthState[T any](ctx context.Context, prefix string, id uint) (*T, bool, error) {
	if id == 0 {
		return nil, false, nil
	}
	state := new(T)
	hit, err := GetJSON(ctx, authStateKey(prefix, id), state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return state, true, nil
}

func BuildUserAuthState(user *models.User) *UserAuthState {
	if user == nil {
		return nil
	}
	return &UserAuthState{
		UserID:       user.ID,
		Status:       user.Status,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	}
}

func BuildAdminAuthState(admin *models.Admin) *AdminAuthState {
	if admin == nil {
		return nil
	}
	return &AdminAuthState{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		IsSuper:      admin.IsSuper,
	}
}

func GetUserAuthState(ctx context.Context, userID uint) (*UserAuthState, bool, error) {
	return getAuthState[UserAuthState](ctx, userAuthStatePrefix, userID)
}

func SetUserAuthState(ctx context.Context, state *UserAuthState) error {
	if state == nil || state.UserID == 0 {
		return nil
	}
	return SetJSON(ctx, authStateKey(userAuthStatePrefix, state.UserID), state, authStateTTL)
}

// DelUserAuthState 角色、状态或密码变更后必须调用，否则旧快照最多残留 10 分钟
func DelUserAuthState(ctx context.Context, userID uint) error {
	if userID == 0 {
		return nil
	}
	return Del(ctx, authStateKey(userAuthStatePrefix, userID))
}

func GetAdminAuthState(ctx context.Context, adminID uint) (*AdminAuthState, bool, error) {
	return getAuthState[AdminAuthState](ctx, adminAuthStatePrefix, adminID)
}

func SetAdminAuthState(ctx context.Context, state *AdminAuthState) error {
	if state == nil || state.AdminID == 0 {
		return nil
	}
	return SetJSON(ctx, authStateKey(adminAuthStatePrefix, state.AdminID), state, authStateTTL)
}
