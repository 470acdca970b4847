package admin

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/campusdash/internal/authz"
	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/logger"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
)

type authzRolePayload struct {
	Role string `json:"role" binding:"required"`
}

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type authzSetAdminRolesPayload struct {
	Roles []string `json:"roles"`
}

type authzRoleItem struct {
	Role    string `json:"role"`
	Builtin bool   `json:"builtin"`
}

// GetAuthzMe 当前管理员的角色与生效策略，前端据此控制菜单
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	policies, err := h.AuthzService.GetAdminPolicies(adminID)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, gin.H{
		"admin_id": adminID,
		"is_super": c.GetBool("admin_is_super"),
		"roles":    roles,
		"policies": policies,
	})
}

func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	items := make([]authzRoleItem, 0, len(roles))
	for _, role := range roles {
		items = append(items, authzRoleItem{Role: role, Builtin: h.AuthzService.IsBuiltinRole(role)})
	}
	response.Success(c, items)
}

// ListAuthzAdmins 管理员及其直接绑定的角色
func (h *Handler) ListAuthzAdmins(c *gin.Context) {
	admins, err := h.AdminRepo.List()
	if err != nil {
		respondError(c, response.CodeInternal, "error.authz_fetch_failed", err)
		return
	}
	items := make([]gin.H, 0, len(admins))
	for _, admin := range admins {
		roles, err := h.AuthzService.GetAdminRoles(admin.ID)
		if err != nil {
			respondAuthzError(c, err)
			return
		}
		items = append(items, gin.H{
			"id":            admin.ID,
			"username":      admin.Username,
			"is_super":      admin.IsSuper,
			"last_login_at": admin.LastLoginAt,
			"created_at":    admin.CreatedAt,
			"roles":         roles,
		})
	}
	response.Success(c, items)
}

func (h *Handler) CreateAuthzRole(c *gin.Context) {
	var req authzRolePayload
	if !handlershared.BindJSON(c, &req) {
		return
	}
	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	h.auditAuthz(c, service.AuthzAuditRecordInput{Action: "role_create", Role: role})
	response.Success(c, gin.H{"role": role})
}

// DeleteAuthzRole 预置角色返回 409
func (h *Handler) DeleteAuthzRole(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}
	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondAuthzError(c, err)
		return
	}
	h.auditAuthz(c, service.AuthzAuditRecordInput{Action: "role_delete", Role: role})
	response.Success(c, nil)
}

func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, policies)
}

func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if !handlershared.BindJSON(c, &req) {
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	h.auditAuthz(c, req.auditInput("policy_grant"))
	response.Success(c, nil)
}

func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if !handlershared.BindJSON(c, &req) {
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	h.auditAuthz(c, req.auditInput("policy_revoke"))
	response.Success(c, nil)
}

func (p authzPolicyPayload) auditInput(action string) service.AuthzAuditRecordInput {
	return service.AuthzAuditRecordInput{
		Action: action,
		Role:   p.Role,
		Detail: map[string]interface{}{
			"object": authz.NormalizeObject(p.Object),
			"method": authz.NormalizeAction(p.Action),
		},
	}
}

func (h *Handler) GetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := h.loadTargetAdmin(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, roles)
}

// SetAuthzAdminRoles 覆盖式设置，传空数组即清空
func (h *Handler) SetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := h.loadTargetAdmin(c)
	if !ok {
		return
	}
	var req authzSetAdminRolesPayload
	if !handlershared.BindJSON(c, &req) {
		return
	}
	if err := h.AuthzService.SetAdminRoles(adminID, req.Roles); err != nil {
		respondAuthzError(c, err)
		return
	}
	h.auditAuthz(c, service.AuthzAuditRecordInput{
		TargetType: service.AuditTargetAdmin,
		TargetID:   adminID,
		Action:     "admin_roles_update",
		Detail:     map[string]interface{}{"roles": req.Roles},
	})
	response.Success(c, nil)
}

// loadTargetAdmin 解析路径中的管理员 ID 并确认存在
func (h *Handler) loadTargetAdmin(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.admin_id_invalid", nil)
		return 0, false
	}
	admin, err := h.AdminRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, response.CodeInternal, "error.authz_fetch_failed", err)
		return 0, false
	}
	if admin == nil {
		respondError(c, response.CodeNotFound, "error.admin_not_found", nil)
		return 0, false
	}
	return admin.ID, true
}

// auditAuthz 补齐操作人信息后写审计并记日志
func (h *Handler) auditAuthz(c *gin.Context, input service.AuthzAuditRecordInput) {
	fillOperator(c, &input)
	logger.Infow("admin_authz_changed",
		"action", input.Action,
		"operator_admin_id", input.OperatorAdminID,
		"role", input.Role,
		"target_id", input.TargetID,
	)
	if h.AuthzAuditService == nil || input.OperatorAdminID == 0 {
		return
	}
	h.AuthzAuditService.Record(input)
}

func fillOperator(c *gin.Context, input *service.AuthzAuditRecordInput) {
	input.OperatorAdminID = c.GetUint(handlershared.ContextAdminID)
	input.OperatorUsername = strings.TrimSpace(c.GetString("username"))
	input.RequestID = c.GetString("request_id")
}

func roleParam(c *gin.Context) (string, bool) {
	raw := c.Param("role")
	role, err := url.PathUnescape(raw)
	if err != nil {
		role = raw
	}
	role = strings.TrimSpace(role)
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.authz_role_invalid", nil)
		return "", false
	}
	return role, true
}

// respondAuthzError 授权服务错误到业务码的映射
func respondAuthzError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrRoleBuiltin):
		respondError(c, response.CodeConflict, "error.authz_role_builtin", err)
	case errors.Is(err, authz.ErrRoleRequired), errors.Is(err, authz.ErrRoleReserved):
		respondError(c, response.CodeBadRequest, "error.authz_role_invalid", err)
	case errors.Is(err, authz.ErrAdminRequired):
		respondError(c, response.CodeBadRequest, "error.admin_id_invalid", err)
	case errors.Is(err, authz.ErrUnavailable):
		respondError(c, response.CodeServiceUnavailable, "error.authz_fetch_failed", err)
	default:
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
	}
}
