package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 系统预置角色矩阵（校园配送后台）
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "readonly_auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "dispatcher",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/deliveries/:id/assign", Action: "POST"},
				{Object: "/admin/deliveries/:id/fail", Action: "POST"},
				{Object: "/admin/locations", Action: "*"},
				{Object: "/admin/locations/:id", Action: "*"},
				{Object: "/admin/notifications/broadcast", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     "catalog",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/products", Action: "*"},
				{Object: "/admin/products/:id", Action: "*"},
				{Object: "/admin/upload", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     "support",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/users/:id/role", Action: "PUT"},
				{Object: "/admin/notifications/broadcast", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     "finance",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/payments/:id/approve", Action: "POST"},
				{Object: "/admin/payments/:id/reject", Action: "POST"},
				{Object: "/admin/payments/export", Action: "GET"},
			},
			Immutable: true,
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略，已存在的规则不会重复写入
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		if err := s.applySeed(seed); err != nil {
			return fmt.Errorf("bootstrap role %s: %w", seed.Role, err)
		}
	}
	return nil
}

func (s *Service) applySeed(seed RoleSeed) error {
	role, err := s.EnsureRole(seed.Role)
	if err != nil {
		return err
	}
	for _, parent := range seed.Inherits {
		parentRole, err := NormalizeRole(parent)
		if err != nil {
			return err
		}
		if _, err := s.enforcer.AddNamedGroupingPolicy(groupType, role, parentRole); err != nil {
			return fmt.Errorf("link role inheritance failed: %w", err)
		}
	}
	for _, policy := range seed.Policies {
		action := NormalizeAction(policy.Action)
		if action == "" {
			return ErrActionRequired
		}
		if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
			return fmt.Errorf("add builtin policy failed: %w", err)
		}
	}
	return nil
}
