package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
// staff 覆盖日常收银与欠款操作，admin 拥有全部后台权限。
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "staff",
			Policies: []Policy{
				{Object: "/admin/carts/confirm", Action: "POST"},
				{Object: "/admin/carts/:code", Action: "GET"},
				{Object: "/admin/cart-items/:id", Action: "DELETE"},
				{Object: "/admin/debts/:id/payments", Action: "POST"},
				{Object: "/admin/users/:id/debts", Action: "GET"},
				{Object: "/admin/users/:id/debts/allocate", Action: "POST"},
				{Object: "/admin/users/:id/balance", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
			},
		},
		{
			Role:     "admin",
			Inherits: []string{"staff"},
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
