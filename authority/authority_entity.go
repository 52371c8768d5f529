package authority

import (
	"strings"
)

const (
	PermSystemAdmin       = "system:admin"
	PermLifecycleManage   = "lifecycle:manage"
	PermLifecycleDiagnose = "lifecycle:diagnose"
)

type Permissions []string

func (c Permissions) HasRole(role string) bool {
	for _, v := range c {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

func (c Permissions) HasRolePrefix(prefix string) bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func (c Permissions) IsSystemAdmin() bool {
	return c.HasRole(PermSystemAdmin)
}

// CanManageLifecycle covers assignment, approval and validation.
func (c Permissions) CanManageLifecycle() bool {
	return c.IsSystemAdmin() || c.HasRole(PermLifecycleManage)
}

// CanWorkOnOrders covers starting and completing work orders.
func (c Permissions) CanWorkOnOrders() bool {
	return c.CanManageLifecycle() || c.HasRole(PermLifecycleDiagnose)
}
