package types

import (
	"fmt"
	"strings"
)

// Protocol roles. Every role is administered by RoleAdmin unless its admin
// role is changed with SetRoleAdmin.
const (
	RoleAdmin            = "admin"
	RoleCoverManager     = "cover_manager"
	RoleLiquidityManager = "liquidity_manager"
	RoleGovernanceAgent  = "governance_agent"
	RoleGovernanceAdmin  = "governance_admin"
	RolePauseAgent       = "pause_agent"
)

// DefaultRoles lists the roles known at genesis.
func DefaultRoles() []string {
	return []string{
		RoleAdmin,
		RoleCoverManager,
		RoleLiquidityManager,
		RoleGovernanceAgent,
		RoleGovernanceAdmin,
		RolePauseAgent,
	}
}

// ValidateRole checks that role is a usable identifier.
func ValidateRole(role string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return fmt.Errorf("role cannot be empty")
	}
	if len(role) > 64 {
		return fmt.Errorf("role %q exceeds 64 characters", role)
	}
	for _, r := range role {
		if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return fmt.Errorf("role %q contains invalid character %q", role, r)
		}
	}
	return nil
}
