package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RoleGrant assigns a role to an account at genesis.
type RoleGrant struct {
	Role    string `json:"role"`
	Account string `json:"account"`
}

// RoleAdminEntry overrides the admin role of Role.
type RoleAdminEntry struct {
	Role      string `json:"role"`
	AdminRole string `json:"admin_role"`
}

// GenesisState is the access module's genesis state.
type GenesisState struct {
	Grants     []RoleGrant      `json:"grants"`
	RoleAdmins []RoleAdminEntry `json:"role_admins"`
}

// DefaultGenesis returns an empty role table.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Grants:     []RoleGrant{},
		RoleAdmins: []RoleAdminEntry{},
	}
}

// Validate performs basic genesis state validation.
func (gs GenesisState) Validate() error {
	seen := make(map[string]struct{}, len(gs.Grants))
	for i, grant := range gs.Grants {
		if err := ValidateRole(grant.Role); err != nil {
			return fmt.Errorf("invalid grant at index %d: %w", i, err)
		}
		if _, err := sdk.AccAddressFromBech32(grant.Account); err != nil {
			return fmt.Errorf("invalid grant account at index %d: %w", i, err)
		}
		id := grant.Role + "|" + grant.Account
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate grant %s", id)
		}
		seen[id] = struct{}{}
	}
	for i, entry := range gs.RoleAdmins {
		if err := ValidateRole(entry.Role); err != nil {
			return fmt.Errorf("invalid role admin at index %d: %w", i, err)
		}
		if err := ValidateRole(entry.AdminRole); err != nil {
			return fmt.Errorf("invalid role admin at index %d: %w", i, err)
		}
	}
	return nil
}
