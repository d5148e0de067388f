package keeper

import (
	"context"

	"cosmossdk.io/collections"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/x/access/types"
)

// InitGenesis loads the role table.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	for _, entry := range gs.RoleAdmins {
		if err := k.RoleAdmins.Set(ctx, entry.Role, entry.AdminRole); err != nil {
			return err
		}
	}
	for _, grant := range gs.Grants {
		account, err := sdk.AccAddressFromBech32(grant.Account)
		if err != nil {
			return err
		}
		if err := k.grant(ctx, grant.Role, account); err != nil {
			return err
		}
	}
	return nil
}

// ExportGenesis dumps the role table.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	gs := types.DefaultGenesis()
	err := k.RoleAdmins.Walk(ctx, nil, func(role, admin string) (bool, error) {
		gs.RoleAdmins = append(gs.RoleAdmins, types.RoleAdminEntry{Role: role, AdminRole: admin})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	err = k.Members.Walk(ctx, nil, func(key collections.Pair[string, sdk.AccAddress]) (bool, error) {
		gs.Grants = append(gs.Grants, types.RoleGrant{Role: key.K1(), Account: key.K2().String()})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return gs, nil
}
