package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/al-neptune/protocol/x/pool/types"
)

// InitGenesis initializes module state from genesis. Pools start empty.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.SetParams(ctx, gs.Params); err != nil {
		return err
	}
	for _, pool := range gs.Pools {
		pool.TotalStaked = sdkmath.ZeroInt()
		pool.RewardBalance = sdkmath.ZeroInt()
		if err := k.Pools.Set(ctx, pool.Key, pool); err != nil {
			return err
		}
	}
	return nil
}

// ExportGenesis exports params and pool configuration.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	gs := &types.GenesisState{Params: k.GetParams(ctx)}
	err := k.Pools.Walk(ctx, nil, func(_ string, pool types.Pool) (bool, error) {
		gs.Pools = append(gs.Pools, pool)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return gs, nil
}
