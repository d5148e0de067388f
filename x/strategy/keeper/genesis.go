package keeper

import (
	"context"

	"github.com/al-neptune/protocol/x/strategy/types"
)

// InitGenesis stores each cover's allocation list. Strategies referenced by
// genesis must be registered first.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	for _, c := range gs.Covers {
		resolved, err := k.resolveAllocations(ctx, c.CoverKey, c.Allocations)
		if err != nil {
			return err
		}
		if err := k.CoverStrategies.Set(ctx, c.CoverKey, resolved); err != nil {
			return err
		}
	}
	return nil
}

// ExportGenesis exports allocation lists.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	gs := types.DefaultGenesis()
	err := k.CoverStrategies.Walk(ctx, nil, func(coverKey string, allocs []types.Allocation) (bool, error) {
		gs.Covers = append(gs.Covers, types.CoverAllocations{CoverKey: coverKey, Allocations: allocs})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return gs, nil
}
