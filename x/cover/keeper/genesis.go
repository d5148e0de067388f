package keeper

import (
	"context"

	"github.com/al-neptune/protocol/x/cover/types"
)

// InitGenesis loads params and covers.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.SetParams(ctx, gs.Params); err != nil {
		return err
	}
	for _, cover := range gs.Covers {
		if err := k.Covers.Set(ctx, cover.Key, cover); err != nil {
			return err
		}
	}
	return nil
}

// ExportGenesis dumps params and covers.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	gs := &types.GenesisState{Params: k.GetParams(ctx), Covers: []types.Cover{}}
	err := k.Covers.Walk(ctx, nil, func(_ string, cover types.Cover) (bool, error) {
		gs.Covers = append(gs.Covers, cover)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return gs, nil
}
