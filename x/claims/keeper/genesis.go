package keeper

import (
	"context"

	"cosmossdk.io/collections"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/x/claims/types"
)

// InitGenesis initializes module state from genesis.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.SetParams(ctx, gs.Params); err != nil {
		return err
	}
	for _, r := range gs.Records {
		account, err := sdk.AccAddressFromBech32(r.Account)
		if err != nil {
			return err
		}
		if err := k.Records.Set(ctx, collections.Join3(r.CoverKey, r.IncidentDate, account), r.Record); err != nil {
			return err
		}
	}
	for _, t := range gs.Totals {
		if err := k.Totals.Set(ctx, collections.Join(t.CoverKey, t.IncidentDate), t.Totals); err != nil {
			return err
		}
	}
	return nil
}

// ExportGenesis exports params, claim records and per-incident totals.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	gs := types.DefaultGenesis()
	gs.Params = k.GetParams(ctx)

	err := k.Records.Walk(ctx, nil, func(key collections.Triple[string, int64, sdk.AccAddress], rec types.ClaimRecord) (bool, error) {
		gs.Records = append(gs.Records, types.GenesisClaimRecord{
			CoverKey:     key.K1(),
			IncidentDate: key.K2(),
			Account:      key.K3().String(),
			Record:       rec,
		})
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	err = k.Totals.Walk(ctx, nil, func(key collections.Pair[string, int64], totals types.ClaimTotals) (bool, error) {
		gs.Totals = append(gs.Totals, types.GenesisClaimTotals{
			CoverKey:     key.K1(),
			IncidentDate: key.K2(),
			Totals:       totals,
		})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return gs, nil
}
