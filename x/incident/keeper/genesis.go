package keeper

import (
	"context"

	"cosmossdk.io/collections"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/x/incident/types"
)

// InitGenesis initializes module state from genesis.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.SetParams(ctx, gs.Params); err != nil {
		return err
	}
	for _, inc := range gs.Incidents {
		if err := k.setIncident(ctx, inc); err != nil {
			return err
		}
		if !inc.Status.IsTerminal() && inc.Status != types.StatusNormal {
			if err := k.Active.Set(ctx, inc.CoverKey, inc.IncidentDate); err != nil {
				return err
			}
		}
	}
	for _, s := range gs.Stakes {
		account, err := sdk.AccAddressFromBech32(s.Account)
		if err != nil {
			return err
		}
		if err := k.Stakes.Set(ctx, collections.Join3(s.CoverKey, s.IncidentDate, account), s.Stake); err != nil {
			return err
		}
	}
	for _, s := range gs.Settlements {
		if err := k.Settlements.Set(ctx, collections.Join(s.CoverKey, s.IncidentDate), s.Settlement); err != nil {
			return err
		}
	}
	return nil
}

// ExportGenesis exports params, incidents, witness stakes and settlements.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	gs := types.DefaultGenesis()
	gs.Params = k.GetParams(ctx)

	err := k.IterateIncidents(ctx, func(inc types.Incident) bool {
		gs.Incidents = append(gs.Incidents, inc)
		return false
	})
	if err != nil {
		return nil, err
	}

	err = k.Stakes.Walk(ctx, nil, func(key collections.Triple[string, int64, sdk.AccAddress], stake types.WitnessStake) (bool, error) {
		gs.Stakes = append(gs.Stakes, types.GenesisStake{
			CoverKey:     key.K1(),
			IncidentDate: key.K2(),
			Account:      key.K3().String(),
			Stake:        stake,
		})
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	err = k.Settlements.Walk(ctx, nil, func(key collections.Pair[string, int64], s types.Settlement) (bool, error) {
		gs.Settlements = append(gs.Settlements, types.GenesisSettlement{
			CoverKey:     key.K1(),
			IncidentDate: key.K2(),
			Settlement:   s,
		})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return gs, nil
}
