package keeper

import (
	"context"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"

	"github.com/al-neptune/protocol/x/incident/types"
)

// GetActiveIncidentDate returns the date of the cover's unfinalized
// incident, if any.
func (k Keeper) GetActiveIncidentDate(ctx context.Context, coverKey string) (int64, bool) {
	date, err := k.Active.Get(ctx, coverKey)
	if err != nil {
		return 0, false
	}
	return date, true
}

// GetStatus returns the status of the cover's active incident, or Normal.
func (k Keeper) GetStatus(ctx context.Context, coverKey string) types.IncidentStatus {
	date, ok := k.GetActiveIncidentDate(ctx, coverKey)
	if !ok {
		return types.StatusNormal
	}
	inc, err := k.GetIncident(ctx, coverKey, date)
	if err != nil {
		return types.StatusNormal
	}
	return inc.Status
}

// GetStakes returns an incident's total attest and refute stake.
func (k Keeper) GetStakes(ctx context.Context, coverKey string, incidentDate int64) (yes, no sdkmath.Int, err error) {
	inc, err := k.GetIncident(ctx, coverKey, incidentDate)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	return inc.YesStake, inc.NoStake, nil
}

// GetResolutionDeadline returns when voting on an incident ends.
func (k Keeper) GetResolutionDeadline(ctx context.Context, coverKey string, incidentDate int64) (int64, error) {
	inc, err := k.GetIncident(ctx, coverKey, incidentDate)
	if err != nil {
		return 0, err
	}
	return inc.ResolutionDeadline, nil
}

// GetClaimWindow returns the half-open claim window [begins, expires).
func (k Keeper) GetClaimWindow(ctx context.Context, coverKey string, incidentDate int64) (begins, expires int64, err error) {
	inc, err := k.GetIncident(ctx, coverKey, incidentDate)
	if err != nil {
		return 0, 0, err
	}
	return inc.ClaimBeginsAt, inc.ClaimExpiresAt, nil
}

// IterateIncidents calls fn for every incident in key order until fn
// returns true.
func (k Keeper) IterateIncidents(ctx context.Context, fn func(types.Incident) bool) error {
	return k.Incidents.Walk(ctx, nil, func(_ collections.Pair[string, int64], inc types.Incident) (bool, error) {
		return fn(inc), nil
	})
}

// IterateCoverIncidents calls fn for each incident of one cover.
func (k Keeper) IterateCoverIncidents(ctx context.Context, coverKey string, fn func(types.Incident) bool) error {
	rng := collections.NewPrefixedPairRange[string, int64](coverKey)
	return k.Incidents.Walk(ctx, rng, func(_ collections.Pair[string, int64], inc types.Incident) (bool, error) {
		return fn(inc), nil
	})
}
