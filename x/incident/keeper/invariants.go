package keeper

import (
	"fmt"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/x/incident/types"
)

// RegisterInvariants registers all incident module invariants.
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "single-active-report", SingleActiveReportInvariant(k))
	ir.RegisterRoute(types.ModuleName, "open-stake-totals", OpenStakeTotalsInvariant(k))
	ir.RegisterRoute(types.ModuleName, "escrow-solvency", EscrowSolvencyInvariant(k))
}

// AllInvariants runs every incident invariant.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range []sdk.Invariant{
			SingleActiveReportInvariant(k),
			OpenStakeTotalsInvariant(k),
			EscrowSolvencyInvariant(k),
		} {
			if msg, broken := inv(ctx); broken {
				return msg, broken
			}
		}
		return "", false
	}
}

// SingleActiveReportInvariant checks that each cover has at most one
// unfinalized incident and that the active index points at it.
func SingleActiveReportInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg    string
			broken bool
		)
		open := make(map[string][]int64)
		_ = k.IterateIncidents(ctx, func(inc types.Incident) bool {
			if !inc.Status.IsTerminal() {
				open[inc.CoverKey] = append(open[inc.CoverKey], inc.IncidentDate)
			}
			return false
		})
		for coverKey, dates := range open {
			if len(dates) > 1 {
				broken = true
				msg += fmt.Sprintf("cover %s: %d open incidents %v\n", coverKey, len(dates), dates)
				continue
			}
			if active, ok := k.GetActiveIncidentDate(ctx, coverKey); !ok || active != dates[0] {
				broken = true
				msg += fmt.Sprintf("cover %s: active index %d does not match open incident %d\n", coverKey, active, dates[0])
			}
		}
		return sdk.FormatInvariant(types.ModuleName, "single-active-report", msg), broken
	}
}

// OpenStakeTotalsInvariant checks that an unresolved incident's totals equal
// the sum of its witness stakes.
func OpenStakeTotalsInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg    string
			broken bool
		)
		_ = k.IterateIncidents(ctx, func(inc types.Incident) bool {
			if inc.Status != types.StatusIncidentHappened {
				return false
			}
			yes, no := k.sumStakes(ctx, inc.CoverKey, inc.IncidentDate)
			if !yes.Equal(inc.YesStake) || !no.Equal(inc.NoStake) {
				broken = true
				msg += fmt.Sprintf("incident %s@%d: totals %s/%s, witnesses %s/%s\n",
					inc.CoverKey, inc.IncidentDate, inc.YesStake, inc.NoStake, yes, no)
			}
			return false
		})
		return sdk.FormatInvariant(types.ModuleName, "open-stake-totals", msg), broken
	}
}

// EscrowSolvencyInvariant checks that each cover escrow holds at least the
// stake of its unsettled incidents plus what settled winners can still
// collect.
func EscrowSolvencyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg    string
			broken bool
		)
		owed := make(map[string]sdkmath.Int)
		_ = k.IterateIncidents(ctx, func(inc types.Incident) bool {
			due, ok := owed[inc.CoverKey]
			if !ok {
				due = sdkmath.ZeroInt()
			}
			settlement, err := k.GetSettlement(ctx, inc.CoverKey, inc.IncidentDate)
			if err != nil || !settlement.Settled {
				owed[inc.CoverKey] = due.Add(inc.YesStake).Add(inc.NoStake)
				return false
			}
			owed[inc.CoverKey] = due.Add(k.unclaimedWinnings(ctx, inc, settlement))
			return false
		})
		denom := k.GetParams(ctx).StakeDenom
		for coverKey, due := range owed {
			held := k.bank.GetBalance(ctx, types.EscrowAddress(coverKey), denom).Amount
			if held.LT(due) {
				broken = true
				msg += fmt.Sprintf("cover %s: escrow holds %s, owes %s\n", coverKey, held, due)
			}
		}
		return sdk.FormatInvariant(types.ModuleName, "escrow-solvency", msg), broken
	}
}

func (k Keeper) sumStakes(ctx sdk.Context, coverKey string, incidentDate int64) (sdkmath.Int, sdkmath.Int) {
	yes, no := sdkmath.ZeroInt(), sdkmath.ZeroInt()
	rng := collections.NewSuperPrefixedTripleRange[string, int64, sdk.AccAddress](coverKey, incidentDate)
	_ = k.Stakes.Walk(ctx, rng, func(_ collections.Triple[string, int64, sdk.AccAddress], stake types.WitnessStake) (bool, error) {
		yes = yes.Add(stake.Yes)
		no = no.Add(stake.No)
		return false, nil
	})
	return yes, no
}

func (k Keeper) unclaimedWinnings(ctx sdk.Context, inc types.Incident, settlement types.Settlement) sdkmath.Int {
	due := sdkmath.ZeroInt()
	rng := collections.NewSuperPrefixedTripleRange[string, int64, sdk.AccAddress](inc.CoverKey, inc.IncidentDate)
	_ = k.Stakes.Walk(ctx, rng, func(_ collections.Triple[string, int64, sdk.AccAddress], stake types.WitnessStake) (bool, error) {
		winning := stake.No
		if inc.Outcome == types.StatusClaimable {
			winning = stake.Yes
		}
		if winning.IsPositive() {
			due = due.Add(winning).Add(settlement.RewardFor(winning))
		}
		return false, nil
	})
	return due
}
