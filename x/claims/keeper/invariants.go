package keeper

import (
	"fmt"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/x/claims/types"
	incidenttypes "github.com/al-neptune/protocol/x/incident/types"
)

// RegisterInvariants registers the claims module invariants.
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "totals-match-records", TotalsMatchRecordsInvariant(k))
	ir.RegisterRoute(types.ModuleName, "claims-authorised", ClaimsAuthorisedInvariant(k))
}

// AllInvariants runs every claims invariant.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		if res, stop := TotalsMatchRecordsInvariant(k)(ctx); stop {
			return res, stop
		}
		return ClaimsAuthorisedInvariant(k)(ctx)
	}
}

// TotalsMatchRecordsInvariant checks that per-incident totals equal the sum
// of the per-account records.
func TotalsMatchRecordsInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg    string
			broken bool
		)
		_ = k.Totals.Walk(ctx, nil, func(key collections.Pair[string, int64], totals types.ClaimTotals) (bool, error) {
			claimed, paid, fee := sdkmath.ZeroInt(), sdkmath.ZeroInt(), sdkmath.ZeroInt()
			var claimants uint32
			rng := collections.NewSuperPrefixedTripleRange[string, int64, sdk.AccAddress](key.K1(), key.K2())
			_ = k.Records.Walk(ctx, rng, func(_ collections.Triple[string, int64, sdk.AccAddress], rec types.ClaimRecord) (bool, error) {
				claimed = claimed.Add(rec.Claimed)
				paid = paid.Add(rec.PaidOut)
				fee = fee.Add(rec.Fee)
				claimants++
				return false, nil
			})
			if !claimed.Equal(totals.Claimed) || !paid.Equal(totals.PaidOut) || !fee.Equal(totals.Fee) || claimants != totals.Claimants {
				broken = true
				msg += fmt.Sprintf("%s@%d: totals %s/%s/%s over %d claimants, records %s/%s/%s over %d\n",
					key.K1(), key.K2(), totals.Claimed, totals.PaidOut, totals.Fee, totals.Claimants, claimed, paid, fee, claimants)
			}
			return false, nil
		})
		return sdk.FormatInvariant(types.ModuleName, "totals-match-records", msg), broken
	}
}

// ClaimsAuthorisedInvariant checks that payouts only exist for incidents
// that resolved Claimable and never exceed the claim tokens burned.
func ClaimsAuthorisedInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg    string
			broken bool
		)
		_ = k.Totals.Walk(ctx, nil, func(key collections.Pair[string, int64], totals types.ClaimTotals) (bool, error) {
			if totals.PaidOut.GT(totals.Claimed) || totals.Fee.GT(totals.PaidOut) {
				broken = true
				msg += fmt.Sprintf("%s@%d: paid %s (fee %s) for %s claimed\n", key.K1(), key.K2(), totals.PaidOut, totals.Fee, totals.Claimed)
			}
			if totals.PaidOut.IsZero() {
				return false, nil
			}
			inc, err := k.incidents.GetIncident(ctx, key.K1(), key.K2())
			if err != nil || inc.Outcome != incidenttypes.StatusClaimable {
				broken = true
				msg += fmt.Sprintf("%s@%d: paid %s without a claimable resolution\n", key.K1(), key.K2(), totals.PaidOut)
			}
			return false, nil
		})
		return sdk.FormatInvariant(types.ModuleName, "claims-authorised", msg), broken
	}
}
