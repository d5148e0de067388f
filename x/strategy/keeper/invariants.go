package keeper

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/x/strategy/types"
)

// RegisterInvariants registers all strategy module invariants.
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "no-stranded-balance", NoStrandedBalanceInvariant(k))
	ir.RegisterRoute(types.ModuleName, "totals-match-backends", TotalsMatchBackendsInvariant(k))
	ir.RegisterRoute(types.ModuleName, "totals-monotonic", TotalsSaneInvariant(k))
}

// AllInvariants runs every strategy invariant.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range []sdk.Invariant{
			NoStrandedBalanceInvariant(k),
			TotalsMatchBackendsInvariant(k),
			TotalsSaneInvariant(k),
		} {
			if msg, broken := inv(ctx); broken {
				return msg, broken
			}
		}
		return "", false
	}
}

// NoStrandedBalanceInvariant checks that no strategy address holds its
// stablecoin or certificate between calls.
func NoStrandedBalanceInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg    string
			broken bool
		)
		for _, s := range k.Strategies() {
			if err := k.ensureEmpty(ctx, s); err != nil {
				broken = true
				msg += err.Error() + "\n"
			}
		}
		return sdk.FormatInvariant(types.ModuleName, "no-stranded-balance", msg), broken
	}
}

// TotalsMatchBackendsInvariant checks that each cover's totals equal the sum
// of the flows its configured strategies recorded.
func TotalsMatchBackendsInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg    string
			broken bool
		)
		_ = k.CoverTotals.Walk(ctx, nil, func(coverKey string, totals types.CoverTotals) (bool, error) {
			deposited, withdrawn := sdkmath.ZeroInt(), sdkmath.ZeroInt()
			for _, s := range k.Strategies() {
				info, err := s.GetInfo(ctx, coverKey)
				if err != nil {
					broken = true
					msg += fmt.Sprintf("cover %s: strategy %s info: %s\n", coverKey, s.GetKey(), err)
					continue
				}
				deposited = deposited.Add(info.Deposited)
				withdrawn = withdrawn.Add(info.Withdrawn)
			}
			if !deposited.Equal(totals.Deposited) || !withdrawn.Equal(totals.Withdrawn) {
				broken = true
				msg += fmt.Sprintf("cover %s: totals %s/%s, backends %s/%s\n",
					coverKey, totals.Deposited, totals.Withdrawn, deposited, withdrawn)
			}
			return false, nil
		})
		return sdk.FormatInvariant(types.ModuleName, "totals-match-backends", msg), broken
	}
}

// TotalsSaneInvariant checks that no cover total is negative.
func TotalsSaneInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg    string
			broken bool
		)
		_ = k.CoverTotals.Walk(ctx, nil, func(coverKey string, totals types.CoverTotals) (bool, error) {
			if totals.Deposited.IsNegative() || totals.Withdrawn.IsNegative() {
				broken = true
				msg += fmt.Sprintf("cover %s: negative totals %s/%s\n", coverKey, totals.Deposited, totals.Withdrawn)
			}
			return false, nil
		})
		return sdk.FormatInvariant(types.ModuleName, "totals-monotonic", msg), broken
	}
}
