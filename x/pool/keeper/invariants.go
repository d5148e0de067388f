package keeper

import (
	"fmt"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/x/pool/types"
)

// RegisterInvariants registers all pool module invariants.
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "max-stake", MaxStakeInvariant(k))
	ir.RegisterRoute(types.ModuleName, "total-staked", TotalStakedInvariant(k))
	ir.RegisterRoute(types.ModuleName, "pool-backing", PoolBackingInvariant(k))
}

// AllInvariants runs every pool invariant.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range []sdk.Invariant{
			MaxStakeInvariant(k),
			TotalStakedInvariant(k),
			PoolBackingInvariant(k),
		} {
			if msg, broken := inv(ctx); broken {
				return msg, broken
			}
		}
		return "", false
	}
}

// MaxStakeInvariant checks that no pool holds more stake than its cap.
func MaxStakeInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg    string
			broken bool
		)
		_ = k.Pools.Walk(ctx, nil, func(key string, pool types.Pool) (bool, error) {
			if pool.TotalStaked.GT(pool.MaxStake) {
				broken = true
				msg += fmt.Sprintf("pool %s: total staked %s exceeds max %s\n", key, pool.TotalStaked, pool.MaxStake)
			}
			return false, nil
		})
		return sdk.FormatInvariant(types.ModuleName, "max-stake", msg), broken
	}
}

// TotalStakedInvariant checks that each pool's total equals the sum of its
// stake records.
func TotalStakedInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg    string
			broken bool
		)
		_ = k.Pools.Walk(ctx, nil, func(key string, pool types.Pool) (bool, error) {
			sum := sdkmath.ZeroInt()
			rng := collections.NewPrefixedPairRange[string, sdk.AccAddress](key)
			_ = k.Stakes.Walk(ctx, rng, func(_ collections.Pair[string, sdk.AccAddress], rec types.StakeRecord) (bool, error) {
				sum = sum.Add(rec.Amount)
				return false, nil
			})
			if !sum.Equal(pool.TotalStaked) {
				broken = true
				msg += fmt.Sprintf("pool %s: total staked %s != sum of stakes %s\n", key, pool.TotalStaked, sum)
			}
			return false, nil
		})
		return sdk.FormatInvariant(types.ModuleName, "total-staked", msg), broken
	}
}

// PoolBackingInvariant checks that every pool account holds at least its
// total stake plus its unpaid reward balance.
func PoolBackingInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			msg    string
			broken bool
		)
		_ = k.Pools.Walk(ctx, nil, func(key string, pool types.Pool) (bool, error) {
			required := map[string]sdkmath.Int{pool.StakingDenom: pool.TotalStaked}
			if pool.RewardDenom == pool.StakingDenom {
				required[pool.StakingDenom] = pool.TotalStaked.Add(pool.RewardBalance)
			} else {
				required[pool.RewardDenom] = pool.RewardBalance
			}
			for denom, want := range required {
				held := k.bank.GetBalance(ctx, types.PoolAddress(key), denom).Amount
				if held.LT(want) {
					broken = true
					msg += fmt.Sprintf("pool %s: holds %s%s, owes %s\n", key, held, denom, want)
				}
			}
			return false, nil
		})
		return sdk.FormatInvariant(types.ModuleName, "pool-backing", msg), broken
	}
}
