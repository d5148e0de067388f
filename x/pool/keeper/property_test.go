package keeper_test

import (
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/al-neptune/protocol/testutil"
	"github.com/al-neptune/protocol/x/pool/types"
)

// TestRewardMonotonicity checks that with constant reward rate and total
// stake, rewards grow with height and equal blocks × rate × share exactly.
func TestRewardMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("rewards are linear in elapsed blocks", prop.ForAll(
		func(rate, aliceStake, bobStake, blocks int64) bool {
			f := setupKeeper(t)
			if err := f.k.AddOrEditPool(f.ctx, root, newPool(rate, 0, 1_000_000)); err != nil {
				return false
			}
			if err := f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(aliceStake)); err != nil {
				return false
			}
			if err := f.k.Stake(f.ctx, bob, poolKey, sdkmath.NewInt(bobStake)); err != nil {
				return false
			}

			prev := sdkmath.ZeroInt()
			for _, h := range []int64{1 + blocks, 2 + blocks, 10 + blocks} {
				got, err := f.k.CalculateRewards(testutil.AtHeight(f.ctx, h), poolKey, alice)
				if err != nil || got.LT(prev) {
					return false
				}
				want := types.PendingReward(h-1, sdkmath.NewInt(rate), sdkmath.NewInt(aliceStake), sdkmath.NewInt(aliceStake+bobStake))
				if !got.Equal(want) {
					return false
				}
				exact := (h - 1) * rate * aliceStake / (aliceStake + bobStake)
				if got.Int64() != exact {
					return false
				}
				prev = got
			}
			return true
		},
		gen.Int64Range(1, 1000),
		gen.Int64Range(1, 400_000),
		gen.Int64Range(1, 400_000),
		gen.Int64Range(0, 500),
	))

	properties.TestingRun(t)
}

// TestLockupBoundary checks that withdrawal fails one block before
// firstStake + lockup and succeeds at exactly that block.
func TestLockupBoundary(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("withdraw unlocks exactly at the boundary block", prop.ForAll(
		func(lockup int64) bool {
			f := setupKeeper(t)
			if err := f.k.AddOrEditPool(f.ctx, root, newPool(10, lockup, 1_000_000)); err != nil {
				return false
			}
			if err := f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(100)); err != nil {
				return false
			}
			unlock := f.ctx.BlockHeight() + lockup
			if f.k.CanWithdrawFrom(f.ctx, poolKey, alice) != unlock {
				return false
			}
			if lockup > 0 {
				err := f.k.Withdraw(testutil.AtHeight(f.ctx, unlock-1), alice, poolKey, sdkmath.NewInt(1))
				if !errors.Is(err, types.ErrLockupActive) {
					return false
				}
			}
			return f.k.Withdraw(testutil.AtHeight(f.ctx, unlock), alice, poolKey, sdkmath.NewInt(1)) == nil
		},
		gen.Int64Range(0, 50),
	))

	properties.TestingRun(t)
}
