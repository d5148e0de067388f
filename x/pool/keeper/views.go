package keeper

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	"github.com/al-neptune/protocol/x/pool/types"
)

// CalculateRewards returns the reward account could harvest at the current
// block, before the platform fee.
func (k Keeper) CalculateRewards(ctx context.Context, key string, account sdk.AccAddress) (sdkmath.Int, error) {
	pool, err := k.GetPool(ctx, key)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	rec, err := k.GetStake(ctx, key, account)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	_, height := ledger.Now(ctx)
	settle(pool, &rec, height)
	return rec.Accrued, nil
}

// GetTotalBlocksSinceLastReward returns the number of blocks not yet settled
// into account's accrued reward.
func (k Keeper) GetTotalBlocksSinceLastReward(ctx context.Context, key string, account sdk.AccAddress) int64 {
	rec, err := k.GetStake(ctx, key, account)
	if err != nil || rec.Amount.IsZero() {
		return 0
	}
	_, height := ledger.Now(ctx)
	if height <= rec.LastRewardHeight {
		return 0
	}
	return height - rec.LastRewardHeight
}

// GetAccountStakingBalance returns account's stake in the pool.
func (k Keeper) GetAccountStakingBalance(ctx context.Context, key string, account sdk.AccAddress) sdkmath.Int {
	rec, err := k.GetStake(ctx, key, account)
	if err != nil {
		return sdkmath.ZeroInt()
	}
	return rec.Amount
}

// GetPoolStakeBalance returns the pool's total stake.
func (k Keeper) GetPoolStakeBalance(ctx context.Context, key string) sdkmath.Int {
	pool, err := k.GetPool(ctx, key)
	if err != nil {
		return sdkmath.ZeroInt()
	}
	return pool.TotalStaked
}

// CanWithdrawFrom returns the first block height at which account may
// withdraw stake, or zero when it holds none.
func (k Keeper) CanWithdrawFrom(ctx context.Context, key string, account sdk.AccAddress) int64 {
	pool, err := k.GetPool(ctx, key)
	if err != nil {
		return 0
	}
	rec, err := k.GetStake(ctx, key, account)
	if err != nil || rec.Amount.IsZero() {
		return 0
	}
	return rec.FirstStakeHeight + pool.LockupBlocks
}

// GetInfo summarizes a pool for account. The reward value is quoted through
// the price oracle and flagged unreliable when no quote can be obtained.
func (k Keeper) GetInfo(ctx context.Context, key string, account sdk.AccAddress) (types.PoolInfo, error) {
	pool, err := k.GetPool(ctx, key)
	if err != nil {
		return types.PoolInfo{}, err
	}
	rewards, err := k.CalculateRewards(ctx, key, account)
	if err != nil {
		return types.PoolInfo{}, err
	}

	info := types.PoolInfo{
		Pool:           pool,
		Staked:         k.GetAccountStakingBalance(ctx, key, account),
		PendingRewards: rewards,
		UnlockHeight:   k.CanWithdrawFrom(ctx, key, account),
		RewardValue:    sdkmath.ZeroInt(),
	}

	switch {
	case pool.QuoteDenom == "" || pool.QuoteDenom == pool.RewardDenom:
		info.RewardValue = rewards
	case rewards.IsZero():
	default:
		value, ok := k.quote(ctx, rewards, pool.RewardDenom, pool.QuoteDenom)
		info.RewardValue = value
		info.PriceUnreliable = !ok
	}
	return info, nil
}

// quote asks the oracle for the output of swapping amount of in to out. A
// quote is cached for the rest of the block. The second return is false
// when the oracle fails or quotes zero; thin markets on the oracle venue
// produce unreliable values and are not corrected here.
func (k Keeper) quote(ctx context.Context, amount sdkmath.Int, in, out string) (sdkmath.Int, bool) {
	if k.oracle == nil {
		return sdkmath.ZeroInt(), false
	}
	_, height := ledger.Now(ctx)
	cacheKey := fmt.Sprintf("%d/%s/%s/%s", height, in, out, amount)
	if cached, ok := k.quotes.Get(cacheKey); ok {
		return cached, true
	}

	amounts, err := k.oracle.GetAmountsOut(ctx, amount, []string{in, out})
	if err != nil || len(amounts) == 0 {
		k.Logger(ctx).Debug("price quote unavailable", "in", in, "out", out, "err", err)
		return sdkmath.ZeroInt(), false
	}
	value := amounts[len(amounts)-1]
	if value.IsNil() || !value.IsPositive() {
		return sdkmath.ZeroInt(), false
	}
	k.quotes.Add(cacheKey, value)
	return value, true
}
