package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	"github.com/al-neptune/protocol/x/pool/types"
)

// Stake moves amount of the pool's staking token from account into the pool.
// Pending rewards are settled against the pre-stake totals first.
func (k Keeper) Stake(ctx context.Context, account sdk.AccAddress, key string, amount sdkmath.Int) error {
	release, err := k.guard.Enter("stake")
	if err != nil {
		return err
	}
	defer release()

	if err := k.ensureNotHalted(ctx); err != nil {
		return err
	}

	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrap(types.ErrInvalidAmount, "stake amount must be positive")
	}

	return ledger.Atomic(ctx, func(ctx sdk.Context) error {
		pool, err := k.GetPool(ctx, key)
		if err != nil {
			return err
		}
		if pool.Closed {
			return errorsmod.Wrapf(types.ErrPoolClosed, "%s", key)
		}
		if pool.TotalStaked.Add(amount).GT(pool.MaxStake) {
			return errorsmod.Wrapf(types.ErrMaxStakeExceeded, "total %s + %s exceeds %s", pool.TotalStaked, amount, pool.MaxStake)
		}
		if balance := k.bank.GetBalance(ctx, account, pool.StakingDenom); balance.Amount.LT(amount) {
			return errorsmod.Wrapf(types.ErrInsufficientBalance, "balance %s < %s", balance.Amount, amount)
		}

		rec, err := k.GetStake(ctx, key, account)
		if err != nil {
			return err
		}
		height := ctx.BlockHeight()
		settle(pool, &rec, height)

		coins := sdk.NewCoins(sdk.NewCoin(pool.StakingDenom, amount))
		if err := k.bank.SendCoins(ctx, account, types.PoolAddress(key), coins); err != nil {
			return errorsmod.Wrapf(types.ErrExternalCallFailed, "stake transfer: %s", err)
		}

		if rec.Amount.IsZero() {
			rec.FirstStakeHeight = height
		}
		rec.Amount = rec.Amount.Add(amount)
		pool.TotalStaked = pool.TotalStaked.Add(amount)

		if err := k.Stakes.Set(ctx, collections.Join(key, account), rec); err != nil {
			return err
		}
		if err := k.Pools.Set(ctx, key, pool); err != nil {
			return err
		}

		k.Logger(ctx).Debug("staked", "pool", key, "account", account.String(), "amount", amount.String())
		ledger.EmitEvent(ctx, sdk.NewEvent(
			types.EventTypeStaked,
			sdk.NewAttribute(types.AttributeKeyPoolKey, key),
			sdk.NewAttribute(types.AttributeKeyAccount, account.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyTotalStaked, pool.TotalStaked.String()),
			sdk.NewAttribute(types.AttributeKeyHeight, strconv.FormatInt(height, 10)),
		))
		return nil
	})
}

// Withdraw returns amount of staked tokens to account once the lockup has
// elapsed. Accrued rewards stay claimable through WithdrawRewards.
func (k Keeper) Withdraw(ctx context.Context, account sdk.AccAddress, key string, amount sdkmath.Int) error {
	release, err := k.guard.Enter("withdraw")
	if err != nil {
		return err
	}
	defer release()

	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrap(types.ErrInvalidAmount, "withdraw amount must be positive")
	}

	return ledger.Atomic(ctx, func(ctx sdk.Context) error {
		pool, err := k.GetPool(ctx, key)
		if err != nil {
			return err
		}
		rec, err := k.GetStake(ctx, key, account)
		if err != nil {
			return err
		}
		if amount.GT(rec.Amount) {
			return errorsmod.Wrapf(types.ErrInsufficientStake, "staked %s < %s", rec.Amount, amount)
		}
		height := ctx.BlockHeight()
		if unlock := rec.FirstStakeHeight + pool.LockupBlocks; height < unlock {
			return errorsmod.Wrapf(types.ErrLockupActive, "unlocks at height %d", unlock)
		}

		settle(pool, &rec, height)

		coins := sdk.NewCoins(sdk.NewCoin(pool.StakingDenom, amount))
		if err := k.bank.SendCoins(ctx, types.PoolAddress(key), account, coins); err != nil {
			return errorsmod.Wrapf(types.ErrExternalCallFailed, "withdraw transfer: %s", err)
		}

		rec.Amount = rec.Amount.Sub(amount)
		pool.TotalStaked = pool.TotalStaked.Sub(amount)
		if rec.Amount.IsZero() {
			rec.FirstStakeHeight = 0
		}

		if err := k.Stakes.Set(ctx, collections.Join(key, account), rec); err != nil {
			return err
		}
		if err := k.Pools.Set(ctx, key, pool); err != nil {
			return err
		}

		k.Logger(ctx).Debug("withdrawn", "pool", key, "account", account.String(), "amount", amount.String())
		ledger.EmitEvent(ctx, sdk.NewEvent(
			types.EventTypeWithdrawn,
			sdk.NewAttribute(types.AttributeKeyPoolKey, key),
			sdk.NewAttribute(types.AttributeKeyAccount, account.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyTotalStaked, pool.TotalStaked.String()),
			sdk.NewAttribute(types.AttributeKeyHeight, strconv.FormatInt(height, 10)),
		))
		return nil
	})
}

// WithdrawRewards settles and pays out account's accrued reward, net of the
// platform fee, and returns the net amount paid. Payouts are capped by the
// pool's funded reward balance; any remainder stays accrued.
func (k Keeper) WithdrawRewards(ctx context.Context, account sdk.AccAddress, key string) (sdkmath.Int, error) {
	release, err := k.guard.Enter("withdraw_rewards")
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer release()

	return ledger.AtomicResult(ctx, func(ctx sdk.Context) (sdkmath.Int, error) {
		pool, err := k.GetPool(ctx, key)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		rec, err := k.GetStake(ctx, key, account)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		settle(pool, &rec, ctx.BlockHeight())

		reward := sdkmath.MinInt(rec.Accrued, pool.RewardBalance)
		fee := ledger.MulBps(reward, pool.PlatformFeeBps)
		net := reward.Sub(fee)

		if net.IsPositive() {
			coins := sdk.NewCoins(sdk.NewCoin(pool.RewardDenom, net))
			if err := k.bank.SendCoins(ctx, types.PoolAddress(key), account, coins); err != nil {
				return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrExternalCallFailed, "reward transfer: %s", err)
			}
		}
		if fee.IsPositive() {
			treasury, err := k.treasury(ctx)
			if err != nil {
				return sdkmath.ZeroInt(), err
			}
			coins := sdk.NewCoins(sdk.NewCoin(pool.RewardDenom, fee))
			if err := k.bank.SendCoins(ctx, types.PoolAddress(key), treasury, coins); err != nil {
				return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrExternalCallFailed, "fee transfer: %s", err)
			}
		}

		rec.Accrued = rec.Accrued.Sub(reward)
		rec.Harvested = rec.Harvested.Add(net)
		pool.RewardBalance = pool.RewardBalance.Sub(reward)

		if err := k.Stakes.Set(ctx, collections.Join(key, account), rec); err != nil {
			return sdkmath.ZeroInt(), err
		}
		if err := k.Pools.Set(ctx, key, pool); err != nil {
			return sdkmath.ZeroInt(), err
		}

		if reward.IsPositive() {
			ledger.EmitEvent(ctx, sdk.NewEvent(
				types.EventTypeRewardsWithdrawn,
				sdk.NewAttribute(types.AttributeKeyPoolKey, key),
				sdk.NewAttribute(types.AttributeKeyAccount, account.String()),
				sdk.NewAttribute(types.AttributeKeyReward, net.String()),
				sdk.NewAttribute(types.AttributeKeyPlatformFee, fee.String()),
			))
		}
		return net, nil
	})
}
