package keeper

import (
	"context"
	"errors"
	"strconv"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	"github.com/al-neptune/protocol/x/pool/types"
)

// AddOrEditPool creates a pool or updates the configuration of an existing
// one. Balances and the closed flag of an existing pool are preserved.
func (k Keeper) AddOrEditPool(ctx context.Context, caller sdk.AccAddress, pool types.Pool) error {
	if err := k.access.EnsureRole(ctx, accesstypes.RoleAdmin, caller); err != nil {
		return err
	}
	if err := pool.Validate(); err != nil {
		return errorsmod.Wrap(types.ErrInvalidPool, err.Error())
	}

	existing, err := k.Pools.Get(ctx, pool.Key)
	switch {
	case errors.Is(err, collections.ErrNotFound):
		_, height := ledger.Now(ctx)
		pool.TotalStaked = sdkmath.ZeroInt()
		pool.RewardBalance = sdkmath.ZeroInt()
		pool.Closed = false
		pool.CreatedAtHeight = height
	case err != nil:
		return err
	default:
		if existing.StakingDenom != pool.StakingDenom || existing.RewardDenom != pool.RewardDenom {
			return errorsmod.Wrapf(types.ErrInvalidPool, "pool %s denoms cannot change", pool.Key)
		}
		if pool.MaxStake.LT(existing.TotalStaked) {
			return errorsmod.Wrapf(types.ErrInvalidPool, "max stake %s below total staked %s", pool.MaxStake, existing.TotalStaked)
		}
		pool.TotalStaked = existing.TotalStaked
		pool.RewardBalance = existing.RewardBalance
		pool.Closed = existing.Closed
		pool.CreatedAtHeight = existing.CreatedAtHeight
	}

	if err := k.Pools.Set(ctx, pool.Key, pool); err != nil {
		return err
	}

	k.Logger(ctx).Info("pool updated", "pool", pool.Key, "reward_per_block", pool.RewardPerBlock.String())
	ledger.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypePoolUpdated,
		sdk.NewAttribute(types.AttributeKeyPoolKey, pool.Key),
	))
	return nil
}

// ClosePool stops a pool from accepting new stake. Existing stakers may
// still withdraw their stake and rewards.
func (k Keeper) ClosePool(ctx context.Context, caller sdk.AccAddress, key string) error {
	if err := k.access.EnsureRole(ctx, accesstypes.RoleAdmin, caller); err != nil {
		return err
	}
	pool, err := k.GetPool(ctx, key)
	if err != nil {
		return err
	}
	pool.Closed = true
	if err := k.Pools.Set(ctx, key, pool); err != nil {
		return err
	}

	k.Logger(ctx).Info("pool closed", "pool", key)
	ledger.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypePoolClosed,
		sdk.NewAttribute(types.AttributeKeyPoolKey, key),
	))
	return nil
}

// FundRewards moves reward tokens from funder into the pool.
func (k Keeper) FundRewards(ctx context.Context, funder sdk.AccAddress, key string, amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrap(types.ErrInvalidAmount, "reward amount must be positive")
	}
	return ledger.Atomic(ctx, func(ctx sdk.Context) error {
		pool, err := k.GetPool(ctx, key)
		if err != nil {
			return err
		}
		coins := sdk.NewCoins(sdk.NewCoin(pool.RewardDenom, amount))
		if err := k.bank.SendCoins(ctx, funder, types.PoolAddress(key), coins); err != nil {
			return errorsmod.Wrapf(types.ErrExternalCallFailed, "fund rewards: %s", err)
		}
		pool.RewardBalance = pool.RewardBalance.Add(amount)
		if err := k.Pools.Set(ctx, key, pool); err != nil {
			return err
		}

		ledger.EmitEvent(ctx, sdk.NewEvent(
			types.EventTypeRewardsFunded,
			sdk.NewAttribute(types.AttributeKeyPoolKey, key),
			sdk.NewAttribute(types.AttributeKeyAccount, funder.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyHeight, strconv.FormatInt(ctx.BlockHeight(), 10)),
		))
		return nil
	})
}
