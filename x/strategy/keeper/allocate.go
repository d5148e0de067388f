package keeper

import (
	"context"
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	"github.com/al-neptune/protocol/x/strategy/types"
)

// SetCoverStrategies replaces the ordered allocation list of a cover. A zero
// weight takes the strategy's default weight. Weight not assigned to any
// strategy stays in the vault as float.
func (k Keeper) SetCoverStrategies(ctx context.Context, caller sdk.AccAddress, coverKey string, allocs []types.Allocation) error {
	if err := k.access.EnsureRole(ctx, accesstypes.RoleLiquidityManager, caller); err != nil {
		return err
	}
	if !k.covers.HasCover(ctx, coverKey) {
		return errorsmod.Wrapf(types.ErrCoverNotFound, "%s", coverKey)
	}
	resolved, err := k.resolveAllocations(ctx, coverKey, allocs)
	if err != nil {
		return err
	}
	if err := k.CoverStrategies.Set(ctx, coverKey, resolved); err != nil {
		return err
	}

	weights := make([]string, 0, len(resolved))
	for _, a := range resolved {
		weights = append(weights, fmt.Sprintf("%s:%d", a.StrategyKey, a.WeightBps))
	}
	k.Logger(ctx).Info("cover strategies set", "cover", coverKey, "weights", strings.Join(weights, ","))
	ledger.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeStrategiesSet,
		sdk.NewAttribute(types.AttributeKeyCoverKey, coverKey),
		sdk.NewAttribute(types.AttributeKeyWeights, strings.Join(weights, ",")),
	))
	return nil
}

func (k Keeper) resolveAllocations(ctx context.Context, coverKey string, allocs []types.Allocation) ([]types.Allocation, error) {
	stablecoin := k.covers.StablecoinDenom(ctx, coverKey)
	resolved := make([]types.Allocation, 0, len(allocs))
	for _, a := range allocs {
		s, err := k.GetStrategy(a.StrategyKey)
		if err != nil {
			return nil, err
		}
		if s.GetStablecoinDenom() != stablecoin {
			return nil, errorsmod.Wrapf(types.ErrInvalidStrategy, "strategy %s lends %s, cover %s holds %s",
				a.StrategyKey, s.GetStablecoinDenom(), coverKey, stablecoin)
		}
		if a.WeightBps == 0 {
			a.WeightBps = s.GetWeight()
		}
		resolved = append(resolved, a)
	}
	if err := types.ValidateAllocations(resolved); err != nil {
		return nil, errorsmod.Wrap(types.ErrInvalidWeights, err.Error())
	}
	return resolved, nil
}

// MsgAllocate is the role-checked entry for Allocate.
func (k Keeper) MsgAllocate(ctx context.Context, caller sdk.AccAddress, coverKey string, amount sdkmath.Int) (types.AllocationResult, error) {
	if err := k.access.EnsureRole(ctx, accesstypes.RoleLiquidityManager, caller); err != nil {
		return types.AllocationResult{}, err
	}
	return k.Allocate(ctx, coverKey, amount)
}

// Allocate lends amount of a cover's vault float to its strategies by
// weight. Each share rounds down and the remainder stays in the vault. The
// call is all or nothing: a failing strategy aborts every transfer made.
func (k Keeper) Allocate(ctx context.Context, coverKey string, amount sdkmath.Int) (types.AllocationResult, error) {
	release, err := k.guard.Enter("allocate")
	if err != nil {
		return types.AllocationResult{}, err
	}
	defer release()

	if err := k.ensureNotHalted(ctx); err != nil {
		return types.AllocationResult{}, err
	}

	if amount.IsNil() || !amount.IsPositive() {
		return types.AllocationResult{}, errorsmod.Wrap(types.ErrInvalidAmount, "allocation must be positive")
	}

	return ledger.AtomicResult(ctx, func(ctx sdk.Context) (types.AllocationResult, error) {
		if !k.covers.HasCover(ctx, coverKey) {
			return types.AllocationResult{}, errorsmod.Wrapf(types.ErrCoverNotFound, "%s", coverKey)
		}
		vault := k.covers.VaultAddress(coverKey)
		stablecoin := k.covers.StablecoinDenom(ctx, coverKey)
		if float := k.bank.GetBalance(ctx, vault, stablecoin).Amount; float.LT(amount) {
			return types.AllocationResult{}, errorsmod.Wrapf(types.ErrInsufficientVaultBalance, "float %s < %s", float, amount)
		}

		allocs, err := k.GetCoverStrategies(ctx, coverKey)
		if err != nil {
			return types.AllocationResult{}, err
		}

		result := types.AllocationResult{Allocated: sdkmath.ZeroInt()}
		for _, a := range allocs {
			share := ledger.MulBps(amount, a.WeightBps)
			if !share.IsPositive() {
				continue
			}
			s, err := k.GetStrategy(a.StrategyKey)
			if err != nil {
				return types.AllocationResult{}, err
			}
			certs, err := k.depositInto(ctx, s, coverKey, vault, share)
			if err != nil {
				return types.AllocationResult{}, err
			}
			result.Allocated = result.Allocated.Add(share)
			result.Entries = append(result.Entries, types.AllocationEntry{
				StrategyKey:  s.GetKey(),
				Amount:       share,
				Certificates: certs,
			})
		}

		if result.Allocated.IsPositive() {
			totals, err := k.GetCoverTotals(ctx, coverKey)
			if err != nil {
				return types.AllocationResult{}, err
			}
			totals.Deposited = totals.Deposited.Add(result.Allocated)
			if err := k.CoverTotals.Set(ctx, coverKey, totals); err != nil {
				return types.AllocationResult{}, err
			}
		}

		k.Logger(ctx).Info("vault allocated", "cover", coverKey, "requested", amount.String(), "allocated", result.Allocated.String())
		return result, nil
	})
}

// depositInto moves share from the vault into s and checks that every
// certificate came back to the vault.
func (k Keeper) depositInto(ctx context.Context, s types.Strategy, coverKey string, vault sdk.AccAddress, share sdkmath.Int) (sdkmath.Int, error) {
	if err := k.drain(ctx, s, coverKey, vault); err != nil {
		return sdkmath.ZeroInt(), err
	}

	coins := sdk.NewCoins(sdk.NewCoin(s.GetStablecoinDenom(), share))
	if err := k.bank.SendCoins(ctx, vault, s.GetAddress(), coins); err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrExternalCallFailed, "transfer to strategy %s: %s", s.GetKey(), err)
	}

	before := k.bank.GetBalance(ctx, vault, s.GetCertificateDenom()).Amount
	certs, err := s.Deposit(ctx, coverKey, share, vault)
	if err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrExternalCallFailed, "strategy %s deposit: %s", s.GetKey(), err)
	}
	received := k.bank.GetBalance(ctx, vault, s.GetCertificateDenom()).Amount.Sub(before)
	if !received.Equal(certs) || !received.IsPositive() {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrExternalCallFailed,
			"strategy %s reported %s certificates, vault received %s", s.GetKey(), certs, received)
	}
	if err := k.ensureEmpty(ctx, s); err != nil {
		return sdkmath.ZeroInt(), err
	}

	ledger.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeAllocated,
		sdk.NewAttribute(types.AttributeKeyCoverKey, coverKey),
		sdk.NewAttribute(types.AttributeKeyStrategy, s.GetKey()),
		sdk.NewAttribute(types.AttributeKeyAmount, share.String()),
		sdk.NewAttribute(types.AttributeKeyCertificates, certs.String()),
	))
	return certs, nil
}

// drain returns any stablecoin or certificate balance sitting on the
// strategy address to the vault.
func (k Keeper) drain(ctx context.Context, s types.Strategy, coverKey string, vault sdk.AccAddress) error {
	for _, denom := range []string{s.GetStablecoinDenom(), s.GetCertificateDenom()} {
		stray := k.bank.GetBalance(ctx, s.GetAddress(), denom)
		if !stray.IsPositive() {
			continue
		}
		if err := k.bank.SendCoins(ctx, s.GetAddress(), vault, sdk.NewCoins(stray)); err != nil {
			return errorsmod.Wrapf(types.ErrExternalCallFailed, "drain %s from strategy %s: %s", stray, s.GetKey(), err)
		}
		k.Logger(ctx).Info("drained stray strategy balance", "cover", coverKey, "strategy", s.GetKey(), "amount", stray.String())
		ledger.EmitEvent(ctx, sdk.NewEvent(
			types.EventTypeDrained,
			sdk.NewAttribute(types.AttributeKeyCoverKey, coverKey),
			sdk.NewAttribute(types.AttributeKeyStrategy, s.GetKey()),
			sdk.NewAttribute(types.AttributeKeyAmount, stray.String()),
		))
	}
	return nil
}

func (k Keeper) ensureEmpty(ctx context.Context, s types.Strategy) error {
	for _, denom := range []string{s.GetStablecoinDenom(), s.GetCertificateDenom()} {
		if left := k.bank.GetBalance(ctx, s.GetAddress(), denom); left.IsPositive() {
			return errorsmod.Wrapf(types.ErrStrandedBalance, "strategy %s holds %s", s.GetKey(), left)
		}
	}
	return nil
}
