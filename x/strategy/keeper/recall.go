package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	"github.com/al-neptune/protocol/x/strategy/types"
)

// MsgRecall is the role-checked entry for Recall.
func (k Keeper) MsgRecall(ctx context.Context, caller sdk.AccAddress, coverKey, strategyKey string, amount sdkmath.Int) (sdkmath.Int, error) {
	if err := k.access.EnsureRole(ctx, accesstypes.RoleLiquidityManager, caller); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return k.Recall(ctx, coverKey, strategyKey, amount)
}

// Recall redeems enough of the vault's certificates in one strategy to
// receive at least amount of stablecoin, or every certificate when amount is
// zero. It returns zero without error when the vault holds no certificates.
func (k Keeper) Recall(ctx context.Context, coverKey, strategyKey string, amount sdkmath.Int) (sdkmath.Int, error) {
	release, err := k.guard.Enter("recall")
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer release()

	if amount.IsNil() || amount.IsNegative() {
		return sdkmath.ZeroInt(), errorsmod.Wrap(types.ErrInvalidAmount, "recall amount cannot be negative")
	}

	return ledger.AtomicResult(ctx, func(ctx sdk.Context) (sdkmath.Int, error) {
		s, err := k.GetStrategy(strategyKey)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		return k.recallFrom(ctx, s, coverKey, amount)
	})
}

// RecallFor walks the cover's strategies in configured order, then any
// other registered strategy lending the cover's stablecoin, recalling until
// needed is covered or every strategy is empty. The total received is
// returned; it can fall short of needed.
func (k Keeper) RecallFor(ctx context.Context, coverKey string, needed sdkmath.Int) (sdkmath.Int, error) {
	release, err := k.guard.Enter("recall_for")
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer release()

	return ledger.AtomicResult(ctx, func(ctx sdk.Context) (sdkmath.Int, error) {
		received := sdkmath.ZeroInt()
		if !needed.IsPositive() {
			return received, nil
		}
		order, err := k.recallOrder(ctx, coverKey)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		for _, s := range order {
			if received.GTE(needed) {
				break
			}
			got, err := k.recallFrom(ctx, s, coverKey, needed.Sub(received))
			if err != nil {
				return sdkmath.ZeroInt(), err
			}
			received = received.Add(got)
		}
		return received, nil
	})
}

// recallOrder lists configured strategies first so a strategy removed from
// a cover's list can still return the certificates the vault holds.
// Strategies lending another stablecoin never hold this cover's funds.
func (k Keeper) recallOrder(ctx context.Context, coverKey string) ([]types.Strategy, error) {
	allocs, err := k.GetCoverStrategies(ctx, coverKey)
	if err != nil {
		return nil, err
	}
	order := make([]types.Strategy, 0, len(k.registry.byKey))
	seen := make(map[string]struct{}, len(allocs))
	for _, a := range allocs {
		s, err := k.GetStrategy(a.StrategyKey)
		if err != nil {
			return nil, err
		}
		order = append(order, s)
		seen[a.StrategyKey] = struct{}{}
	}
	stablecoin := k.covers.StablecoinDenom(ctx, coverKey)
	for _, s := range k.Strategies() {
		if _, ok := seen[s.GetKey()]; ok || s.GetStablecoinDenom() != stablecoin {
			continue
		}
		order = append(order, s)
	}
	return order, nil
}

func (k Keeper) recallFrom(ctx context.Context, s types.Strategy, coverKey string, amount sdkmath.Int) (sdkmath.Int, error) {
	if !k.covers.HasCover(ctx, coverKey) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrCoverNotFound, "%s", coverKey)
	}
	vault := k.covers.VaultAddress(coverKey)
	// stray strategy balances are only swept by a vault with a position
	if k.bank.GetBalance(ctx, vault, s.GetCertificateDenom()).Amount.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	if err := k.drain(ctx, s, coverKey, vault); err != nil {
		return sdkmath.ZeroInt(), err
	}

	held := k.bank.GetBalance(ctx, vault, s.GetCertificateDenom()).Amount
	certs := held
	if amount.IsPositive() {
		preview, err := s.PreviewCertificates(ctx, amount)
		if err != nil {
			return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrExternalCallFailed, "strategy %s preview: %s", s.GetKey(), err)
		}
		certs = sdkmath.MinInt(held, preview)
	}
	if !certs.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}

	coins := sdk.NewCoins(sdk.NewCoin(s.GetCertificateDenom(), certs))
	if err := k.bank.SendCoins(ctx, vault, s.GetAddress(), coins); err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrExternalCallFailed, "transfer to strategy %s: %s", s.GetKey(), err)
	}

	before := k.bank.GetBalance(ctx, vault, s.GetStablecoinDenom()).Amount
	underlying, err := s.Withdraw(ctx, coverKey, vault)
	if err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrExternalCallFailed, "strategy %s withdraw: %s", s.GetKey(), err)
	}
	received := k.bank.GetBalance(ctx, vault, s.GetStablecoinDenom()).Amount.Sub(before)
	if !received.Equal(underlying) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrExternalCallFailed,
			"strategy %s reported %s, vault received %s", s.GetKey(), underlying, received)
	}
	if err := k.ensureEmpty(ctx, s); err != nil {
		return sdkmath.ZeroInt(), err
	}

	totals, err := k.GetCoverTotals(ctx, coverKey)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	totals.Withdrawn = totals.Withdrawn.Add(received)
	if err := k.CoverTotals.Set(ctx, coverKey, totals); err != nil {
		return sdkmath.ZeroInt(), err
	}

	k.Logger(ctx).Info("vault recalled", "cover", coverKey, "strategy", s.GetKey(), "certificates", certs.String(), "received", received.String())
	ledger.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeRecalled,
		sdk.NewAttribute(types.AttributeKeyCoverKey, coverKey),
		sdk.NewAttribute(types.AttributeKeyStrategy, s.GetKey()),
		sdk.NewAttribute(types.AttributeKeyCertificates, certs.String()),
		sdk.NewAttribute(types.AttributeKeyAmount, received.String()),
	))
	return received, nil
}
