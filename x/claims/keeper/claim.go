package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	"github.com/al-neptune/protocol/x/claims/types"
	incidenttypes "github.com/al-neptune/protocol/x/incident/types"
)

// Claim burns amount of claimant's claim tokens from the expiry bucket and
// pays the payout, net of the platform fee, from the cover vault. Vault
// float is used first; any shortfall is recalled from strategies.
func (k Keeper) Claim(ctx context.Context, claimant sdk.AccAddress, coverKey string, incidentDate, expiryBucket int64, amount sdkmath.Int) (types.ClaimResult, error) {
	release, err := k.guard.Enter("claim")
	if err != nil {
		return types.ClaimResult{}, err
	}
	defer release()

	if err := k.ensureNotHalted(ctx); err != nil {
		return types.ClaimResult{}, err
	}

	if amount.IsNil() || !amount.IsPositive() {
		return types.ClaimResult{}, errorsmod.Wrap(types.ErrInvalidAmount, "claim amount must be positive")
	}

	return ledger.AtomicResult(ctx, func(ctx sdk.Context) (types.ClaimResult, error) {
		inc, err := k.incidents.GetIncident(ctx, coverKey, incidentDate)
		if err != nil {
			return types.ClaimResult{}, errorsmod.Wrapf(types.ErrNotClaimable, "%s@%d: %s", coverKey, incidentDate, err)
		}
		totals, err := k.GetIncidentClaimTotals(ctx, coverKey, incidentDate)
		if err != nil {
			return types.ClaimResult{}, err
		}
		if totals.Closed {
			return types.ClaimResult{}, errorsmod.Wrapf(types.ErrClaimsClosed, "%s@%d", coverKey, incidentDate)
		}
		if inc.Status != incidenttypes.StatusClaimable {
			return types.ClaimResult{}, errorsmod.Wrapf(types.ErrNotClaimable, "incident is %s", inc.Status)
		}
		now := ctx.BlockTime().Unix()
		if !inc.ClaimWindowOpen(now) {
			return types.ClaimResult{}, errorsmod.Wrapf(types.ErrClaimWindowClosed, "window [%d, %d), now %d", inc.ClaimBeginsAt, inc.ClaimExpiresAt, now)
		}
		if expiryBucket <= incidentDate {
			return types.ClaimResult{}, errorsmod.Wrapf(types.ErrPolicyExpired, "bucket %d expired before incident %d", expiryBucket, incidentDate)
		}
		held, err := k.claimTokens.BalanceOf(ctx, coverKey, expiryBucket, claimant)
		if err != nil {
			return types.ClaimResult{}, err
		}
		if held.LT(amount) {
			return types.ClaimResult{}, errorsmod.Wrapf(types.ErrInsufficientClaimTokenBalance, "holds %s, claims %s", held, amount)
		}

		params := k.GetParams(ctx)
		payout, fee := types.ComputePayout(amount, params.PayoutRatioBps, params.PlatformFeeBps)
		if !payout.IsPositive() {
			return types.ClaimResult{}, errorsmod.Wrapf(types.ErrInvalidAmount, "claim of %s pays nothing", amount)
		}

		recalled, err := k.fund(ctx, coverKey, payout)
		if err != nil {
			return types.ClaimResult{}, err
		}

		if err := k.claimTokens.Burn(ctx, coverKey, expiryBucket, claimant, amount); err != nil {
			return types.ClaimResult{}, errorsmod.Wrapf(types.ErrExternalCallFailed, "burn claim tokens: %s", err)
		}

		res := types.ClaimResult{
			Burned:   amount,
			Payout:   payout,
			Fee:      fee,
			Net:      payout.Sub(fee),
			Recalled: recalled,
		}
		if err := k.payOut(ctx, coverKey, claimant, res); err != nil {
			return types.ClaimResult{}, err
		}
		if err := k.record(ctx, coverKey, incidentDate, claimant, res, now); err != nil {
			return types.ClaimResult{}, err
		}

		k.Logger(ctx).Info("claim paid",
			"cover", coverKey,
			"incident_date", incidentDate,
			"claimant", claimant.String(),
			"burned", amount.String(),
			"net", res.Net.String(),
			"fee", fee.String(),
			"recalled", recalled.String(),
		)
		ledger.EmitEvent(ctx, sdk.NewEvent(types.EventTypeClaimed,
			sdk.NewAttribute(types.AttributeKeyCoverKey, coverKey),
			sdk.NewAttribute(types.AttributeKeyIncidentDate, strconv.FormatInt(incidentDate, 10)),
			sdk.NewAttribute(types.AttributeKeyClaimant, claimant.String()),
			sdk.NewAttribute(types.AttributeKeyExpiry, strconv.FormatInt(expiryBucket, 10)),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyPayout, res.Net.String()),
			sdk.NewAttribute(types.AttributeKeyFee, fee.String()),
			sdk.NewAttribute(types.AttributeKeyRecalled, recalled.String()),
		))
		return res, nil
	})
}

// fund makes sure the vault float covers payout, recalling the shortfall
// from strategies. It returns the amount recalled.
func (k Keeper) fund(ctx context.Context, coverKey string, payout sdkmath.Int) (sdkmath.Int, error) {
	vault := k.covers.VaultAddress(coverKey)
	denom := k.covers.StablecoinDenom(ctx, coverKey)

	float := k.bank.GetBalance(ctx, vault, denom).Amount
	if float.GTE(payout) {
		return sdkmath.ZeroInt(), nil
	}
	recalled, err := k.strategies.RecallFor(ctx, coverKey, payout.Sub(float))
	if err != nil {
		return sdkmath.ZeroInt(), errorsmod.Wrap(err, "recall claim liquidity")
	}
	if float = k.bank.GetBalance(ctx, vault, denom).Amount; float.LT(payout) {
		return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrInsufficientLiquidity, "vault holds %s%s after recall, payout %s", float, denom, payout)
	}
	return recalled, nil
}

func (k Keeper) payOut(ctx context.Context, coverKey string, claimant sdk.AccAddress, res types.ClaimResult) error {
	vault := k.covers.VaultAddress(coverKey)
	denom := k.covers.StablecoinDenom(ctx, coverKey)

	if res.Net.IsPositive() {
		if err := k.bank.SendCoins(ctx, vault, claimant, sdk.NewCoins(sdk.NewCoin(denom, res.Net))); err != nil {
			return errorsmod.Wrapf(types.ErrExternalCallFailed, "pay claimant: %s", err)
		}
	}
	if res.Fee.IsPositive() {
		treasury, err := k.treasury(ctx)
		if err != nil {
			return err
		}
		if err := k.bank.SendCoins(ctx, vault, treasury, sdk.NewCoins(sdk.NewCoin(denom, res.Fee))); err != nil {
			return errorsmod.Wrapf(types.ErrExternalCallFailed, "pay claim fee: %s", err)
		}
	}
	return nil
}

func (k Keeper) record(ctx context.Context, coverKey string, incidentDate int64, claimant sdk.AccAddress, res types.ClaimResult, now int64) error {
	rec, err := k.GetClaimRecord(ctx, coverKey, incidentDate, claimant)
	if err != nil {
		return err
	}
	totals, err := k.GetIncidentClaimTotals(ctx, coverKey, incidentDate)
	if err != nil {
		return err
	}
	if rec.Claimed.IsZero() {
		totals.Claimants++
	}
	totals.ClaimRecord = totals.ClaimRecord.Add(res, now)
	if err := k.Records.Set(ctx, collections.Join3(coverKey, incidentDate, claimant), rec.Add(res, now)); err != nil {
		return err
	}
	return k.Totals.Set(ctx, collections.Join(coverKey, incidentDate), totals)
}
