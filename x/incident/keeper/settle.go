package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	"github.com/al-neptune/protocol/x/incident/types"
)

// SettleStakes splits the losing side's stake of a resolved incident: the
// platform fee goes to the treasury, the reporter commission to the first
// staker of the winning side, and the rest is held for winners to collect
// pro rata at unstake. It returns false when the incident was already
// settled.
func (k Keeper) SettleStakes(ctx context.Context, coverKey string, incidentDate int64) (bool, error) {
	return ledger.AtomicResult(ctx, func(ctx sdk.Context) (bool, error) {
		inc, err := k.GetIncident(ctx, coverKey, incidentDate)
		if err != nil {
			return false, err
		}
		return k.settle(ctx, inc)
	})
}

func (k Keeper) settle(ctx context.Context, inc types.Incident) (bool, error) {
	if !inc.Status.IsResolved() && !inc.Status.IsTerminal() {
		return false, errorsmod.Wrapf(types.ErrInvalidState, "incident is %s", inc.Status)
	}
	existing, err := k.GetSettlement(ctx, inc.CoverKey, inc.IncidentDate)
	if err != nil {
		return false, err
	}
	if existing.Settled {
		return false, nil
	}

	yesWins := inc.Outcome == types.StatusClaimable
	winning, losing := inc.NoStake, inc.YesStake
	firstWinner := inc.Disputer
	if yesWins {
		winning, losing = inc.YesStake, inc.NoStake
		firstWinner = inc.Reporter
	}

	params := k.GetParams(ctx)
	fee := ledger.MulBps(losing, params.PlatformFeeBps)
	commission := sdkmath.ZeroInt()
	if firstWinner != "" {
		commission = ledger.MulBps(losing, params.ReporterCommissionBps)
	}
	// Without winners nobody can collect the distributable share.
	if !winning.IsPositive() {
		fee = losing.Sub(commission)
	}
	distributable := losing.Sub(fee).Sub(commission)

	if fee.IsPositive() {
		treasury, err := k.treasury(ctx)
		if err != nil {
			return false, err
		}
		if err := k.pay(ctx, inc.CoverKey, treasury, fee); err != nil {
			return false, err
		}
	}
	if commission.IsPositive() {
		recipient, err := sdk.AccAddressFromBech32(firstWinner)
		if err != nil {
			return false, err
		}
		if err := k.pay(ctx, inc.CoverKey, recipient, commission); err != nil {
			return false, err
		}
	}

	now, _ := ledger.Now(ctx)
	settlement := types.Settlement{
		WinningTotal:       winning,
		LosingTotal:        losing,
		PlatformFee:        fee,
		ReporterCommission: commission,
		Distributable:      distributable,
		Settled:            true,
		SettledAt:          now.Unix(),
	}
	if err := k.Settlements.Set(ctx, collections.Join(inc.CoverKey, inc.IncidentDate), settlement); err != nil {
		return false, err
	}

	k.Logger(ctx).Info("incident stakes settled",
		"cover", inc.CoverKey,
		"incident_date", inc.IncidentDate,
		"winning", winning.String(),
		"losing", losing.String(),
		"fee", fee.String(),
		"commission", commission.String(),
	)
	ledger.EmitEvent(ctx, sdk.NewEvent(types.EventTypeStakesSettled, append(incidentAttrs(inc.CoverKey, inc.IncidentDate),
		sdk.NewAttribute(types.AttributeKeyPlatformFee, fee.String()),
		sdk.NewAttribute(types.AttributeKeyCommission, commission.String()),
		sdk.NewAttribute(types.AttributeKeyDistributable, distributable.String()),
	)...))
	return true, nil
}

// Unstake pays out account's witness stake after resolution. Winners get
// their stake back plus a pro-rata share of the distributable losing stake;
// losers forfeit theirs. The stake record is zeroed either way.
func (k Keeper) Unstake(ctx context.Context, account sdk.AccAddress, coverKey string, incidentDate int64) (sdkmath.Int, error) {
	release, err := k.guard.Enter("unstake")
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer release()

	return ledger.AtomicResult(ctx, func(ctx sdk.Context) (sdkmath.Int, error) {
		inc, err := k.GetIncident(ctx, coverKey, incidentDate)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		if inc.Status == types.StatusIncidentHappened {
			if ctx.BlockTime().Unix() < inc.ResolutionDeadline {
				return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrWindowStillOpen, "voting ends at %d", inc.ResolutionDeadline)
			}
			return sdkmath.ZeroInt(), errorsmod.Wrap(types.ErrInvalidState, "incident not resolved")
		}
		if _, err := k.settle(ctx, inc); err != nil {
			return sdkmath.ZeroInt(), err
		}
		settlement, err := k.GetSettlement(ctx, coverKey, incidentDate)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}

		witness, err := k.GetStakesOf(ctx, account, coverKey, incidentDate)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		if witness.Withdrawn || (witness.Yes.IsZero() && witness.No.IsZero()) {
			return sdkmath.ZeroInt(), errorsmod.Wrapf(types.ErrNothingToUnstake, "%s", account)
		}

		winningStake := witness.No
		if inc.Outcome == types.StatusClaimable {
			winningStake = witness.Yes
		}
		payout := sdkmath.ZeroInt()
		if winningStake.IsPositive() {
			payout = winningStake.Add(settlement.RewardFor(winningStake))
		}
		if err := k.pay(ctx, coverKey, account, payout); err != nil {
			return sdkmath.ZeroInt(), err
		}

		witness = types.NewWitnessStake()
		witness.Withdrawn = true
		if err := k.Stakes.Set(ctx, collections.Join3(coverKey, incidentDate, account), witness); err != nil {
			return sdkmath.ZeroInt(), err
		}

		k.Logger(ctx).Debug("witness unstaked", "cover", coverKey, "incident_date", incidentDate, "account", account.String(), "payout", payout.String())
		ledger.EmitEvent(ctx, sdk.NewEvent(types.EventTypeUnstaked, append(incidentAttrs(coverKey, incidentDate),
			sdk.NewAttribute(types.AttributeKeyAccount, account.String()),
			sdk.NewAttribute(types.AttributeKeyPayout, payout.String()),
		)...))
		return payout, nil
	})
}

// GetSettlement returns an incident's settlement, unsettled when absent.
func (k Keeper) GetSettlement(ctx context.Context, coverKey string, incidentDate int64) (types.Settlement, error) {
	settlement, err := k.Settlements.Get(ctx, collections.Join(coverKey, incidentDate))
	if errors.Is(err, collections.ErrNotFound) {
		return types.Settlement{}, nil
	}
	return settlement, err
}
