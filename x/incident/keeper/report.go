package keeper

import (
	"context"
	"errors"
	"strconv"
	"time"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	"github.com/al-neptune/protocol/x/incident/types"
)

// Report opens an incident on coverKey with reporter's stake attesting it.
// The incident date is the block time of the report.
func (k Keeper) Report(ctx context.Context, reporter sdk.AccAddress, coverKey, info string, stake sdkmath.Int) (int64, error) {
	release, err := k.guard.Enter("report")
	if err != nil {
		return 0, err
	}
	defer release()

	if err := k.ensureNotHalted(ctx); err != nil {
		return 0, err
	}

	if stake.IsNil() || !stake.IsPositive() {
		return 0, errorsmod.Wrap(types.ErrInvalidAmount, "report stake must be positive")
	}

	return ledger.AtomicResult(ctx, func(ctx sdk.Context) (int64, error) {
		if !k.covers.IsActive(ctx, coverKey) {
			return 0, errorsmod.Wrapf(types.ErrCoverInactiveOrNotFound, "%s", coverKey)
		}
		if date, err := k.Active.Get(ctx, coverKey); err == nil {
			return 0, errorsmod.Wrapf(types.ErrReportAlreadyActive, "%s has an open incident at %d", coverKey, date)
		} else if !errors.Is(err, collections.ErrNotFound) {
			return 0, err
		}

		now := ctx.BlockTime().Unix()
		if exists, err := k.Incidents.Has(ctx, collections.Join(coverKey, now)); err != nil {
			return 0, err
		} else if exists {
			return 0, errorsmod.Wrapf(types.ErrInvalidState, "incident date %d already used on %s", now, coverKey)
		}

		if minStake := k.covers.MinReportingStake(ctx, coverKey); stake.LT(minStake) {
			return 0, errorsmod.Wrapf(types.ErrInsufficientStake, "stake %s below minimum %s", stake, minStake)
		}
		if err := k.escrow(ctx, coverKey, reporter, stake); err != nil {
			return 0, err
		}

		inc := types.Incident{
			CoverKey:           coverKey,
			IncidentDate:       now,
			Status:             types.StatusIncidentHappened,
			Reporter:           reporter.String(),
			ReportInfo:         info,
			YesStake:           stake,
			NoStake:            sdkmath.ZeroInt(),
			ReportedAt:         now,
			ResolutionDeadline: now + seconds(k.covers.ReportingPeriod(ctx, coverKey)),
		}
		if err := k.setIncident(ctx, inc); err != nil {
			return 0, err
		}
		if err := k.Active.Set(ctx, coverKey, now); err != nil {
			return 0, err
		}
		witness := types.NewWitnessStake()
		witness.Yes = stake
		if err := k.Stakes.Set(ctx, collections.Join3(coverKey, now, reporter), witness); err != nil {
			return 0, err
		}

		k.Logger(ctx).Info("incident reported",
			"cover", coverKey,
			"incident_date", now,
			"reporter", reporter.String(),
			"stake", stake.String(),
			"deadline", inc.ResolutionDeadline,
		)
		ledger.EmitEvent(ctx, sdk.NewEvent(types.EventTypeReported, append(incidentAttrs(coverKey, now),
			sdk.NewAttribute(types.AttributeKeyAccount, reporter.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, stake.String()),
			sdk.NewAttribute(types.AttributeKeyInfo, info),
			sdk.NewAttribute(types.AttributeKeyDeadline, strconv.FormatInt(inc.ResolutionDeadline, 10)),
		)...))
		return now, nil
	})
}

// Attest adds amount to the yes side of an open incident.
func (k Keeper) Attest(ctx context.Context, account sdk.AccAddress, coverKey string, incidentDate int64, amount sdkmath.Int) error {
	return k.Dispute(ctx, account, coverKey, incidentDate, true, "", amount)
}

// Refute adds amount to the no side of an open incident. The first
// refutation must meet the cover's minimum reporting stake.
func (k Keeper) Refute(ctx context.Context, account sdk.AccAddress, coverKey string, incidentDate int64, info string, amount sdkmath.Int) error {
	return k.Dispute(ctx, account, coverKey, incidentDate, false, info, amount)
}

// Dispute stakes amount on one side of an open incident while its reporting
// window is open.
func (k Keeper) Dispute(ctx context.Context, account sdk.AccAddress, coverKey string, incidentDate int64, attest bool, info string, amount sdkmath.Int) error {
	release, err := k.guard.Enter("dispute")
	if err != nil {
		return err
	}
	defer release()

	if err := k.ensureNotHalted(ctx); err != nil {
		return err
	}

	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrap(types.ErrInvalidAmount, "stake must be positive")
	}

	return ledger.Atomic(ctx, func(ctx sdk.Context) error {
		inc, err := k.GetIncident(ctx, coverKey, incidentDate)
		if err != nil {
			return err
		}
		if inc.Status != types.StatusIncidentHappened {
			return errorsmod.Wrapf(types.ErrInvalidState, "incident is %s", inc.Status)
		}
		now := ctx.BlockTime().Unix()
		if now >= inc.ResolutionDeadline {
			return errorsmod.Wrapf(types.ErrWindowClosed, "deadline %d passed", inc.ResolutionDeadline)
		}

		if !attest && inc.Disputer == "" {
			if minStake := k.covers.MinReportingStake(ctx, coverKey); amount.LT(minStake) {
				return errorsmod.Wrapf(types.ErrInsufficientStake, "first refutation %s below minimum %s", amount, minStake)
			}
			inc.Disputer = account.String()
			inc.DisputeInfo = info
		}

		if err := k.escrow(ctx, coverKey, account, amount); err != nil {
			return err
		}

		witness, err := k.GetStakesOf(ctx, account, coverKey, incidentDate)
		if err != nil {
			return err
		}
		yesLed := inc.YesLeads()
		if attest {
			witness.Yes = witness.Yes.Add(amount)
			inc.YesStake = inc.YesStake.Add(amount)
		} else {
			witness.No = witness.No.Add(amount)
			inc.NoStake = inc.NoStake.Add(amount)
		}

		if yesLed != inc.YesLeads() {
			k.maybeExtendDeadline(ctx, &inc, now)
		}

		if err := k.Stakes.Set(ctx, collections.Join3(coverKey, incidentDate, account), witness); err != nil {
			return err
		}
		if err := k.setIncident(ctx, inc); err != nil {
			return err
		}

		eventType := types.EventTypeRefuted
		if attest {
			eventType = types.EventTypeAttested
		}
		ledger.EmitEvent(ctx, sdk.NewEvent(eventType, append(incidentAttrs(coverKey, incidentDate),
			sdk.NewAttribute(types.AttributeKeyAccount, account.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyYesStake, inc.YesStake.String()),
			sdk.NewAttribute(types.AttributeKeyNoStake, inc.NoStake.String()),
		)...))
		return nil
	})
}

// maybeExtendDeadline pushes the deadline out when the leading side flipped
// inside the sniping window.
func (k Keeper) maybeExtendDeadline(ctx context.Context, inc *types.Incident, now int64) {
	params := k.GetParams(ctx)
	if params.DeadlineExtension <= 0 || inc.DeadlineExtensions >= params.MaxDeadlineExtensions {
		return
	}
	if inc.ResolutionDeadline-now >= seconds(params.SnipingWindow) {
		return
	}
	inc.ResolutionDeadline += seconds(params.DeadlineExtension)
	inc.DeadlineExtensions++

	k.Logger(ctx).Info("resolution deadline extended",
		"cover", inc.CoverKey,
		"incident_date", inc.IncidentDate,
		"deadline", inc.ResolutionDeadline,
		"extensions", inc.DeadlineExtensions,
	)
	ledger.EmitEvent(ctx, sdk.NewEvent(types.EventTypeDeadlineExtended, append(incidentAttrs(inc.CoverKey, inc.IncidentDate),
		sdk.NewAttribute(types.AttributeKeyDeadline, strconv.FormatInt(inc.ResolutionDeadline, 10)),
	)...))
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
