package keeper

import (
	"context"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	"github.com/al-neptune/protocol/x/incident/types"
)

// Resolve closes voting by stake majority. Anyone may resolve once the
// deadline has passed; a governance agent may resolve at any time. A tie
// resolves to Denied.
func (k Keeper) Resolve(ctx context.Context, caller sdk.AccAddress, coverKey string, incidentDate int64) (types.IncidentStatus, error) {
	release, err := k.guard.Enter("resolve")
	if err != nil {
		return types.StatusNormal, err
	}
	defer release()

	return ledger.AtomicResult(ctx, func(ctx sdk.Context) (types.IncidentStatus, error) {
		inc, err := k.GetIncident(ctx, coverKey, incidentDate)
		if err != nil {
			return types.StatusNormal, err
		}
		if inc.Status != types.StatusIncidentHappened {
			return types.StatusNormal, errorsmod.Wrapf(types.ErrInvalidState, "incident is %s", inc.Status)
		}
		now := ctx.BlockTime().Unix()
		if now < inc.ResolutionDeadline && !k.access.HasRole(ctx, accesstypes.RoleGovernanceAgent, caller) {
			return types.StatusNormal, errorsmod.Wrapf(types.ErrWindowStillOpen, "voting ends at %d", inc.ResolutionDeadline)
		}

		outcome := types.StatusDenied
		if inc.YesLeads() {
			outcome = types.StatusClaimable
		}
		k.applyOutcome(ctx, &inc, outcome, now)
		if err := k.setIncident(ctx, inc); err != nil {
			return types.StatusNormal, err
		}

		k.Logger(ctx).Info("incident resolved",
			"cover", coverKey,
			"incident_date", incidentDate,
			"outcome", outcome.String(),
			"yes", inc.YesStake.String(),
			"no", inc.NoStake.String(),
		)
		k.emitResolution(ctx, types.EventTypeResolved, inc)
		return outcome, nil
	})
}

// EmergencyResolve lets a governance admin override the stake majority:
// decision true makes the incident Claimable, false marks it FalseReporting.
// It applies to an open incident, or once to correct a resolved incident
// whose stakes have not been settled and against which nothing was claimed.
func (k Keeper) EmergencyResolve(ctx context.Context, caller sdk.AccAddress, coverKey string, incidentDate int64, decision bool) (types.IncidentStatus, error) {
	release, err := k.guard.Enter("emergency_resolve")
	if err != nil {
		return types.StatusNormal, err
	}
	defer release()

	if err := k.access.EnsureRole(ctx, accesstypes.RoleGovernanceAdmin, caller); err != nil {
		return types.StatusNormal, err
	}

	return ledger.AtomicResult(ctx, func(ctx sdk.Context) (types.IncidentStatus, error) {
		inc, err := k.GetIncident(ctx, coverKey, incidentDate)
		if err != nil {
			return types.StatusNormal, err
		}
		switch {
		case inc.Status == types.StatusIncidentHappened:
		case inc.Status.IsResolved() && !inc.EmergencyResolved:
			settlement, err := k.GetSettlement(ctx, coverKey, incidentDate)
			if err != nil {
				return types.StatusNormal, err
			}
			if settlement.Settled {
				return types.StatusNormal, errorsmod.Wrap(types.ErrInvalidState, "stakes already settled")
			}
			if k.hook != nil {
				if err := k.hook.BeforeEmergencyCorrection(ctx, coverKey, incidentDate); err != nil {
					return types.StatusNormal, err
				}
			}
		default:
			return types.StatusNormal, errorsmod.Wrapf(types.ErrInvalidState, "incident is %s", inc.Status)
		}

		outcome := types.StatusFalseReporting
		if decision {
			outcome = types.StatusClaimable
		}
		now := ctx.BlockTime().Unix()
		k.applyOutcome(ctx, &inc, outcome, now)
		inc.EmergencyResolved = true
		if err := k.setIncident(ctx, inc); err != nil {
			return types.StatusNormal, err
		}

		k.Logger(ctx).Info("incident emergency resolved",
			"cover", coverKey,
			"incident_date", incidentDate,
			"outcome", outcome.String(),
			"by", caller.String(),
		)
		k.emitResolution(ctx, types.EventTypeEmergencyResolved, inc)
		return outcome, nil
	})
}

// applyOutcome records a resolution at now and opens the claim window for a
// Claimable outcome.
func (k Keeper) applyOutcome(ctx context.Context, inc *types.Incident, outcome types.IncidentStatus, now int64) {
	inc.Status = outcome
	inc.Outcome = outcome
	inc.ResolvedAt = now
	inc.ClaimBeginsAt = now
	inc.ClaimExpiresAt = now
	if outcome == types.StatusClaimable {
		inc.ClaimExpiresAt = now + seconds(k.covers.ClaimPeriod(ctx, inc.CoverKey))
	}
}

func (k Keeper) emitResolution(ctx context.Context, eventType string, inc types.Incident) {
	ledger.EmitEvent(ctx, sdk.NewEvent(eventType, append(incidentAttrs(inc.CoverKey, inc.IncidentDate),
		sdk.NewAttribute(types.AttributeKeyStatus, inc.Status.String()),
		sdk.NewAttribute(types.AttributeKeyYesStake, inc.YesStake.String()),
		sdk.NewAttribute(types.AttributeKeyNoStake, inc.NoStake.String()),
		sdk.NewAttribute(types.AttributeKeyClaimBegins, strconv.FormatInt(inc.ClaimBeginsAt, 10)),
		sdk.NewAttribute(types.AttributeKeyClaimExpires, strconv.FormatInt(inc.ClaimExpiresAt, 10)),
	)...))
}

// Finalize stops a resolved incident: a Claimable incident once its claim
// window has elapsed, Denied and FalseReporting incidents immediately.
// Stakes are settled, the cover is freed for a new report and the
// finalization hook runs. Finalizing a stopped incident is a no-op.
func (k Keeper) Finalize(ctx context.Context, coverKey string, incidentDate int64) (bool, error) {
	release, err := k.guard.Enter("finalize")
	if err != nil {
		return false, err
	}
	defer release()

	return ledger.AtomicResult(ctx, func(ctx sdk.Context) (bool, error) {
		inc, err := k.GetIncident(ctx, coverKey, incidentDate)
		if err != nil {
			return false, err
		}
		if inc.Status.IsTerminal() {
			return false, nil
		}
		if !inc.Status.IsResolved() {
			return false, errorsmod.Wrapf(types.ErrInvalidState, "incident is %s", inc.Status)
		}
		now := ctx.BlockTime().Unix()
		if inc.Status == types.StatusClaimable && now < inc.ClaimExpiresAt {
			return false, errorsmod.Wrapf(types.ErrWindowStillOpen, "claims close at %d", inc.ClaimExpiresAt)
		}

		if _, err := k.settle(ctx, inc); err != nil {
			return false, err
		}

		inc.Status = types.StatusStopped
		inc.FinalizedAt = now
		if err := k.setIncident(ctx, inc); err != nil {
			return false, err
		}
		if err := k.Active.Remove(ctx, coverKey); err != nil {
			return false, err
		}
		if k.hook != nil {
			if err := k.hook.AfterIncidentFinalized(ctx, coverKey, incidentDate, inc.Outcome); err != nil {
				return false, err
			}
		}

		k.Logger(ctx).Info("incident finalized", "cover", coverKey, "incident_date", incidentDate, "outcome", inc.Outcome.String())
		ledger.EmitEvent(ctx, sdk.NewEvent(types.EventTypeFinalized, append(incidentAttrs(coverKey, incidentDate),
			sdk.NewAttribute(types.AttributeKeyStatus, inc.Outcome.String()),
		)...))
		return true, nil
	})
}
