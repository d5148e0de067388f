package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	"github.com/al-neptune/protocol/x/claims/types"
	incidenttypes "github.com/al-neptune/protocol/x/incident/types"
)

var _ incidenttypes.IncidentHooks = Hooks{}

// Hooks receives incident lifecycle callbacks.
type Hooks struct {
	k Keeper
}

// Hooks returns the incident finalization hook backed by k.
func (k Keeper) Hooks() Hooks {
	return Hooks{k: k}
}

// AfterIncidentFinalized closes the incident's claim ledger. Whatever the
// vault did not pay out stays in its float.
func (h Hooks) AfterIncidentFinalized(ctx context.Context, coverKey string, incidentDate int64, outcome incidenttypes.IncidentStatus) error {
	totals, err := h.k.GetIncidentClaimTotals(ctx, coverKey, incidentDate)
	if err != nil {
		return err
	}
	if totals.Closed {
		return nil
	}
	now, _ := ledger.Now(ctx)
	totals.Closed = true
	totals.ClosedAt = now.Unix()
	if err := h.k.Totals.Set(ctx, collections.Join(coverKey, incidentDate), totals); err != nil {
		return err
	}

	h.k.Logger(ctx).Info("claims closed",
		"cover", coverKey,
		"incident_date", incidentDate,
		"outcome", outcome.String(),
		"paid_out", totals.PaidOut.String(),
		"claimants", totals.Claimants,
	)
	ledger.EmitEvent(ctx, sdk.NewEvent(types.EventTypeClaimsClosed,
		sdk.NewAttribute(types.AttributeKeyCoverKey, coverKey),
		sdk.NewAttribute(types.AttributeKeyIncidentDate, strconv.FormatInt(incidentDate, 10)),
		sdk.NewAttribute(types.AttributeKeyOutcome, outcome.String()),
		sdk.NewAttribute(types.AttributeKeyPayout, totals.PaidOut.String()),
	))
	return nil
}

// BeforeEmergencyCorrection refuses to let a resolution be overturned once
// any claim was paid against it.
func (h Hooks) BeforeEmergencyCorrection(ctx context.Context, coverKey string, incidentDate int64) error {
	totals, err := h.k.GetIncidentClaimTotals(ctx, coverKey, incidentDate)
	if err != nil {
		return err
	}
	if totals.Claimants > 0 || totals.Claimed.IsPositive() {
		return errorsmod.Wrapf(types.ErrClaimsAlreadyPaid,
			"%s@%d: %d claimants paid %s", coverKey, incidentDate, totals.Claimants, totals.PaidOut)
	}
	return nil
}
