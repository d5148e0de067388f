package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/guard"
	"github.com/al-neptune/protocol/internal/ledger"
	"github.com/al-neptune/protocol/x/claims/types"
	crisistypes "github.com/al-neptune/protocol/x/crisis/types"
)

// Keeper pays claim-token holders out of cover vaults once an incident is
// claimable.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	logger       log.Logger

	incidents   types.IncidentKeeper
	strategies  types.StrategyKeeper
	bank        types.BankKeeper
	claimTokens types.ClaimTokenKeeper
	covers      types.CoverKeeper

	guard *guard.Guard
	halts types.HaltChecker

	Records collections.Map[collections.Triple[string, int64, sdk.AccAddress], types.ClaimRecord]
	Totals  collections.Map[collections.Pair[string, int64], types.ClaimTotals]
	Params  collections.Item[types.Params]
}

// NewKeeper creates a new claims keeper.
func NewKeeper(
	cdc codec.Codec,
	storeService store.KVStoreService,
	logger log.Logger,
	incidents types.IncidentKeeper,
	strategies types.StrategyKeeper,
	bank types.BankKeeper,
	claimTokens types.ClaimTokenKeeper,
	covers types.CoverKeeper,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		cdc:          cdc,
		storeService: storeService,
		logger:       logger,
		incidents:    incidents,
		strategies:   strategies,
		bank:         bank,
		claimTokens:  claimTokens,
		covers:       covers,
		guard:        guard.New(types.ModuleName),
		Records: collections.NewMap(
			sb,
			collections.NewPrefix(types.ClaimRecordKeyPrefix),
			"claim_records",
			collections.TripleKeyCodec(collections.StringKey, collections.Int64Key, sdk.AccAddressKey),
			ledger.JSONValue[types.ClaimRecord]("claim_record"),
		),
		Totals: collections.NewMap(
			sb,
			collections.NewPrefix(types.ClaimTotalsKeyPrefix),
			"claim_totals",
			collections.PairKeyCodec(collections.StringKey, collections.Int64Key),
			ledger.JSONValue[types.ClaimTotals]("claim_totals"),
		),
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			ledger.JSONValue[types.Params]("claims_params"),
		),
	}
}

// Logger returns a module-scoped logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	if sdkCtx, ok := ledger.UnwrapContext(ctx); ok {
		return sdkCtx.Logger().With("module", "x/"+types.ModuleName)
	}
	return k.logger.With("module", "x/"+types.ModuleName)
}

// GetParams returns module params, or defaults when unset.
func (k Keeper) GetParams(ctx context.Context) types.Params {
	params, err := k.Params.Get(ctx)
	if err != nil {
		return types.DefaultParams()
	}
	return params
}

// SetParams validates and stores params.
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return k.Params.Set(ctx, params)
}

// GetClaimRecord returns account's cumulative claims on an incident.
func (k Keeper) GetClaimRecord(ctx context.Context, coverKey string, incidentDate int64, account sdk.AccAddress) (types.ClaimRecord, error) {
	rec, err := k.Records.Get(ctx, collections.Join3(coverKey, incidentDate, account))
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewClaimRecord(), nil
	}
	return rec, err
}

// GetIncidentClaimTotals returns the claims paid against an incident.
func (k Keeper) GetIncidentClaimTotals(ctx context.Context, coverKey string, incidentDate int64) (types.ClaimTotals, error) {
	totals, err := k.Totals.Get(ctx, collections.Join(coverKey, incidentDate))
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewClaimTotals(), nil
	}
	return totals, err
}

func (k Keeper) treasury(ctx context.Context) (sdk.AccAddress, error) {
	addr := k.GetParams(ctx).TreasuryAddress
	if addr == "" {
		return nil, errorsmod.Wrap(types.ErrExternalCallFailed, "treasury address not configured")
	}
	return sdk.AccAddressFromBech32(addr)
}

// SetHaltChecker wires the emergency halt switch.
func (k *Keeper) SetHaltChecker(h types.HaltChecker) {
	k.halts = h
}

func (k Keeper) ensureNotHalted(ctx context.Context) error {
	if k.halts == nil {
		return nil
	}
	return k.halts.EnsureNotHalted(ctx, crisistypes.ScopeClaims)
}
