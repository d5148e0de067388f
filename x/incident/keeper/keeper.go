package keeper

import (
	"context"
	"errors"
	"strconv"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/guard"
	"github.com/al-neptune/protocol/internal/ledger"
	crisistypes "github.com/al-neptune/protocol/x/crisis/types"
	"github.com/al-neptune/protocol/x/incident/types"
)

// Keeper runs the incident dispute state machine and the witness stake
// accounting behind it.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	logger       log.Logger

	access types.AccessKeeper
	bank   types.BankKeeper
	covers types.CoverKeeper
	hook   types.IncidentHooks

	guard *guard.Guard
	halts types.HaltChecker

	Incidents   collections.Map[collections.Pair[string, int64], types.Incident]
	Active      collections.Map[string, int64]
	Stakes      collections.Map[collections.Triple[string, int64, sdk.AccAddress], types.WitnessStake]
	Settlements collections.Map[collections.Pair[string, int64], types.Settlement]
	Params      collections.Item[types.Params]
}

// NewKeeper creates a new incident keeper.
func NewKeeper(
	cdc codec.Codec,
	storeService store.KVStoreService,
	logger log.Logger,
	access types.AccessKeeper,
	bank types.BankKeeper,
	covers types.CoverKeeper,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		cdc:          cdc,
		storeService: storeService,
		logger:       logger,
		access:       access,
		bank:         bank,
		covers:       covers,
		guard:        guard.New(types.ModuleName),
		Incidents: collections.NewMap(
			sb,
			collections.NewPrefix(types.IncidentKeyPrefix),
			"incidents",
			collections.PairKeyCodec(collections.StringKey, collections.Int64Key),
			ledger.JSONValue[types.Incident]("incident"),
		),
		Active: collections.NewMap(
			sb,
			collections.NewPrefix(types.ActiveIncidentKeyPrefix),
			"active_incidents",
			collections.StringKey,
			collections.Int64Value,
		),
		Stakes: collections.NewMap(
			sb,
			collections.NewPrefix(types.StakeKeyPrefix),
			"witness_stakes",
			collections.TripleKeyCodec(collections.StringKey, collections.Int64Key, sdk.AccAddressKey),
			ledger.JSONValue[types.WitnessStake]("witness_stake"),
		),
		Settlements: collections.NewMap(
			sb,
			collections.NewPrefix(types.SettlementKeyPrefix),
			"settlements",
			collections.PairKeyCodec(collections.StringKey, collections.Int64Key),
			ledger.JSONValue[types.Settlement]("settlement"),
		),
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			ledger.JSONValue[types.Params]("incident_params"),
		),
	}
}

// SetHooks wires the incident lifecycle hooks.
func (k *Keeper) SetHooks(hook types.IncidentHooks) {
	k.hook = hook
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

// GetIncident loads an incident.
func (k Keeper) GetIncident(ctx context.Context, coverKey string, incidentDate int64) (types.Incident, error) {
	inc, err := k.Incidents.Get(ctx, collections.Join(coverKey, incidentDate))
	if errors.Is(err, collections.ErrNotFound) {
		return types.Incident{}, errorsmod.Wrapf(types.ErrIncidentNotFound, "%s@%d", coverKey, incidentDate)
	}
	return inc, err
}

func (k Keeper) setIncident(ctx context.Context, inc types.Incident) error {
	return k.Incidents.Set(ctx, collections.Join(inc.CoverKey, inc.IncidentDate), inc)
}

// GetStakesOf returns account's witness stake on an incident.
func (k Keeper) GetStakesOf(ctx context.Context, account sdk.AccAddress, coverKey string, incidentDate int64) (types.WitnessStake, error) {
	stake, err := k.Stakes.Get(ctx, collections.Join3(coverKey, incidentDate, account))
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewWitnessStake(), nil
	}
	return stake, err
}

func (k Keeper) treasury(ctx context.Context) (sdk.AccAddress, error) {
	addr := k.GetParams(ctx).TreasuryAddress
	if addr == "" {
		return nil, errorsmod.Wrap(types.ErrInvalidState, "treasury address not configured")
	}
	return sdk.AccAddressFromBech32(addr)
}

// pay sends amount of the stake denom out of the cover escrow.
func (k Keeper) pay(ctx context.Context, coverKey string, to sdk.AccAddress, amount sdkmath.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	coins := sdk.NewCoins(sdk.NewCoin(k.GetParams(ctx).StakeDenom, amount))
	if err := k.bank.SendCoins(ctx, types.EscrowAddress(coverKey), to, coins); err != nil {
		return errorsmod.Wrapf(types.ErrExternalCallFailed, "pay %s to %s: %s", coins, to, err)
	}
	return nil
}

// escrow pulls amount of the stake denom from account into the cover escrow.
func (k Keeper) escrow(ctx context.Context, coverKey string, from sdk.AccAddress, amount sdkmath.Int) error {
	denom := k.GetParams(ctx).StakeDenom
	if balance := k.bank.GetBalance(ctx, from, denom); balance.Amount.LT(amount) {
		return errorsmod.Wrapf(types.ErrInsufficientBalance, "balance %s < %s%s", balance, amount, denom)
	}
	coins := sdk.NewCoins(sdk.NewCoin(denom, amount))
	if err := k.bank.SendCoins(ctx, from, types.EscrowAddress(coverKey), coins); err != nil {
		return errorsmod.Wrapf(types.ErrExternalCallFailed, "escrow stake: %s", err)
	}
	return nil
}

func incidentAttrs(coverKey string, incidentDate int64) []sdk.Attribute {
	return []sdk.Attribute{
		sdk.NewAttribute(types.AttributeKeyCoverKey, coverKey),
		sdk.NewAttribute(types.AttributeKeyIncidentDate, strconv.FormatInt(incidentDate, 10)),
	}
}

// SetHaltChecker wires the emergency halt switch. While reporting is halted
// no report or dispute stake is accepted; resolution and unstaking go on.
func (k *Keeper) SetHaltChecker(h types.HaltChecker) {
	k.halts = h
}

func (k Keeper) ensureNotHalted(ctx context.Context) error {
	if k.halts == nil {
		return nil
	}
	return k.halts.EnsureNotHalted(ctx, crisistypes.ScopeReporting)
}
