package keeper

import (
	"context"
	"strings"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	"github.com/al-neptune/protocol/x/crisis/types"
)

// Keeper manages emergency halt controls. A pause agent halts; only an
// admin clears.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	logger       log.Logger
	access       types.AccessKeeper

	HaltState collections.Item[types.HaltState]
}

// NewKeeper creates a new crisis keeper.
func NewKeeper(
	cdc codec.Codec,
	storeService store.KVStoreService,
	logger log.Logger,
	access types.AccessKeeper,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		cdc:          cdc,
		storeService: storeService,
		logger:       logger,
		access:       access,
		HaltState: collections.NewItem(
			sb,
			collections.NewPrefix(types.HaltStateKey),
			"halt_state",
			ledger.JSONValue[types.HaltState]("halt_state"),
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

// MsgHalt freezes the requested scopes. The requester must be a pause agent.
func (k Keeper) MsgHalt(ctx context.Context, msg types.MsgHalt) error {
	if err := msg.ValidateBasic(); err != nil {
		return errorsmod.Wrap(types.ErrInvalidRequest, err.Error())
	}
	requester, err := sdk.AccAddressFromBech32(strings.TrimSpace(msg.Requester))
	if err != nil {
		return errorsmod.Wrapf(types.ErrInvalidRequest, "requester: %s", err)
	}
	if err := k.access.EnsureRole(ctx, accesstypes.RolePauseAgent, requester); err != nil {
		return err
	}

	now, height := ledger.Now(ctx)
	state := types.HaltState{
		Active:            true,
		Reason:            strings.TrimSpace(msg.Reason),
		TriggeredBy:       requester.String(),
		TriggeredAtHeight: height,
		TriggeredAtUnix:   now.Unix(),
		Scopes:            msg.NormalizedScopes(),
	}
	if err := k.HaltState.Set(ctx, state); err != nil {
		return err
	}

	k.Logger(ctx).Warn("protocol halted", "reason", state.Reason, "by", state.TriggeredBy, "scopes", strings.Join(state.Scopes, ","))
	ledger.EmitEvent(ctx, sdk.NewEvent(
		"protocol_halted",
		sdk.NewAttribute("reason", state.Reason),
		sdk.NewAttribute("requester", state.TriggeredBy),
		sdk.NewAttribute("scopes", strings.Join(state.Scopes, ",")),
	))
	return nil
}

// ClearHalt lifts the halt. The caller must be an admin.
func (k Keeper) ClearHalt(ctx context.Context, caller sdk.AccAddress) error {
	if err := k.access.EnsureRole(ctx, accesstypes.RoleAdmin, caller); err != nil {
		return err
	}
	if err := k.HaltState.Set(ctx, types.HaltState{}); err != nil {
		return err
	}
	k.Logger(ctx).Info("protocol halt cleared", "by", caller.String())
	ledger.EmitEvent(ctx, sdk.NewEvent("protocol_halt_cleared", sdk.NewAttribute("requester", caller.String())))
	return nil
}

// GetHaltState returns the halt state, inactive when never set.
func (k Keeper) GetHaltState(ctx context.Context) types.HaltState {
	state, err := k.HaltState.Get(ctx)
	if err != nil {
		return types.HaltState{}
	}
	return state
}

// IsHalted reports whether scope is frozen.
func (k Keeper) IsHalted(ctx context.Context, scope string) bool {
	return k.GetHaltState(ctx).Halts(scope)
}

// EnsureNotHalted returns ErrHalted when scope is frozen.
func (k Keeper) EnsureNotHalted(ctx context.Context, scope string) error {
	state := k.GetHaltState(ctx)
	if state.Halts(scope) {
		return errorsmod.Wrapf(types.ErrHalted, "%s halted: %s", scope, state.Reason)
	}
	return nil
}

// InitGenesis initializes module state from genesis.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	return k.HaltState.Set(ctx, gs.Halt)
}

// ExportGenesis exports the halt state.
func (k Keeper) ExportGenesis(ctx context.Context) *types.GenesisState {
	return &types.GenesisState{Halt: k.GetHaltState(ctx)}
}
