package keeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	"github.com/al-neptune/protocol/x/cover/types"
)

// Keeper is the registry of cover products.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	logger       log.Logger

	access types.AccessKeeper

	Covers collections.Map[string, types.Cover]
	Params collections.Item[types.Params]
}

// NewKeeper creates a new cover keeper.
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
		Covers: collections.NewMap(
			sb,
			collections.NewPrefix(types.CoverKeyPrefix),
			"covers",
			collections.StringKey,
			ledger.JSONValue[types.Cover]("cover"),
		),
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			ledger.JSONValue[types.Params]("cover_params"),
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

// AddCover registers a new cover product. The caller must be a cover manager.
func (k Keeper) AddCover(ctx context.Context, caller sdk.AccAddress, cover types.Cover) error {
	if err := k.access.EnsureRole(ctx, accesstypes.RoleCoverManager, caller); err != nil {
		return err
	}
	if err := cover.Validate(); err != nil {
		return errorsmod.Wrap(types.ErrInvalidCover, err.Error())
	}
	exists, err := k.Covers.Has(ctx, cover.Key)
	if err != nil {
		return err
	}
	if exists {
		return errorsmod.Wrapf(types.ErrCoverAlreadyExists, "%s", cover.Key)
	}

	now, _ := ledger.Now(ctx)
	cover.Active = true
	cover.CreatedAtUnix = now.Unix()
	if err := k.Covers.Set(ctx, cover.Key, cover); err != nil {
		return err
	}

	k.Logger(ctx).Info("cover created", "cover", cover.Key, "owner", cover.Owner)
	ledger.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeCoverCreated,
		sdk.NewAttribute(types.AttributeKeyCoverKey, cover.Key),
		sdk.NewAttribute(types.AttributeKeyOwner, cover.Owner),
		sdk.NewAttribute(types.AttributeKeyVault, types.VaultAddress(cover.Key).String()),
	))
	return nil
}

// SetCoverStatus activates or deactivates a cover. Deactivated covers
// reject new incident reports; existing reports run to completion.
func (k Keeper) SetCoverStatus(ctx context.Context, caller sdk.AccAddress, coverKey string, active bool) error {
	if err := k.access.EnsureRole(ctx, accesstypes.RoleCoverManager, caller); err != nil {
		return err
	}
	cover, err := k.GetCover(ctx, coverKey)
	if err != nil {
		return err
	}
	cover.Active = active
	if err := k.Covers.Set(ctx, coverKey, cover); err != nil {
		return err
	}

	ledger.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeCoverStatusChanged,
		sdk.NewAttribute(types.AttributeKeyCoverKey, coverKey),
		sdk.NewAttribute(types.AttributeKeyActive, fmt.Sprintf("%t", active)),
	))
	return nil
}

// GetCover loads a cover.
func (k Keeper) GetCover(ctx context.Context, coverKey string) (types.Cover, error) {
	cover, err := k.Covers.Get(ctx, coverKey)
	if errors.Is(err, collections.ErrNotFound) {
		return types.Cover{}, errorsmod.Wrapf(types.ErrCoverNotFound, "%s", coverKey)
	}
	return cover, err
}

// HasCover reports whether coverKey is registered.
func (k Keeper) HasCover(ctx context.Context, coverKey string) bool {
	ok, err := k.Covers.Has(ctx, coverKey)
	return err == nil && ok
}

// IsActive reports whether coverKey exists, is active and has not expired.
func (k Keeper) IsActive(ctx context.Context, coverKey string) bool {
	cover, err := k.GetCover(ctx, coverKey)
	if err != nil {
		return false
	}
	now, _ := ledger.Now(ctx)
	return cover.IsActiveAt(now)
}

// VaultAddress returns the vault account of coverKey.
func (k Keeper) VaultAddress(coverKey string) sdk.AccAddress {
	return types.VaultAddress(coverKey)
}

// ReportingPeriod returns the cover's voting window length.
func (k Keeper) ReportingPeriod(ctx context.Context, coverKey string) time.Duration {
	cover, err := k.GetCover(ctx, coverKey)
	if err == nil && cover.ReportingPeriod > 0 {
		return cover.ReportingPeriod
	}
	return k.GetParams(ctx).DefaultReportingPeriod
}

// ClaimPeriod returns the cover's claim window length.
func (k Keeper) ClaimPeriod(ctx context.Context, coverKey string) time.Duration {
	cover, err := k.GetCover(ctx, coverKey)
	if err == nil && cover.ClaimPeriod > 0 {
		return cover.ClaimPeriod
	}
	return k.GetParams(ctx).DefaultClaimPeriod
}

// MinReportingStake returns the smallest stake accepted for the first
// report or the first refutation.
func (k Keeper) MinReportingStake(ctx context.Context, coverKey string) sdkmath.Int {
	cover, err := k.GetCover(ctx, coverKey)
	if err == nil && !cover.MinReportingStake.IsNil() && cover.MinReportingStake.IsPositive() {
		return cover.MinReportingStake
	}
	return k.GetParams(ctx).DefaultMinReportingStake
}

// StablecoinDenom returns the denom the cover's vault pays out in.
func (k Keeper) StablecoinDenom(ctx context.Context, coverKey string) string {
	cover, err := k.GetCover(ctx, coverKey)
	if err == nil && cover.StablecoinDenom != "" {
		return cover.StablecoinDenom
	}
	return k.GetParams(ctx).DefaultStablecoinDenom
}
