package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/al-neptune/protocol/internal/guard"
	"github.com/al-neptune/protocol/internal/ledger"
	crisistypes "github.com/al-neptune/protocol/x/crisis/types"
	"github.com/al-neptune/protocol/x/pool/types"
)

// Keeper accounts block-based staking rewards for every pool.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	logger       log.Logger

	access types.AccessKeeper
	bank   types.BankKeeper
	oracle types.PriceOracle

	guard  *guard.Guard
	quotes *lru.Cache[string, sdkmath.Int]
	halts  types.HaltChecker

	Pools  collections.Map[string, types.Pool]
	Stakes collections.Map[collections.Pair[string, sdk.AccAddress], types.StakeRecord]
	Params collections.Item[types.Params]
}

// NewKeeper creates a new pool keeper. oracle may be nil, in which case
// every quote is reported as unreliable.
func NewKeeper(
	cdc codec.Codec,
	storeService store.KVStoreService,
	logger log.Logger,
	access types.AccessKeeper,
	bank types.BankKeeper,
	oracle types.PriceOracle,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	quotes, err := lru.New[string, sdkmath.Int](types.DefaultPriceCacheSize)
	if err != nil {
		panic(err)
	}

	return Keeper{
		cdc:          cdc,
		storeService: storeService,
		logger:       logger,
		access:       access,
		bank:         bank,
		oracle:       oracle,
		guard:        guard.New(types.ModuleName),
		quotes:       quotes,
		Pools: collections.NewMap(
			sb,
			collections.NewPrefix(types.PoolKeyPrefix),
			"pools",
			collections.StringKey,
			ledger.JSONValue[types.Pool]("pool"),
		),
		Stakes: collections.NewMap(
			sb,
			collections.NewPrefix(types.StakeKeyPrefix),
			"stakes",
			collections.PairKeyCodec(collections.StringKey, sdk.AccAddressKey),
			ledger.JSONValue[types.StakeRecord]("stake_record"),
		),
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			ledger.JSONValue[types.Params]("pool_params"),
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

// GetPool loads a pool.
func (k Keeper) GetPool(ctx context.Context, key string) (types.Pool, error) {
	pool, err := k.Pools.Get(ctx, key)
	if errors.Is(err, collections.ErrNotFound) {
		return types.Pool{}, errorsmod.Wrapf(types.ErrPoolNotFound, "%s", key)
	}
	return pool, err
}

// GetStake loads an account's position, returning an empty one when absent.
func (k Keeper) GetStake(ctx context.Context, key string, account sdk.AccAddress) (types.StakeRecord, error) {
	rec, err := k.Stakes.Get(ctx, collections.Join(key, account))
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewStakeRecord(), nil
	}
	return rec, err
}

func (k Keeper) treasury(ctx context.Context) (sdk.AccAddress, error) {
	addr := k.GetParams(ctx).TreasuryAddress
	if addr == "" {
		return nil, errorsmod.Wrap(types.ErrInvalidPool, "treasury address not configured")
	}
	return sdk.AccAddressFromBech32(addr)
}

// settle brings rec's accrued reward up to height using the pool's current
// total stake. It must run before any change to rec.Amount or TotalStaked.
// An empty position accrues nothing; its LastRewardHeight only marks where
// the next stake starts earning.
func settle(pool types.Pool, rec *types.StakeRecord, height int64) {
	if rec.Amount.IsPositive() && height > rec.LastRewardHeight {
		pending := types.PendingReward(height-rec.LastRewardHeight, pool.RewardPerBlock, rec.Amount, pool.TotalStaked)
		rec.Accrued = rec.Accrued.Add(pending)
	}
	rec.LastRewardHeight = height
}

// SetHaltChecker wires the emergency halt switch. A halt blocks new stake
// only; withdrawals stay open.
func (k *Keeper) SetHaltChecker(h types.HaltChecker) {
	k.halts = h
}

func (k Keeper) ensureNotHalted(ctx context.Context) error {
	if k.halts == nil {
		return nil
	}
	return k.halts.EnsureNotHalted(ctx, crisistypes.ScopeStaking)
}
