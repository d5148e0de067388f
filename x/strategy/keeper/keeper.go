package keeper

import (
	"context"
	"errors"
	"sort"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/codec"

	"github.com/al-neptune/protocol/internal/guard"
	"github.com/al-neptune/protocol/internal/ledger"
	crisistypes "github.com/al-neptune/protocol/x/crisis/types"
	"github.com/al-neptune/protocol/x/strategy/types"
)

// Keeper routes cover vault float into registered strategies and recalls it.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	logger       log.Logger

	access types.AccessKeeper
	bank   types.BankKeeper
	covers types.CoverKeeper

	guard    *guard.Guard
	registry *registry
	halts    types.HaltChecker

	CoverStrategies collections.Map[string, []types.Allocation]
	CoverTotals     collections.Map[string, types.CoverTotals]
}

// registry is the in-memory set of strategy backends, like a message router.
type registry struct {
	byKey map[string]types.Strategy
}

// NewKeeper creates a new strategy keeper with an empty registry.
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
		registry:     &registry{byKey: make(map[string]types.Strategy)},
		CoverStrategies: collections.NewMap(
			sb,
			collections.NewPrefix(types.CoverStrategiesKeyPrefix),
			"cover_strategies",
			collections.StringKey,
			ledger.JSONValue[[]types.Allocation]("allocations"),
		),
		CoverTotals: collections.NewMap(
			sb,
			collections.NewPrefix(types.CoverTotalsKeyPrefix),
			"cover_totals",
			collections.StringKey,
			ledger.JSONValue[types.CoverTotals]("cover_totals"),
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

// RegisterStrategy adds a backend. Keys and certificate denoms must be
// unique: the vault's certificate balance is what a strategy recalls.
func (k Keeper) RegisterStrategy(s types.Strategy) error {
	if s == nil || s.GetKey() == "" {
		return errorsmod.Wrap(types.ErrInvalidStrategy, "strategy key cannot be empty")
	}
	if s.GetStablecoinDenom() == "" || s.GetCertificateDenom() == "" {
		return errorsmod.Wrapf(types.ErrInvalidStrategy, "strategy %s has no denoms", s.GetKey())
	}
	if int64(s.GetWeight()) > ledger.BpsBase {
		return errorsmod.Wrapf(types.ErrInvalidStrategy, "strategy %s weight %d", s.GetKey(), s.GetWeight())
	}
	if _, ok := k.registry.byKey[s.GetKey()]; ok {
		return errorsmod.Wrapf(types.ErrDuplicateStrategy, "%s", s.GetKey())
	}
	for key, other := range k.registry.byKey {
		if other.GetCertificateDenom() == s.GetCertificateDenom() {
			return errorsmod.Wrapf(types.ErrDuplicateStrategy,
				"strategy %s certificate denom %s already used by %s", s.GetKey(), s.GetCertificateDenom(), key)
		}
	}
	k.registry.byKey[s.GetKey()] = s
	k.logger.Info("strategy registered", "strategy", s.GetKey(), "name", s.GetName())
	return nil
}

// GetStrategy returns a registered backend.
func (k Keeper) GetStrategy(key string) (types.Strategy, error) {
	s, ok := k.registry.byKey[key]
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrStrategyNotFound, "%s", key)
	}
	return s, nil
}

// Strategies returns every registered backend ordered by key.
func (k Keeper) Strategies() []types.Strategy {
	out := make([]types.Strategy, 0, len(k.registry.byKey))
	for _, s := range k.registry.byKey {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetKey() < out[j].GetKey() })
	return out
}

// GetCoverStrategies returns the ordered allocation list of a cover.
func (k Keeper) GetCoverStrategies(ctx context.Context, coverKey string) ([]types.Allocation, error) {
	allocs, err := k.CoverStrategies.Get(ctx, coverKey)
	if errors.Is(err, collections.ErrNotFound) {
		return nil, nil
	}
	return allocs, err
}

// GetCoverTotals returns the cumulative flows of a cover.
func (k Keeper) GetCoverTotals(ctx context.Context, coverKey string) (types.CoverTotals, error) {
	totals, err := k.CoverTotals.Get(ctx, coverKey)
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewCoverTotals(), nil
	}
	return totals, err
}

// SetHaltChecker wires the emergency halt switch. Halting allocation leaves
// recalls running so capital can return to the vaults.
func (k *Keeper) SetHaltChecker(h types.HaltChecker) {
	k.halts = h
}

func (k Keeper) ensureNotHalted(ctx context.Context) error {
	if k.halts == nil {
		return nil
	}
	return k.halts.EnsureNotHalted(ctx, crisistypes.ScopeAllocation)
}
