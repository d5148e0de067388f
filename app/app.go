package app

import (
	"fmt"
	"sort"
	"time"

	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	storemetrics "cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/al-neptune/protocol/internal/simnet"
	accesskeeper "github.com/al-neptune/protocol/x/access/keeper"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	claimskeeper "github.com/al-neptune/protocol/x/claims/keeper"
	claimstypes "github.com/al-neptune/protocol/x/claims/types"
	coverkeeper "github.com/al-neptune/protocol/x/cover/keeper"
	covertypes "github.com/al-neptune/protocol/x/cover/types"
	crisiskeeper "github.com/al-neptune/protocol/x/crisis/keeper"
	crisistypes "github.com/al-neptune/protocol/x/crisis/types"
	incidentkeeper "github.com/al-neptune/protocol/x/incident/keeper"
	incidenttypes "github.com/al-neptune/protocol/x/incident/types"
	poolkeeper "github.com/al-neptune/protocol/x/pool/keeper"
	pooltypes "github.com/al-neptune/protocol/x/pool/types"
	"github.com/al-neptune/protocol/x/strategy/backends"
	strategykeeper "github.com/al-neptune/protocol/x/strategy/keeper"
	strategytypes "github.com/al-neptune/protocol/x/strategy/types"
)

const (
	// Name is the application name.
	Name = "neptune"

	// DefaultChainID is used when Options leaves ChainID empty.
	DefaultChainID = "neptune-local-1"
)

// Strategy backend kinds.
const (
	StrategyKindLending     = "lending"
	StrategyKindMoneyMarket = "money_market"
)

// StrategyConfig selects a backend implementation for one strategy.
type StrategyConfig struct {
	Kind            string `json:"kind" yaml:"kind"`
	backends.Config `yaml:",inline"`
}

// Options configures the collaborators the app is built with.
type Options struct {
	ChainID string `json:"chain_id" yaml:"chain_id"`

	// LendingInterestBps is paid by the lending pool on every withdrawal.
	LendingInterestBps uint32 `json:"lending_interest_bps" yaml:"lending_interest_bps"`

	// Strategies are registered in the order given.
	Strategies []StrategyConfig `json:"strategies" yaml:"strategies"`
}

// DefaultOptions registers one lending and one money market strategy over
// uusdc.
func DefaultOptions() Options {
	return Options{
		ChainID: DefaultChainID,
		Strategies: []StrategyConfig{
			{
				Kind:   StrategyKindLending,
				Config: backends.Config{Key: "aave", Name: "Aave v3", Weight: 5000, StablecoinDenom: "uusdc"},
			},
			{
				Kind:   StrategyKindMoneyMarket,
				Config: backends.Config{Key: "compound", Name: "Compound v2", Weight: 3000, StablecoinDenom: "uusdc"},
			},
		},
	}
}

// Validate checks the strategy list before any store is mounted. Backends
// of one kind share a market per stablecoin, so at most one strategy of
// each kind may serve a stablecoin.
func (o Options) Validate() error {
	seen := make(map[string]struct{}, len(o.Strategies))
	markets := make(map[[2]string]string, len(o.Strategies))
	for i, s := range o.Strategies {
		switch s.Kind {
		case StrategyKindLending, StrategyKindMoneyMarket:
		default:
			return fmt.Errorf("strategy %d: unknown kind %q", i, s.Kind)
		}
		if s.Key == "" {
			return fmt.Errorf("strategy %d: key cannot be empty", i)
		}
		if s.StablecoinDenom == "" {
			return fmt.Errorf("strategy %s: stablecoin denom cannot be empty", s.Key)
		}
		if _, ok := seen[s.Key]; ok {
			return fmt.Errorf("duplicate strategy %s", s.Key)
		}
		seen[s.Key] = struct{}{}
		market := [2]string{s.Kind, s.StablecoinDenom}
		if other, ok := markets[market]; ok {
			return fmt.Errorf("strategies %s and %s both use the %s market for %s", other, s.Key, s.Kind, s.StablecoinDenom)
		}
		markets[market] = s.Key
	}
	return nil
}

// App wires the protocol keepers over one multistore. It has no consensus
// engine; callers drive it block by block through NewContext and Commit.
type App struct {
	logger  log.Logger
	chainID string
	cdc     codec.Codec
	db      dbm.DB
	cms     *rootmulti.Store
	keys    map[string]*storetypes.KVStoreKey

	AccessKeeper   accesskeeper.Keeper
	CrisisKeeper   crisiskeeper.Keeper
	CoverKeeper    coverkeeper.Keeper
	PoolKeeper     poolkeeper.Keeper
	StrategyKeeper strategykeeper.Keeper
	IncidentKeeper incidentkeeper.Keeper
	ClaimsKeeper   claimskeeper.Keeper

	Bank         *simnet.TokenLedger
	ClaimTokens  *simnet.ClaimTokens
	LendingPool  *simnet.LendingPool
	MoneyMarkets map[string]*simnet.MoneyMarket
	Oracle       *simnet.FixedRateOracle

	invariants *InvariantRegistry
}

// New mounts every module store on db and builds the keepers in dependency
// order.
func New(logger log.Logger, db dbm.DB, opts Options) (*App, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.ChainID == "" {
		opts.ChainID = DefaultChainID
	}

	app := &App{
		logger:       logger.With("module", "app"),
		chainID:      opts.ChainID,
		db:           db,
		cdc:          makeCodec(),
		keys:         storeKeys(),
		MoneyMarkets: make(map[string]*simnet.MoneyMarket),
		invariants:   NewInvariantRegistry(),
	}

	app.cms = rootmulti.NewStore(db, logger, storemetrics.NoOpMetrics{})
	for _, name := range sortedKeys(app.keys) {
		app.cms.MountStoreWithDB(app.keys[name], storetypes.StoreTypeIAVL, nil)
	}
	if err := app.cms.LoadLatestVersion(); err != nil {
		return nil, errorsmod.Wrap(err, "load multistore")
	}

	svc := func(name string) store.KVStoreService {
		return runtime.NewKVStoreService(app.keys[name])
	}

	app.Bank = simnet.NewTokenLedger(svc(simnet.StoreKey))
	app.ClaimTokens = simnet.NewClaimTokens(svc(simnet.StoreKey))
	app.LendingPool = simnet.NewLendingPool(app.Bank)
	app.LendingPool.InterestBps = opts.LendingInterestBps
	app.Oracle = simnet.NewFixedRateOracle()

	app.AccessKeeper = accesskeeper.NewKeeper(app.cdc, svc(accesstypes.StoreKey), logger)
	app.CrisisKeeper = crisiskeeper.NewKeeper(app.cdc, svc(crisistypes.StoreKey), logger, app.AccessKeeper)
	app.CoverKeeper = coverkeeper.NewKeeper(app.cdc, svc(covertypes.StoreKey), logger, app.AccessKeeper)

	app.PoolKeeper = poolkeeper.NewKeeper(app.cdc, svc(pooltypes.StoreKey), logger, app.AccessKeeper, app.Bank, app.Oracle)
	app.PoolKeeper.SetHaltChecker(app.CrisisKeeper)

	app.StrategyKeeper = strategykeeper.NewKeeper(app.cdc, svc(strategytypes.StoreKey), logger, app.AccessKeeper, app.Bank, app.CoverKeeper)
	app.StrategyKeeper.SetHaltChecker(app.CrisisKeeper)
	for _, s := range opts.Strategies {
		if err := app.StrategyKeeper.RegisterStrategy(app.newStrategy(svc(strategytypes.BackendStoreKey), s)); err != nil {
			return nil, err
		}
	}

	app.IncidentKeeper = incidentkeeper.NewKeeper(app.cdc, svc(incidenttypes.StoreKey), logger, app.AccessKeeper, app.Bank, app.CoverKeeper)
	app.IncidentKeeper.SetHaltChecker(app.CrisisKeeper)

	app.ClaimsKeeper = claimskeeper.NewKeeper(
		app.cdc, svc(claimstypes.StoreKey), logger,
		app.IncidentKeeper, app.StrategyKeeper, app.Bank, app.ClaimTokens, app.CoverKeeper,
	)
	app.ClaimsKeeper.SetHaltChecker(app.CrisisKeeper)
	app.IncidentKeeper.SetHooks(app.ClaimsKeeper.Hooks())

	poolkeeper.RegisterInvariants(app.invariants, app.PoolKeeper)
	strategykeeper.RegisterInvariants(app.invariants, app.StrategyKeeper)
	incidentkeeper.RegisterInvariants(app.invariants, app.IncidentKeeper)
	claimskeeper.RegisterInvariants(app.invariants, app.ClaimsKeeper)

	app.logger.Info("app initialized",
		"chain_id", app.chainID,
		"strategies", len(opts.Strategies),
		"invariants", len(app.invariants.Routes()),
	)
	return app, nil
}

func (app *App) newStrategy(svc store.KVStoreService, cfg StrategyConfig) strategytypes.Strategy {
	if cfg.Kind == StrategyKindMoneyMarket {
		market, ok := app.MoneyMarkets[cfg.StablecoinDenom]
		if !ok {
			market = simnet.NewMoneyMarket(app.Bank, cfg.StablecoinDenom)
			app.MoneyMarkets[cfg.StablecoinDenom] = market
		}
		return backends.NewMoneyMarketStrategy(svc, cfg.Config, market, app.Bank)
	}
	return backends.NewLendingStrategy(svc, cfg.Config, app.LendingPool, app.Bank)
}

// Logger returns the app logger.
func (app *App) Logger() log.Logger {
	return app.logger
}

// ChainID returns the chain id placed in block headers.
func (app *App) ChainID() string {
	return app.chainID
}

// LastHeight returns the last committed version.
func (app *App) LastHeight() int64 {
	return app.cms.LastCommitID().Version
}

// NewContext returns a context writing directly to the working multistore at
// the given block height and time.
func (app *App) NewContext(height int64, t time.Time) sdk.Context {
	header := tmproto.Header{
		ChainID: app.chainID,
		Height:  height,
		Time:    t.UTC(),
	}
	return sdk.NewContext(app.cms, header, false, app.logger)
}

// Commit persists the working multistore as a new version.
func (app *App) Commit() storetypes.CommitID {
	id := app.cms.Commit()
	app.logger.Debug("committed", "version", id.Version)
	return id
}

// Close releases the underlying database.
func (app *App) Close() error {
	return app.db.Close()
}

// CheckInvariants runs every registered invariant and returns the first
// broken one.
func (app *App) CheckInvariants(ctx sdk.Context) error {
	for _, route := range app.invariants.Routes() {
		msg, broken := route.Invariant(ctx)
		if broken {
			app.logger.Error("invariant broken", "route", route.FullRoute(), "height", ctx.BlockHeight())
			return errorsmod.Wrap(sdkerrors.ErrLogic, msg)
		}
	}
	return nil
}

// Invariants returns the registry the modules registered into.
func (app *App) Invariants() *InvariantRegistry {
	return app.invariants
}

func makeCodec() codec.Codec {
	reg := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(reg)
	return codec.NewProtoCodec(reg)
}

func storeKeys() map[string]*storetypes.KVStoreKey {
	names := []string{
		accesstypes.StoreKey,
		crisistypes.StoreKey,
		covertypes.StoreKey,
		pooltypes.StoreKey,
		strategytypes.StoreKey,
		strategytypes.BackendStoreKey,
		incidenttypes.StoreKey,
		claimstypes.StoreKey,
		simnet.StoreKey,
	}
	keys := make(map[string]*storetypes.KVStoreKey, len(names))
	for _, name := range names {
		keys[name] = storetypes.NewKVStoreKey(name)
	}
	return keys
}

func sortedKeys(keys map[string]*storetypes.KVStoreKey) []string {
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
