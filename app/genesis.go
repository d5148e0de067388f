package app

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	accesstypes "github.com/al-neptune/protocol/x/access/types"
	claimstypes "github.com/al-neptune/protocol/x/claims/types"
	covertypes "github.com/al-neptune/protocol/x/cover/types"
	crisistypes "github.com/al-neptune/protocol/x/crisis/types"
	incidenttypes "github.com/al-neptune/protocol/x/incident/types"
	pooltypes "github.com/al-neptune/protocol/x/pool/types"
	strategytypes "github.com/al-neptune/protocol/x/strategy/types"
)

// GenesisAccount is a token balance minted at genesis.
type GenesisAccount struct {
	Address string    `json:"address"`
	Coins   sdk.Coins `json:"coins"`
}

// GenesisState is the genesis state of every module, keyed by module in JSON.
type GenesisState struct {
	Accounts []GenesisAccount            `json:"accounts"`
	Access   *accesstypes.GenesisState   `json:"access"`
	Crisis   *crisistypes.GenesisState   `json:"crisis"`
	Cover    *covertypes.GenesisState    `json:"cover"`
	Pool     *pooltypes.GenesisState     `json:"pool"`
	Strategy *strategytypes.GenesisState `json:"strategy"`
	Incident *incidenttypes.GenesisState `json:"incident"`
	Claims   *claimstypes.GenesisState   `json:"claims"`
}

// NewDefaultGenesisState returns the default genesis of every module.
func NewDefaultGenesisState() *GenesisState {
	return &GenesisState{
		Accounts: []GenesisAccount{},
		Access:   accesstypes.DefaultGenesis(),
		Crisis:   crisistypes.DefaultGenesis(),
		Cover:    covertypes.DefaultGenesis(),
		Pool:     pooltypes.DefaultGenesis(),
		Strategy: strategytypes.DefaultGenesis(),
		Incident: incidenttypes.DefaultGenesis(),
		Claims:   claimstypes.DefaultGenesis(),
	}
}

// WithDefaults fills modules left out of gs with their default genesis.
func (gs *GenesisState) WithDefaults() *GenesisState {
	def := NewDefaultGenesisState()
	if gs.Accounts == nil {
		gs.Accounts = def.Accounts
	}
	if gs.Access == nil {
		gs.Access = def.Access
	}
	if gs.Crisis == nil {
		gs.Crisis = def.Crisis
	}
	if gs.Cover == nil {
		gs.Cover = def.Cover
	}
	if gs.Pool == nil {
		gs.Pool = def.Pool
	}
	if gs.Strategy == nil {
		gs.Strategy = def.Strategy
	}
	if gs.Incident == nil {
		gs.Incident = def.Incident
	}
	if gs.Claims == nil {
		gs.Claims = def.Claims
	}
	return gs
}

// Validate validates every module section.
func (gs *GenesisState) Validate() error {
	gs.WithDefaults()
	for i, acc := range gs.Accounts {
		if _, err := sdk.AccAddressFromBech32(acc.Address); err != nil {
			return fmt.Errorf("invalid account at index %d: %w", i, err)
		}
		if err := acc.Coins.Validate(); err != nil {
			return fmt.Errorf("invalid coins for %s: %w", acc.Address, err)
		}
	}
	checks := []struct {
		module string
		err    error
	}{
		{accesstypes.ModuleName, gs.Access.Validate()},
		{crisistypes.ModuleName, gs.Crisis.Validate()},
		{covertypes.ModuleName, gs.Cover.Validate()},
		{pooltypes.ModuleName, gs.Pool.Validate()},
		{strategytypes.ModuleName, gs.Strategy.Validate()},
		{incidenttypes.ModuleName, gs.Incident.Validate()},
		{claimstypes.ModuleName, gs.Claims.Validate()},
	}
	for _, c := range checks {
		if c.err != nil {
			return fmt.Errorf("%s genesis: %w", c.module, c.err)
		}
	}
	return nil
}

// UnmarshalGenesis decodes a JSON genesis document.
func UnmarshalGenesis(bz []byte) (*GenesisState, error) {
	var gs GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return nil, fmt.Errorf("decode genesis: %w", err)
	}
	return gs.WithDefaults(), nil
}

// InitGenesis loads gs in dependency order. Access goes first so later
// modules can resolve roles.
func (app *App) InitGenesis(ctx sdk.Context, gs *GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	for _, acc := range gs.Accounts {
		addr, err := sdk.AccAddressFromBech32(acc.Address)
		if err != nil {
			return err
		}
		if err := app.Bank.MintCoins(ctx, addr, acc.Coins); err != nil {
			return err
		}
	}

	steps := []struct {
		module string
		init   func() error
	}{
		{accesstypes.ModuleName, func() error { return app.AccessKeeper.InitGenesis(ctx, gs.Access) }},
		{crisistypes.ModuleName, func() error { return app.CrisisKeeper.InitGenesis(ctx, gs.Crisis) }},
		{covertypes.ModuleName, func() error { return app.CoverKeeper.InitGenesis(ctx, gs.Cover) }},
		{pooltypes.ModuleName, func() error { return app.PoolKeeper.InitGenesis(ctx, gs.Pool) }},
		{strategytypes.ModuleName, func() error { return app.StrategyKeeper.InitGenesis(ctx, gs.Strategy) }},
		{incidenttypes.ModuleName, func() error { return app.IncidentKeeper.InitGenesis(ctx, gs.Incident) }},
		{claimstypes.ModuleName, func() error { return app.ClaimsKeeper.InitGenesis(ctx, gs.Claims) }},
	}
	for _, step := range steps {
		if err := step.init(); err != nil {
			return fmt.Errorf("init %s genesis: %w", step.module, err)
		}
	}
	app.logger.Info("genesis initialized", "accounts", len(gs.Accounts), "covers", len(gs.Cover.Covers))
	return nil
}

// ExportGenesis dumps the state of every module.
func (app *App) ExportGenesis(ctx sdk.Context) (*GenesisState, error) {
	gs := &GenesisState{Crisis: app.CrisisKeeper.ExportGenesis(ctx)}

	var err error
	if gs.Accounts, err = app.exportAccounts(ctx); err != nil {
		return nil, err
	}
	if gs.Access, err = app.AccessKeeper.ExportGenesis(ctx); err != nil {
		return nil, err
	}
	if gs.Cover, err = app.CoverKeeper.ExportGenesis(ctx); err != nil {
		return nil, err
	}
	if gs.Pool, err = app.PoolKeeper.ExportGenesis(ctx); err != nil {
		return nil, err
	}
	if gs.Strategy, err = app.StrategyKeeper.ExportGenesis(ctx); err != nil {
		return nil, err
	}
	if gs.Incident, err = app.IncidentKeeper.ExportGenesis(ctx); err != nil {
		return nil, err
	}
	if gs.Claims, err = app.ClaimsKeeper.ExportGenesis(ctx); err != nil {
		return nil, err
	}
	return gs, nil
}

// exportAccounts groups nonzero token balances by holder.
func (app *App) exportAccounts(ctx sdk.Context) ([]GenesisAccount, error) {
	accounts := []GenesisAccount{}
	index := make(map[string]int)
	err := app.Bank.Balances.Walk(ctx, nil, func(key collections.Pair[sdk.AccAddress, string], amount sdkmath.Int) (bool, error) {
		if !amount.IsPositive() {
			return false, nil
		}
		addr := key.K1().String()
		i, ok := index[addr]
		if !ok {
			i = len(accounts)
			index[addr] = i
			accounts = append(accounts, GenesisAccount{Address: addr, Coins: sdk.NewCoins()})
		}
		accounts[i].Coins = accounts[i].Coins.Add(sdk.NewCoin(key.K2(), amount))
		return false, nil
	})
	return accounts, err
}
