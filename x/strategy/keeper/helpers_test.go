package keeper_test

import (
	"context"
	"errors"
	"testing"

	"cosmossdk.io/core/store"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/al-neptune/protocol/internal/simnet"
	"github.com/al-neptune/protocol/testutil"
	accesskeeper "github.com/al-neptune/protocol/x/access/keeper"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	coverkeeper "github.com/al-neptune/protocol/x/cover/keeper"
	covertypes "github.com/al-neptune/protocol/x/cover/types"
	"github.com/al-neptune/protocol/x/strategy/backends"
	"github.com/al-neptune/protocol/x/strategy/keeper"
	"github.com/al-neptune/protocol/x/strategy/types"
)

const (
	usdc     = "uusdc"
	coverKey = "binance"
)

var (
	root      = testutil.Addr("root")
	liquidity = testutil.Addr("liquidity-manager")
	manager   = testutil.Addr("cover-manager")
	sink      = testutil.Addr("sink")
)

type fixture struct {
	k      keeper.Keeper
	ctx    sdk.Context
	bank   *simnet.TokenLedger
	covers coverkeeper.Keeper
	vault  sdk.AccAddress

	backendStore store.KVStoreService
}

func setupKeeper(t *testing.T) fixture {
	t.Helper()

	keys := testutil.NewStoreKeys(accesstypes.StoreKey, covertypes.StoreKey, types.StoreKey, types.BackendStoreKey, simnet.StoreKey)
	ctx := testutil.NewContext(t, keys)
	cdc := testutil.NewCodec()

	access := accesskeeper.NewKeeper(cdc, runtime.NewKVStoreService(keys[accesstypes.StoreKey]), log.NewNopLogger())
	require.NoError(t, access.InitGenesis(ctx, &accesstypes.GenesisState{
		Grants: []accesstypes.RoleGrant{
			{Role: accesstypes.RoleAdmin, Account: root.String()},
			{Role: accesstypes.RoleCoverManager, Account: manager.String()},
			{Role: accesstypes.RoleLiquidityManager, Account: liquidity.String()},
		},
	}))

	covers := coverkeeper.NewKeeper(cdc, runtime.NewKVStoreService(keys[covertypes.StoreKey]), log.NewNopLogger(), access)
	require.NoError(t, covers.InitGenesis(ctx, covertypes.DefaultGenesis()))
	require.NoError(t, covers.AddCover(ctx, manager, covertypes.Cover{Key: coverKey, Name: "Binance", Owner: manager.String()}))

	bank := simnet.NewTokenLedger(runtime.NewKVStoreService(keys[simnet.StoreKey]))
	k := keeper.NewKeeper(cdc, runtime.NewKVStoreService(keys[types.StoreKey]), log.NewNopLogger(), access, bank, covers)

	backendStore := runtime.NewKVStoreService(keys[types.BackendStoreKey])
	require.NoError(t, k.RegisterStrategy(backends.NewLendingStrategy(
		backendStore, backends.Config{Key: "aave", Name: "Aave v3", Weight: 2500, StablecoinDenom: usdc},
		simnet.NewLendingPool(bank), bank,
	)))
	require.NoError(t, k.RegisterStrategy(backends.NewMoneyMarketStrategy(
		backendStore, backends.Config{Key: "compound", Name: "Compound", Weight: 2500, StablecoinDenom: usdc},
		simnet.NewMoneyMarket(bank, usdc), bank,
	)))

	vault := covers.VaultAddress(coverKey)
	require.NoError(t, bank.MintCoins(ctx, vault, sdk.NewCoins(sdk.NewInt64Coin(usdc, 10_000))))
	return fixture{k: k, ctx: ctx, bank: bank, covers: covers, vault: vault, backendStore: backendStore}
}

func (f fixture) setStrategies(t *testing.T, allocs ...types.Allocation) {
	t.Helper()
	require.NoError(t, f.k.SetCoverStrategies(f.ctx, liquidity, coverKey, allocs))
}

func (f fixture) balance(addr sdk.AccAddress, denom string) int64 {
	return f.bank.GetBalance(f.ctx, addr, denom).Amount.Int64()
}

// scripted is a strategy with 1:1 certificates whose misbehavior is set
// per test.
type scripted struct {
	key  string
	bank *simnet.TokenLedger

	fail          bool
	keepPrincipal bool
	onDeposit     func(ctx context.Context) error
}

var _ types.Strategy = (*scripted)(nil)

func (s *scripted) GetKey() string              { return s.key }
func (s *scripted) GetName() string             { return s.key }
func (s *scripted) GetWeight() uint32           { return 0 }
func (s *scripted) GetStablecoinDenom() string  { return usdc }
func (s *scripted) GetCertificateDenom() string { return "x" + s.key }
func (s *scripted) GetAddress() sdk.AccAddress  { return backends.Address(s.key) }

func (s *scripted) Deposit(ctx context.Context, _ string, amount sdkmath.Int, fromVault sdk.AccAddress) (sdkmath.Int, error) {
	if s.onDeposit != nil {
		if err := s.onDeposit(ctx); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	if s.fail {
		return sdkmath.ZeroInt(), errors.New("strategy unavailable")
	}
	if !s.keepPrincipal {
		if err := s.bank.SendCoins(ctx, s.GetAddress(), sink, sdk.NewCoins(sdk.NewCoin(usdc, amount))); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	if err := s.bank.MintCoins(ctx, fromVault, sdk.NewCoins(sdk.NewCoin(s.GetCertificateDenom(), amount))); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return amount, nil
}

func (s *scripted) Withdraw(ctx context.Context, _ string, sendTo sdk.AccAddress) (sdkmath.Int, error) {
	held := s.bank.GetBalance(ctx, s.GetAddress(), s.GetCertificateDenom())
	if !held.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}
	if err := s.bank.BurnCoins(ctx, s.GetAddress(), sdk.NewCoins(held)); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := s.bank.MintCoins(ctx, sendTo, sdk.NewCoins(sdk.NewCoin(usdc, held.Amount))); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return held.Amount, nil
}

func (s *scripted) GetInfo(context.Context, string) (types.StrategyInfo, error) {
	return types.NewStrategyInfo(), nil
}

func (s *scripted) PreviewCertificates(_ context.Context, underlying sdkmath.Int) (sdkmath.Int, error) {
	return underlying, nil
}
