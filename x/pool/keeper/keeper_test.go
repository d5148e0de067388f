package keeper_test

import (
	"context"
	"testing"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/al-neptune/protocol/internal/guard"
	"github.com/al-neptune/protocol/internal/simnet"
	"github.com/al-neptune/protocol/testutil"
	accesskeeper "github.com/al-neptune/protocol/x/access/keeper"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	"github.com/al-neptune/protocol/x/pool/keeper"
	"github.com/al-neptune/protocol/x/pool/types"
)

const (
	stakeDenom  = "unpm"
	rewardDenom = "ureward"
	quoteDenom  = "uusdc"
	poolKey     = "npm-lp"
)

var (
	root     = testutil.Addr("root")
	alice    = testutil.Addr("alice")
	bob      = testutil.Addr("bob")
	treasury = testutil.Addr("treasury")
)

type fixture struct {
	k      keeper.Keeper
	ctx    sdk.Context
	bank   *simnet.TokenLedger
	oracle *simnet.FixedRateOracle
}

func setupKeeper(t *testing.T) fixture {
	t.Helper()

	keys := testutil.NewStoreKeys(accesstypes.StoreKey, types.StoreKey, simnet.StoreKey)
	ctx := testutil.NewContext(t, keys)
	cdc := testutil.NewCodec()

	access := accesskeeper.NewKeeper(cdc, runtime.NewKVStoreService(keys[accesstypes.StoreKey]), log.NewNopLogger())
	require.NoError(t, access.InitGenesis(ctx, &accesstypes.GenesisState{
		Grants: []accesstypes.RoleGrant{{Role: accesstypes.RoleAdmin, Account: root.String()}},
	}))

	bank := simnet.NewTokenLedger(runtime.NewKVStoreService(keys[simnet.StoreKey]))
	oracle := simnet.NewFixedRateOracle()

	k := keeper.NewKeeper(cdc, runtime.NewKVStoreService(keys[types.StoreKey]), log.NewNopLogger(), access, bank, oracle)
	gs := types.DefaultGenesis()
	gs.Params.TreasuryAddress = treasury.String()
	require.NoError(t, k.InitGenesis(ctx, gs))

	for _, addr := range []sdk.AccAddress{alice, bob, root} {
		require.NoError(t, bank.MintCoins(ctx, addr, sdk.NewCoins(
			sdk.NewInt64Coin(stakeDenom, 1_000_000),
			sdk.NewInt64Coin(rewardDenom, 1_000_000),
		)))
	}
	return fixture{k: k, ctx: ctx, bank: bank, oracle: oracle}
}

func newPool(rewardPerBlock, lockup, maxStake int64) types.Pool {
	return types.Pool{
		Key:            poolKey,
		Name:           "NPM liquidity mining",
		StakingDenom:   stakeDenom,
		RewardDenom:    rewardDenom,
		QuoteDenom:     quoteDenom,
		RewardPerBlock: sdkmath.NewInt(rewardPerBlock),
		LockupBlocks:   lockup,
		MaxStake:       sdkmath.NewInt(maxStake),
		PlatformFeeBps: 1000,
	}
}

func (f fixture) balance(addr sdk.AccAddress, denom string) int64 {
	return f.bank.GetBalance(f.ctx, addr, denom).Amount.Int64()
}

func TestAddOrEditPoolRequiresAdmin(t *testing.T) {
	f := setupKeeper(t)

	require.ErrorIs(t, f.k.AddOrEditPool(f.ctx, alice, newPool(100, 0, 1000)), accesstypes.ErrPermissionDenied)
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 0, 1000)))

	require.NoError(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(400)))

	edited := newPool(200, 0, 1000)
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, edited))
	pool, err := f.k.GetPool(f.ctx, poolKey)
	require.NoError(t, err)
	require.Equal(t, int64(200), pool.RewardPerBlock.Int64())
	require.Equal(t, int64(400), pool.TotalStaked.Int64())

	require.ErrorIs(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 0, 300)), types.ErrInvalidPool)
}

func TestStakeEnforcesAmountAndCap(t *testing.T) {
	f := setupKeeper(t)
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 0, 1000)))

	require.ErrorIs(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.ZeroInt()), types.ErrInvalidAmount)
	require.ErrorIs(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(1001)), types.ErrMaxStakeExceeded)
	require.NoError(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(600)))
	require.ErrorIs(t, f.k.Stake(f.ctx, bob, poolKey, sdkmath.NewInt(401)), types.ErrMaxStakeExceeded)
	require.NoError(t, f.k.Stake(f.ctx, bob, poolKey, sdkmath.NewInt(400)))

	require.Equal(t, int64(1000), f.k.GetPoolStakeBalance(f.ctx, poolKey).Int64())
	require.Equal(t, int64(1000), f.balance(types.PoolAddress(poolKey), stakeDenom))
	require.Equal(t, int64(999_400), f.balance(alice, stakeDenom))
}

func TestStakeRejectsClosedPoolAndShortBalance(t *testing.T) {
	f := setupKeeper(t)
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 0, 10_000_000)))

	require.ErrorIs(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(2_000_000)), types.ErrInsufficientBalance)

	require.NoError(t, f.k.ClosePool(f.ctx, root, poolKey))
	require.ErrorIs(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(10)), types.ErrPoolClosed)
	require.ErrorIs(t, f.k.Stake(f.ctx, alice, "missing", sdkmath.NewInt(10)), types.ErrPoolNotFound)
}

func TestRewardsAccrueLinearly(t *testing.T) {
	f := setupKeeper(t)
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 0, 1_000_000)))
	require.NoError(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(1000)))

	ctx := testutil.AtHeight(f.ctx, 11)
	require.Equal(t, int64(10), f.k.GetTotalBlocksSinceLastReward(ctx, poolKey, alice))
	rewards, err := f.k.CalculateRewards(ctx, poolKey, alice)
	require.NoError(t, err)
	require.Equal(t, int64(1000), rewards.Int64())
}

func TestRewardsAccrueFromHeightZero(t *testing.T) {
	f := setupKeeper(t)
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 0, 1_000_000)))
	genesis := testutil.AtHeight(f.ctx, 0)
	require.NoError(t, f.k.Stake(genesis, alice, poolKey, sdkmath.NewInt(1000)))

	ctx := testutil.AtHeight(f.ctx, 10)
	require.Equal(t, int64(10), f.k.GetTotalBlocksSinceLastReward(ctx, poolKey, alice))
	rewards, err := f.k.CalculateRewards(ctx, poolKey, alice)
	require.NoError(t, err)
	require.Equal(t, int64(1000), rewards.Int64())

	// a top-up at height 10 keeps the blocks already earned
	require.NoError(t, f.k.Stake(ctx, alice, poolKey, sdkmath.NewInt(1000)))
	rec, err := f.k.GetStake(ctx, poolKey, alice)
	require.NoError(t, err)
	require.Equal(t, int64(1000), rec.Accrued.Int64())
}

func TestRewardsSplitByShare(t *testing.T) {
	f := setupKeeper(t)
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 0, 1_000_000)))
	require.NoError(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(300)))
	require.NoError(t, f.k.Stake(f.ctx, bob, poolKey, sdkmath.NewInt(100)))

	ctx := testutil.AtHeight(f.ctx, 11)
	aliceRewards, err := f.k.CalculateRewards(ctx, poolKey, alice)
	require.NoError(t, err)
	bobRewards, err := f.k.CalculateRewards(ctx, poolKey, bob)
	require.NoError(t, err)
	require.Equal(t, int64(750), aliceRewards.Int64())
	require.Equal(t, int64(250), bobRewards.Int64())

	// A second stake settles the first position before changing totals.
	require.NoError(t, f.k.Stake(ctx, alice, poolKey, sdkmath.NewInt(100)))
	rec, err := f.k.GetStake(ctx, poolKey, alice)
	require.NoError(t, err)
	require.Equal(t, int64(750), rec.Accrued.Int64())
	require.Equal(t, int64(11), rec.LastRewardHeight)
	require.Equal(t, int64(0), f.k.GetTotalBlocksSinceLastReward(ctx, poolKey, alice))
}

func TestWithdrawLockupBoundary(t *testing.T) {
	f := setupKeeper(t)
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 5, 1_000_000)))
	require.NoError(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(500)))
	require.Equal(t, int64(6), f.k.CanWithdrawFrom(f.ctx, poolKey, alice))

	early := testutil.AtHeight(f.ctx, 5)
	require.ErrorIs(t, f.k.Withdraw(early, alice, poolKey, sdkmath.NewInt(100)), types.ErrLockupActive)

	boundary := testutil.AtHeight(f.ctx, 6)
	require.ErrorIs(t, f.k.Withdraw(boundary, alice, poolKey, sdkmath.NewInt(501)), types.ErrInsufficientStake)
	require.NoError(t, f.k.Withdraw(boundary, alice, poolKey, sdkmath.NewInt(500)))
	require.True(t, f.k.GetAccountStakingBalance(boundary, poolKey, alice).IsZero())
	require.Equal(t, int64(0), f.k.CanWithdrawFrom(boundary, poolKey, alice))

	// Accrued rewards survive a full withdrawal.
	rewards, err := f.k.CalculateRewards(boundary, poolKey, alice)
	require.NoError(t, err)
	require.Equal(t, int64(500), rewards.Int64())
}

func TestWithdrawRewardsChargesFeeAndCapsAtBalance(t *testing.T) {
	f := setupKeeper(t)
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 0, 1_000_000)))
	require.NoError(t, f.k.FundRewards(f.ctx, root, poolKey, sdkmath.NewInt(500)))
	require.NoError(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(1000)))

	ctx := testutil.AtHeight(f.ctx, 11)
	net, err := f.k.WithdrawRewards(ctx, alice, poolKey)
	require.NoError(t, err)
	require.Equal(t, int64(450), net.Int64())
	require.Equal(t, int64(1_000_450), f.bank.GetBalance(ctx, alice, rewardDenom).Amount.Int64())
	require.Equal(t, int64(50), f.bank.GetBalance(ctx, treasury, rewardDenom).Amount.Int64())

	rec, err := f.k.GetStake(ctx, poolKey, alice)
	require.NoError(t, err)
	require.Equal(t, int64(500), rec.Accrued.Int64())
	require.Equal(t, int64(450), rec.Harvested.Int64())

	pool, err := f.k.GetPool(ctx, poolKey)
	require.NoError(t, err)
	require.True(t, pool.RewardBalance.IsZero())

	net, err = f.k.WithdrawRewards(ctx, alice, poolKey)
	require.NoError(t, err)
	require.True(t, net.IsZero())
}

func TestStakeRejectsReentryAndRollsBack(t *testing.T) {
	f := setupKeeper(t)
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 0, 1_000_000)))

	var inner error
	f.bank.SetSendHook(func(ctx context.Context, _, _ sdk.AccAddress, _ sdk.Coins) error {
		inner = f.k.Stake(ctx, bob, poolKey, sdkmath.NewInt(1))
		return inner
	})

	err := f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(100))
	require.ErrorIs(t, err, types.ErrExternalCallFailed)
	require.ErrorIs(t, inner, guard.ErrReentrantCall)

	f.bank.SetSendHook(nil)
	require.Equal(t, int64(1_000_000), f.balance(alice, stakeDenom))
	require.True(t, f.k.GetPoolStakeBalance(f.ctx, poolKey).IsZero())

	require.NoError(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(100)))
}

func TestGetInfoQuotesRewardValue(t *testing.T) {
	f := setupKeeper(t)
	f.oracle.SetRate(rewardDenom, quoteDenom, sdkmath.LegacyNewDec(2))
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 3, 1_000_000)))
	require.NoError(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(1000)))

	ctx := testutil.AtHeight(f.ctx, 6)
	info, err := f.k.GetInfo(ctx, poolKey, alice)
	require.NoError(t, err)
	require.Equal(t, int64(500), info.PendingRewards.Int64())
	require.Equal(t, int64(1000), info.RewardValue.Int64())
	require.Equal(t, int64(4), info.UnlockHeight)
	require.False(t, info.PriceUnreliable)

	_, err = f.k.GetInfo(ctx, poolKey, alice)
	require.NoError(t, err)
	require.Equal(t, 1, f.oracle.Calls)

	illiquid := newPool(100, 0, 1_000_000)
	illiquid.Key = "illiquid"
	illiquid.QuoteDenom = "uatom"
	require.NoError(t, f.k.AddOrEditPool(ctx, root, illiquid))
	require.NoError(t, f.k.Stake(ctx, bob, "illiquid", sdkmath.NewInt(10)))

	info, err = f.k.GetInfo(testutil.AtHeight(ctx, 8), "illiquid", bob)
	require.NoError(t, err)
	require.True(t, info.PriceUnreliable)
	require.True(t, info.RewardValue.IsZero())
}

func TestInvariantsHoldAfterActivity(t *testing.T) {
	f := setupKeeper(t)
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 0, 1_000_000)))
	require.NoError(t, f.k.FundRewards(f.ctx, root, poolKey, sdkmath.NewInt(10_000)))
	require.NoError(t, f.k.Stake(f.ctx, alice, poolKey, sdkmath.NewInt(700)))
	require.NoError(t, f.k.Stake(f.ctx, bob, poolKey, sdkmath.NewInt(300)))

	ctx := testutil.AtHeight(f.ctx, 20)
	require.NoError(t, f.k.Withdraw(ctx, bob, poolKey, sdkmath.NewInt(100)))
	_, err := f.k.WithdrawRewards(ctx, alice, poolKey)
	require.NoError(t, err)

	msg, broken := keeper.AllInvariants(f.k)(ctx)
	require.False(t, broken, msg)
}

func TestGenesisRoundTrip(t *testing.T) {
	f := setupKeeper(t)
	require.NoError(t, f.k.AddOrEditPool(f.ctx, root, newPool(100, 2, 1_000_000)))

	gs, err := f.k.ExportGenesis(f.ctx)
	require.NoError(t, err)
	require.NoError(t, gs.Validate())
	require.Len(t, gs.Pools, 1)
	require.Equal(t, treasury.String(), gs.Params.TreasuryAddress)
}
