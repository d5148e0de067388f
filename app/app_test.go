package app_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/al-neptune/protocol/app"
	"github.com/al-neptune/protocol/testutil"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	claimstypes "github.com/al-neptune/protocol/x/claims/types"
	covertypes "github.com/al-neptune/protocol/x/cover/types"
	crisistypes "github.com/al-neptune/protocol/x/crisis/types"
	incidenttypes "github.com/al-neptune/protocol/x/incident/types"
	"github.com/al-neptune/protocol/x/strategy/backends"
	strategytypes "github.com/al-neptune/protocol/x/strategy/types"
)

const coverKey = "binance"

var (
	root     = testutil.Addr("root")
	manager  = testutil.Addr("cover-manager")
	agent    = testutil.Addr("governance-agent")
	pauser   = testutil.Addr("pause-agent")
	govAdmin = testutil.Addr("governance-admin")
	reporter = testutil.Addr("reporter")
	alice    = testutil.Addr("alice")
	treasury = testutil.Addr("treasury")

	expiry = testutil.GenesisTime.Add(30 * 24 * time.Hour).Unix()
)

func testGenesis() *app.GenesisState {
	gs := app.NewDefaultGenesisState()
	gs.Access.Grants = []accesstypes.RoleGrant{
		{Role: accesstypes.RoleAdmin, Account: root.String()},
		{Role: accesstypes.RoleCoverManager, Account: manager.String()},
		{Role: accesstypes.RoleGovernanceAgent, Account: agent.String()},
		{Role: accesstypes.RolePauseAgent, Account: pauser.String()},
		{Role: accesstypes.RoleGovernanceAdmin, Account: govAdmin.String()},
	}
	gs.Cover.Covers = []covertypes.Cover{{
		Key:               coverKey,
		Name:              "Binance exchange hack",
		Owner:             manager.String(),
		StablecoinDenom:   "uusdc",
		ReportingPeriod:   7 * 24 * time.Hour,
		ClaimPeriod:       7 * 24 * time.Hour,
		MinReportingStake: sdkmath.NewInt(100),
		Active:            true,
	}}
	gs.Strategy.Covers = []strategytypes.CoverAllocations{{
		CoverKey: coverKey,
		Allocations: []strategytypes.Allocation{
			{StrategyKey: "aave", WeightBps: 5000},
			{StrategyKey: "compound", WeightBps: 3000},
		},
	}}
	gs.Incident.Params.TreasuryAddress = treasury.String()
	gs.Pool.Params.TreasuryAddress = treasury.String()
	gs.Claims.Params.TreasuryAddress = treasury.String()
	gs.Accounts = []app.GenesisAccount{
		{Address: reporter.String(), Coins: sdk.NewCoins(sdk.NewInt64Coin("unpm", 10_000))},
		{Address: covertypes.VaultAddress(coverKey).String(), Coins: sdk.NewCoins(sdk.NewInt64Coin("uusdc", 1_000_000))},
	}
	return gs
}

func setupApp(t *testing.T) (*app.App, sdk.Context) {
	t.Helper()
	a, err := app.New(log.NewNopLogger(), dbm.NewMemDB(), app.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx := a.NewContext(1, testutil.GenesisTime)
	require.NoError(t, a.InitGenesis(ctx, testGenesis()))
	a.Commit()
	return a, ctx
}

func TestNewRejectsBadOptions(t *testing.T) {
	opts := app.DefaultOptions()
	opts.Strategies[1].Kind = "flash_loan"
	_, err := app.New(log.NewNopLogger(), dbm.NewMemDB(), opts)
	require.ErrorContains(t, err, "unknown kind")

	opts = app.DefaultOptions()
	opts.Strategies[1].Key = "aave"
	_, err = app.New(log.NewNopLogger(), dbm.NewMemDB(), opts)
	require.ErrorContains(t, err, "duplicate strategy")

	opts = app.DefaultOptions()
	opts.Strategies = append(opts.Strategies, app.StrategyConfig{
		Kind:   app.StrategyKindLending,
		Config: backends.Config{Key: "spark", Name: "Spark", Weight: 2000, StablecoinDenom: "uusdc"},
	})
	_, err = app.New(log.NewNopLogger(), dbm.NewMemDB(), opts)
	require.ErrorContains(t, err, "both use the lending market for uusdc")

	// the same kind on another stablecoin gets its own market
	opts.Strategies[2].StablecoinDenom = "udai"
	a, err := app.New(log.NewNopLogger(), dbm.NewMemDB(), opts)
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

func TestNewRegistersStrategiesAndInvariants(t *testing.T) {
	a, ctx := setupApp(t)

	require.Len(t, a.StrategyKeeper.Strategies(), 2)
	require.NotEmpty(t, a.Invariants().Routes())
	require.NoError(t, a.CheckInvariants(ctx))
	require.Equal(t, int64(1), a.LastHeight())
}

func TestReadiness(t *testing.T) {
	a, ctx := setupApp(t)
	report := a.RunReadinessChecks(ctx)
	require.True(t, report.Ready, report.String())

	bare, err := app.New(log.NewNopLogger(), dbm.NewMemDB(), app.DefaultOptions())
	require.NoError(t, err)
	bctx := bare.NewContext(1, testutil.GenesisTime)
	require.NoError(t, bare.InitGenesis(bctx, app.NewDefaultGenesisState()))
	report = bare.RunReadinessChecks(bctx)
	require.False(t, report.Ready)
	require.Contains(t, report.String(), "[FAIL] claims_treasury")
}

func TestClaimRecallsFromStrategies(t *testing.T) {
	a, ctx := setupApp(t)

	res, err := a.StrategyKeeper.Allocate(ctx, coverKey, sdkmath.NewInt(100_000))
	require.NoError(t, err)
	require.Equal(t, int64(80_000), res.Allocated.Int64())
	require.NoError(t, a.CheckInvariants(ctx))

	date, err := a.IncidentKeeper.Report(ctx, reporter, coverKey, "hot wallet drained", sdkmath.NewInt(100))
	require.NoError(t, err)
	status, err := a.IncidentKeeper.Resolve(ctx, agent, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, incidenttypes.StatusClaimable, status)

	require.NoError(t, a.ClaimTokens.Mint(ctx, coverKey, expiry, alice, sdkmath.NewInt(950_000)))
	result, err := a.ClaimsKeeper.Claim(ctx, alice, coverKey, date, expiry, sdkmath.NewInt(950_000))
	require.NoError(t, err)
	require.Equal(t, int64(61_750), result.Fee.Int64())
	require.Equal(t, int64(888_250), a.Bank.GetBalance(ctx, alice, "uusdc").Amount.Int64())
	require.True(t, result.Recalled.GTE(sdkmath.NewInt(30_000)))
	require.NoError(t, a.CheckInvariants(ctx))
}

func TestHaltBlocksNewCommitments(t *testing.T) {
	a, ctx := setupApp(t)

	date, err := a.IncidentKeeper.Report(ctx, reporter, coverKey, "hot wallet drained", sdkmath.NewInt(100))
	require.NoError(t, err)
	_, err = a.IncidentKeeper.Resolve(ctx, agent, coverKey, date)
	require.NoError(t, err)
	require.NoError(t, a.ClaimTokens.Mint(ctx, coverKey, expiry, alice, sdkmath.NewInt(1_000)))

	require.NoError(t, a.CrisisKeeper.MsgHalt(ctx, crisistypes.MsgHalt{
		Requester: pauser.String(),
		Reason:    "oracle compromised",
		Scopes:    []string{crisistypes.ScopeClaims, crisistypes.ScopeAllocation},
	}))

	_, err = a.ClaimsKeeper.Claim(ctx, alice, coverKey, date, expiry, sdkmath.NewInt(1_000))
	require.True(t, errors.Is(err, crisistypes.ErrHalted), "got %v", err)
	_, err = a.StrategyKeeper.Allocate(ctx, coverKey, sdkmath.NewInt(1_000))
	require.True(t, errors.Is(err, crisistypes.ErrHalted), "got %v", err)

	// recalls are an exit and stay open
	_, err = a.StrategyKeeper.RecallFor(ctx, coverKey, sdkmath.NewInt(1))
	require.NoError(t, err)

	require.False(t, a.RunReadinessChecks(ctx).Ready)
	require.NoError(t, a.CrisisKeeper.ClearHalt(ctx, root))

	result, err := a.ClaimsKeeper.Claim(ctx, alice, coverKey, date, expiry, sdkmath.NewInt(1_000))
	require.NoError(t, err)
	require.Equal(t, int64(935), result.Net.Int64())
}

func TestEmergencyCorrectionAfterPayoutRefused(t *testing.T) {
	a, ctx := setupApp(t)

	date, err := a.IncidentKeeper.Report(ctx, reporter, coverKey, "hot wallet drained", sdkmath.NewInt(100))
	require.NoError(t, err)
	_, err = a.IncidentKeeper.Resolve(ctx, agent, coverKey, date)
	require.NoError(t, err)
	require.NoError(t, a.ClaimTokens.Mint(ctx, coverKey, expiry, alice, sdkmath.NewInt(500_000)))
	_, err = a.ClaimsKeeper.Claim(ctx, alice, coverKey, date, expiry, sdkmath.NewInt(500_000))
	require.NoError(t, err)

	_, err = a.IncidentKeeper.EmergencyResolve(ctx, govAdmin, coverKey, date, false)
	require.True(t, errors.Is(err, claimstypes.ErrClaimsAlreadyPaid), "got %v", err)

	require.Equal(t, incidenttypes.StatusClaimable, a.IncidentKeeper.GetStatus(ctx, coverKey))
	require.NoError(t, a.CheckInvariants(ctx))
}

func TestExportImportRoundTrip(t *testing.T) {
	a, ctx := setupApp(t)

	date, err := a.IncidentKeeper.Report(ctx, reporter, coverKey, "hot wallet drained", sdkmath.NewInt(100))
	require.NoError(t, err)
	_, err = a.IncidentKeeper.Resolve(ctx, agent, coverKey, date)
	require.NoError(t, err)
	require.NoError(t, a.ClaimTokens.Mint(ctx, coverKey, expiry, alice, sdkmath.NewInt(1_000)))
	_, err = a.ClaimsKeeper.Claim(ctx, alice, coverKey, date, expiry, sdkmath.NewInt(1_000))
	require.NoError(t, err)
	a.Commit()

	exported, err := a.ExportGenesis(ctx)
	require.NoError(t, err)
	bz, err := json.Marshal(exported)
	require.NoError(t, err)

	restored, err := app.UnmarshalGenesis(bz)
	require.NoError(t, err)
	b, err := app.New(log.NewNopLogger(), dbm.NewMemDB(), app.DefaultOptions())
	require.NoError(t, err)
	bctx := b.NewContext(1, testutil.GenesisTime)
	require.NoError(t, b.InitGenesis(bctx, restored))
	require.NoError(t, b.CheckInvariants(bctx))

	totals, err := b.ClaimsKeeper.GetIncidentClaimTotals(bctx, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, int64(1_000), totals.Claimed.Int64())
	require.Equal(t, int64(935), b.Bank.GetBalance(bctx, alice, "uusdc").Amount.Int64())

	inc, err := b.IncidentKeeper.GetIncident(bctx, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, incidenttypes.StatusClaimable, inc.Status)
}
