package keeper_test

import (
	"context"
	"errors"
	"testing"
	"time"

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
	coverkeeper "github.com/al-neptune/protocol/x/cover/keeper"
	covertypes "github.com/al-neptune/protocol/x/cover/types"
	"github.com/al-neptune/protocol/x/incident/keeper"
	"github.com/al-neptune/protocol/x/incident/types"
)

const (
	npm      = "unpm"
	coverKey = "binance"
)

var (
	root     = testutil.Addr("root")
	manager  = testutil.Addr("cover-manager")
	agent    = testutil.Addr("governance-agent")
	admin    = testutil.Addr("governance-admin")
	reporter = testutil.Addr("reporter")
	alice    = testutil.Addr("alice")
	bob      = testutil.Addr("bob")
	carol    = testutil.Addr("carol")
	treasury = testutil.Addr("treasury")

	reportingPeriod = 7 * 24 * time.Hour
	claimPeriod     = 7 * 24 * time.Hour
)

type recordingHook struct {
	calls   []types.IncidentStatus
	reenter func(ctx context.Context) error
	veto    error
}

func (h *recordingHook) BeforeEmergencyCorrection(context.Context, string, int64) error {
	return h.veto
}

func (h *recordingHook) AfterIncidentFinalized(ctx context.Context, _ string, _ int64, outcome types.IncidentStatus) error {
	if h.reenter != nil {
		if err := h.reenter(ctx); err != nil {
			return err
		}
	}
	h.calls = append(h.calls, outcome)
	return nil
}

type fixture struct {
	k    *keeper.Keeper
	ctx  sdk.Context
	bank *simnet.TokenLedger
	hook *recordingHook
}

func setupKeeper(t *testing.T) fixture {
	t.Helper()

	keys := testutil.NewStoreKeys(accesstypes.StoreKey, covertypes.StoreKey, types.StoreKey, simnet.StoreKey)
	ctx := testutil.NewContext(t, keys)
	cdc := testutil.NewCodec()

	access := accesskeeper.NewKeeper(cdc, runtime.NewKVStoreService(keys[accesstypes.StoreKey]), log.NewNopLogger())
	require.NoError(t, access.InitGenesis(ctx, &accesstypes.GenesisState{
		Grants: []accesstypes.RoleGrant{
			{Role: accesstypes.RoleAdmin, Account: root.String()},
			{Role: accesstypes.RoleCoverManager, Account: manager.String()},
			{Role: accesstypes.RoleGovernanceAgent, Account: agent.String()},
			{Role: accesstypes.RoleGovernanceAdmin, Account: admin.String()},
		},
	}))

	covers := coverkeeper.NewKeeper(cdc, runtime.NewKVStoreService(keys[covertypes.StoreKey]), log.NewNopLogger(), access)
	require.NoError(t, covers.InitGenesis(ctx, covertypes.DefaultGenesis()))
	require.NoError(t, covers.AddCover(ctx, manager, covertypes.Cover{
		Key:               coverKey,
		Name:              "Binance exchange hack",
		Owner:             manager.String(),
		ReportingPeriod:   reportingPeriod,
		ClaimPeriod:       claimPeriod,
		MinReportingStake: sdkmath.NewInt(100),
	}))

	bank := simnet.NewTokenLedger(runtime.NewKVStoreService(keys[simnet.StoreKey]))
	for _, addr := range []sdk.AccAddress{reporter, alice, bob, carol} {
		require.NoError(t, bank.MintCoins(ctx, addr, sdk.NewCoins(sdk.NewInt64Coin(npm, 10_000))))
	}

	k := keeper.NewKeeper(cdc, runtime.NewKVStoreService(keys[types.StoreKey]), log.NewNopLogger(), access, bank, covers)
	hook := &recordingHook{}
	k.SetHooks(hook)

	gs := types.DefaultGenesis()
	gs.Params.TreasuryAddress = treasury.String()
	require.NoError(t, k.InitGenesis(ctx, gs))

	return fixture{k: &k, ctx: ctx, bank: bank, hook: hook}
}

func (f fixture) balance(ctx sdk.Context, addr sdk.AccAddress) int64 {
	return f.bank.GetBalance(ctx, addr, npm).Amount.Int64()
}

// reportWithVotes reports with 100 and tops the sides up to yes/no.
func (f fixture) reportWithVotes(t *testing.T, yes, no int64) int64 {
	t.Helper()
	date, err := f.k.Report(f.ctx, reporter, coverKey, "hot wallet drained", sdkmath.NewInt(100))
	require.NoError(t, err)
	if yes > 100 {
		require.NoError(t, f.k.Attest(f.ctx, alice, coverKey, date, sdkmath.NewInt(yes-100)))
	}
	if no > 0 {
		require.NoError(t, f.k.Refute(f.ctx, bob, coverKey, date, "funds are safu", sdkmath.NewInt(no)))
	}
	return date
}

func afterDeadline(ctx sdk.Context) sdk.Context {
	return testutil.AtTime(ctx, testutil.GenesisTime.Add(reportingPeriod))
}

func TestReportOpensSingleIncident(t *testing.T) {
	f := setupKeeper(t)

	_, err := f.k.Report(f.ctx, reporter, "unknown", "x", sdkmath.NewInt(100))
	require.ErrorIs(t, err, types.ErrCoverInactiveOrNotFound)
	_, err = f.k.Report(f.ctx, reporter, coverKey, "x", sdkmath.NewInt(99))
	require.ErrorIs(t, err, types.ErrInsufficientStake)
	_, err = f.k.Report(f.ctx, reporter, coverKey, "x", sdkmath.NewInt(20_000))
	require.ErrorIs(t, err, types.ErrInsufficientBalance)

	date, err := f.k.Report(f.ctx, reporter, coverKey, "hot wallet drained", sdkmath.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, testutil.GenesisTime.Unix(), date)

	inc, err := f.k.GetIncident(f.ctx, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, types.StatusIncidentHappened, inc.Status)
	require.Equal(t, reporter.String(), inc.Reporter)
	require.Equal(t, date+int64(reportingPeriod/time.Second), inc.ResolutionDeadline)
	require.Equal(t, types.StatusIncidentHappened, f.k.GetStatus(f.ctx, coverKey))
	require.Equal(t, int64(100), f.balance(f.ctx, types.EscrowAddress(coverKey)))

	later := testutil.Advance(f.ctx, 1, time.Minute)
	_, err = f.k.Report(later, alice, coverKey, "again", sdkmath.NewInt(100))
	require.ErrorIs(t, err, types.ErrReportAlreadyActive)
}

func TestDisputeRules(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 100, 0)

	require.ErrorIs(t, f.k.Refute(f.ctx, bob, coverKey, date, "no", sdkmath.NewInt(50)), types.ErrInsufficientStake)
	require.NoError(t, f.k.Refute(f.ctx, bob, coverKey, date, "no", sdkmath.NewInt(100)))
	// Only the first refutation carries the minimum.
	require.NoError(t, f.k.Refute(f.ctx, carol, coverKey, date, "", sdkmath.NewInt(1)))
	require.NoError(t, f.k.Attest(f.ctx, alice, coverKey, date, sdkmath.NewInt(5)))

	inc, err := f.k.GetIncident(f.ctx, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, bob.String(), inc.Disputer)
	yes, no, err := f.k.GetStakes(f.ctx, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, int64(105), yes.Int64())
	require.Equal(t, int64(101), no.Int64())

	stake, err := f.k.GetStakesOf(f.ctx, carol, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, int64(1), stake.No.Int64())

	require.ErrorIs(t, f.k.Attest(afterDeadline(f.ctx), alice, coverKey, date, sdkmath.NewInt(5)), types.ErrWindowClosed)
	require.ErrorIs(t, f.k.Attest(f.ctx, alice, coverKey, date+1, sdkmath.NewInt(5)), types.ErrIncidentNotFound)
}

func TestResolveMajorityAndTie(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 700, 300)

	ctx := afterDeadline(f.ctx)
	outcome, err := f.k.Resolve(ctx, carol, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, types.StatusClaimable, outcome)

	begins, expires, err := f.k.GetClaimWindow(ctx, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, ctx.BlockTime().Unix(), begins)
	require.Equal(t, begins+int64(claimPeriod/time.Second), expires)

	_, err = f.k.Resolve(ctx, carol, coverKey, date)
	require.ErrorIs(t, err, types.ErrInvalidState)

	tie := setupKeeper(t)
	date = tie.reportWithVotes(t, 300, 300)
	outcome, err = tie.k.Resolve(afterDeadline(tie.ctx), carol, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, types.StatusDenied, outcome)
}

func TestResolveBeforeDeadlineNeedsGovernanceAgent(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 100, 0)

	_, err := f.k.Resolve(f.ctx, carol, coverKey, date)
	require.ErrorIs(t, err, types.ErrWindowStillOpen)

	outcome, err := f.k.Resolve(f.ctx, agent, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, types.StatusClaimable, outcome)
}

func TestLeadFlipNearDeadlineExtendsIt(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 100, 0)
	deadline, err := f.k.GetResolutionDeadline(f.ctx, coverKey, date)
	require.NoError(t, err)

	// Flipping early does not extend.
	require.NoError(t, f.k.Refute(f.ctx, bob, coverKey, date, "", sdkmath.NewInt(150)))
	got, err := f.k.GetResolutionDeadline(f.ctx, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, deadline, got)

	late := testutil.AtTime(f.ctx, time.Unix(deadline, 0).Add(-30*time.Minute))
	// Adding to the leading side does not extend.
	require.NoError(t, f.k.Refute(late, carol, coverKey, date, "", sdkmath.NewInt(10)))
	got, err = f.k.GetResolutionDeadline(late, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, deadline, got)

	require.NoError(t, f.k.Attest(late, alice, coverKey, date, sdkmath.NewInt(100)))
	got, err = f.k.GetResolutionDeadline(late, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, deadline+3600, got)

	// The old deadline no longer resolves.
	_, err = f.k.Resolve(testutil.AtTime(late, time.Unix(deadline, 0)), carol, coverKey, date)
	require.ErrorIs(t, err, types.ErrWindowStillOpen)
}

func TestFixedDeadlineWhenExtensionDisabled(t *testing.T) {
	f := setupKeeper(t)
	params := f.k.GetParams(f.ctx)
	params.DeadlineExtension = 0
	require.NoError(t, f.k.SetParams(f.ctx, params))

	date := f.reportWithVotes(t, 100, 0)
	deadline, err := f.k.GetResolutionDeadline(f.ctx, coverKey, date)
	require.NoError(t, err)

	late := testutil.AtTime(f.ctx, time.Unix(deadline, 0).Add(-time.Minute))
	require.NoError(t, f.k.Refute(late, bob, coverKey, date, "", sdkmath.NewInt(500)))
	got, err := f.k.GetResolutionDeadline(late, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, deadline, got)
}

func TestSettleStakesIsIdempotent(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 700, 300)
	ctx := afterDeadline(f.ctx)

	settled, err := f.k.SettleStakes(ctx, coverKey, date)
	require.ErrorIs(t, err, types.ErrInvalidState)
	require.False(t, settled)

	_, err = f.k.Resolve(ctx, carol, coverKey, date)
	require.NoError(t, err)

	settled, err = f.k.SettleStakes(ctx, coverKey, date)
	require.NoError(t, err)
	require.True(t, settled)

	snapshot := map[string]int64{}
	for _, addr := range []sdk.AccAddress{treasury, reporter, types.EscrowAddress(coverKey)} {
		snapshot[addr.String()] = f.balance(ctx, addr)
	}
	require.Equal(t, int64(30), snapshot[treasury.String()])
	require.Equal(t, int64(9_900+15), snapshot[reporter.String()])

	settled, err = f.k.SettleStakes(ctx, coverKey, date)
	require.NoError(t, err)
	require.False(t, settled)
	for addr, want := range snapshot {
		acc, err := sdk.AccAddressFromBech32(addr)
		require.NoError(t, err)
		require.Equal(t, want, f.balance(ctx, acc))
	}

	settlement, err := f.k.GetSettlement(ctx, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, int64(255), settlement.Distributable.Int64())
	require.Equal(t, int64(15), settlement.ReporterCommission.Int64())
}

func TestUnstakePaysWinnersAndForfeitsLosers(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 700, 300)

	_, err := f.k.Unstake(f.ctx, alice, coverKey, date)
	require.ErrorIs(t, err, types.ErrWindowStillOpen)

	ctx := afterDeadline(f.ctx)
	_, err = f.k.Unstake(ctx, alice, coverKey, date)
	require.ErrorIs(t, err, types.ErrInvalidState)

	_, err = f.k.Resolve(ctx, carol, coverKey, date)
	require.NoError(t, err)

	payout, err := f.k.Unstake(ctx, reporter, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, int64(136), payout.Int64())

	payout, err = f.k.Unstake(ctx, alice, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, int64(818), payout.Int64())

	payout, err = f.k.Unstake(ctx, bob, coverKey, date)
	require.NoError(t, err)
	require.True(t, payout.IsZero())
	require.Equal(t, int64(9_700), f.balance(ctx, bob))

	_, err = f.k.Unstake(ctx, bob, coverKey, date)
	require.ErrorIs(t, err, types.ErrNothingToUnstake)
	_, err = f.k.Unstake(ctx, carol, coverKey, date)
	require.ErrorIs(t, err, types.ErrNothingToUnstake)

	stake, err := f.k.GetStakesOf(ctx, alice, coverKey, date)
	require.NoError(t, err)
	require.True(t, stake.Withdrawn)
	require.True(t, stake.Yes.IsZero())

	require.Equal(t, int64(10_000-100+15+136), f.balance(ctx, reporter))
	// Truncation dust stays in escrow.
	require.Equal(t, int64(1), f.balance(ctx, types.EscrowAddress(coverKey)))
}

func TestFinalizeClaimableAfterClaimWindow(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 700, 300)
	ctx := afterDeadline(f.ctx)
	_, err := f.k.Resolve(ctx, carol, coverKey, date)
	require.NoError(t, err)

	_, err = f.k.Finalize(ctx, coverKey, date)
	require.ErrorIs(t, err, types.ErrWindowStillOpen)

	_, expires, err := f.k.GetClaimWindow(ctx, coverKey, date)
	require.NoError(t, err)
	done := testutil.AtTime(ctx, time.Unix(expires, 0))
	finalized, err := f.k.Finalize(done, coverKey, date)
	require.NoError(t, err)
	require.True(t, finalized)
	require.Equal(t, []types.IncidentStatus{types.StatusClaimable}, f.hook.calls)

	inc, err := f.k.GetIncident(done, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, types.StatusStopped, inc.Status)
	require.Equal(t, types.StatusClaimable, inc.Outcome)
	require.Equal(t, types.StatusNormal, f.k.GetStatus(done, coverKey))
	settlement, err := f.k.GetSettlement(done, coverKey, date)
	require.NoError(t, err)
	require.True(t, settlement.Settled)

	finalized, err = f.k.Finalize(done, coverKey, date)
	require.NoError(t, err)
	require.False(t, finalized)
	require.Len(t, f.hook.calls, 1)

	next, err := f.k.Report(testutil.Advance(done, 1, time.Hour), reporter, coverKey, "again", sdkmath.NewInt(100))
	require.NoError(t, err)
	require.Greater(t, next, date)
}

func TestFinalizeDeniedImmediately(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 100, 300)

	_, err := f.k.Finalize(f.ctx, coverKey, date)
	require.ErrorIs(t, err, types.ErrInvalidState)

	ctx := afterDeadline(f.ctx)
	_, err = f.k.Resolve(ctx, carol, coverKey, date)
	require.NoError(t, err)
	finalized, err := f.k.Finalize(ctx, coverKey, date)
	require.NoError(t, err)
	require.True(t, finalized)
	require.Equal(t, []types.IncidentStatus{types.StatusDenied}, f.hook.calls)
}

func TestFinalizeRollsBackWhenHookReenters(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 100, 300)
	ctx := afterDeadline(f.ctx)
	_, err := f.k.Resolve(ctx, carol, coverKey, date)
	require.NoError(t, err)

	f.hook.reenter = func(ctx context.Context) error {
		_, err := f.k.Report(ctx, alice, coverKey, "reentry", sdkmath.NewInt(100))
		return err
	}
	_, err = f.k.Finalize(ctx, coverKey, date)
	require.ErrorIs(t, err, guard.ErrReentrantCall)

	inc, err := f.k.GetIncident(ctx, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, types.StatusDenied, inc.Status)
	settlement, err := f.k.GetSettlement(ctx, coverKey, date)
	require.NoError(t, err)
	require.False(t, settlement.Settled)
}

func TestEmergencyResolve(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 100, 0)

	_, err := f.k.EmergencyResolve(f.ctx, agent, coverKey, date, false)
	require.ErrorIs(t, err, accesstypes.ErrPermissionDenied)

	outcome, err := f.k.EmergencyResolve(f.ctx, admin, coverKey, date, false)
	require.NoError(t, err)
	require.Equal(t, types.StatusFalseReporting, outcome)

	// Nobody refuted, so the whole false report goes to the treasury.
	finalized, err := f.k.Finalize(f.ctx, coverKey, date)
	require.NoError(t, err)
	require.True(t, finalized)
	require.Equal(t, int64(100), f.balance(f.ctx, treasury))
	require.Zero(t, f.balance(f.ctx, types.EscrowAddress(coverKey)))
}

func TestEmergencyResolveCorrectsOnce(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 100, 300)
	ctx := afterDeadline(f.ctx)

	outcome, err := f.k.Resolve(ctx, carol, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, types.StatusDenied, outcome)

	outcome, err = f.k.EmergencyResolve(ctx, admin, coverKey, date, true)
	require.NoError(t, err)
	require.Equal(t, types.StatusClaimable, outcome)
	begins, expires, err := f.k.GetClaimWindow(ctx, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, begins+int64(claimPeriod/time.Second), expires)

	_, err = f.k.EmergencyResolve(ctx, admin, coverKey, date, false)
	require.ErrorIs(t, err, types.ErrInvalidState)
}

func TestEmergencyCorrectionVetoedByHook(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 300, 100)
	ctx := afterDeadline(f.ctx)
	_, err := f.k.Resolve(ctx, carol, coverKey, date)
	require.NoError(t, err)

	f.hook.veto = errors.New("claims paid")
	_, err = f.k.EmergencyResolve(ctx, admin, coverKey, date, false)
	require.EqualError(t, err, "claims paid")

	inc, err := f.k.GetIncident(ctx, coverKey, date)
	require.NoError(t, err)
	require.Equal(t, types.StatusClaimable, inc.Status)
	require.False(t, inc.EmergencyResolved)

	// lifting the veto lets the single correction through
	f.hook.veto = nil
	outcome, err := f.k.EmergencyResolve(ctx, admin, coverKey, date, false)
	require.NoError(t, err)
	require.Equal(t, types.StatusFalseReporting, outcome)
}

func TestInvariantsAndGenesis(t *testing.T) {
	f := setupKeeper(t)
	date := f.reportWithVotes(t, 700, 300)

	msg, broken := keeper.AllInvariants(*f.k)(f.ctx)
	require.False(t, broken, msg)

	ctx := afterDeadline(f.ctx)
	_, err := f.k.Resolve(ctx, carol, coverKey, date)
	require.NoError(t, err)
	_, err = f.k.Unstake(ctx, alice, coverKey, date)
	require.NoError(t, err)

	msg, broken = keeper.AllInvariants(*f.k)(ctx)
	require.False(t, broken, msg)

	gs, err := f.k.ExportGenesis(ctx)
	require.NoError(t, err)
	require.NoError(t, gs.Validate())
	require.Len(t, gs.Incidents, 1)
	require.Len(t, gs.Stakes, 3)
	require.Len(t, gs.Settlements, 1)

	restored := setupKeeper(t)
	require.NoError(t, restored.k.InitGenesis(restored.ctx, gs))
	settlement, err := restored.k.GetSettlement(restored.ctx, coverKey, date)
	require.NoError(t, err)
	require.True(t, settlement.Settled)
	stake, err := restored.k.GetStakesOf(restored.ctx, alice, coverKey, date)
	require.NoError(t, err)
	require.True(t, stake.Withdrawn)
	// A resolved incident holds the cover until it is finalized.
	active, ok := restored.k.GetActiveIncidentDate(restored.ctx, coverKey)
	require.True(t, ok)
	require.Equal(t, date, active)
}
