package keeper_test

import (
	"testing"

	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/al-neptune/protocol/testutil"
	accesskeeper "github.com/al-neptune/protocol/x/access/keeper"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	"github.com/al-neptune/protocol/x/crisis/keeper"
	"github.com/al-neptune/protocol/x/crisis/types"
)

var (
	root  = testutil.Addr("root")
	pause = testutil.Addr("pause-agent")
	alice = testutil.Addr("alice")
)

func setupKeeper(t *testing.T) (keeper.Keeper, sdk.Context) {
	t.Helper()

	keys := testutil.NewStoreKeys(accesstypes.StoreKey, types.StoreKey)
	ctx := testutil.NewContext(t, keys)
	cdc := testutil.NewCodec()

	access := accesskeeper.NewKeeper(cdc, runtime.NewKVStoreService(keys[accesstypes.StoreKey]), log.NewNopLogger())
	require.NoError(t, access.InitGenesis(ctx, &accesstypes.GenesisState{
		Grants: []accesstypes.RoleGrant{
			{Role: accesstypes.RoleAdmin, Account: root.String()},
			{Role: accesstypes.RolePauseAgent, Account: pause.String()},
		},
	}))

	k := keeper.NewKeeper(cdc, runtime.NewKVStoreService(keys[types.StoreKey]), log.NewNopLogger(), access)
	return k, ctx
}

func TestHaltByPauseAgent(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.False(t, k.IsHalted(ctx, types.ScopeClaims))

	err := k.MsgHalt(ctx, types.MsgHalt{Requester: alice.String(), Reason: "oracle exploit"})
	require.ErrorIs(t, err, accesstypes.ErrPermissionDenied)

	require.NoError(t, k.MsgHalt(ctx, types.MsgHalt{
		Requester: pause.String(),
		Reason:    "oracle exploit",
		Scopes:    []string{types.ScopeClaims, types.ScopeAllocation, types.ScopeClaims},
	}))

	state := k.GetHaltState(ctx)
	require.True(t, state.Active)
	require.Equal(t, []string{types.ScopeAllocation, types.ScopeClaims}, state.Scopes)
	require.Equal(t, pause.String(), state.TriggeredBy)
	require.Equal(t, ctx.BlockHeight(), state.TriggeredAtHeight)

	require.ErrorIs(t, k.EnsureNotHalted(ctx, types.ScopeClaims), types.ErrHalted)
	require.NoError(t, k.EnsureNotHalted(ctx, types.ScopeStaking))
}

func TestHaltWithoutScopesFreezesEverything(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.MsgHalt(ctx, types.MsgHalt{Requester: pause.String(), Reason: "bridge drained"}))
	for _, scope := range types.AllScopes {
		require.True(t, k.IsHalted(ctx, scope), scope)
	}
}

func TestHaltRejectsMalformedRequests(t *testing.T) {
	k, ctx := setupKeeper(t)

	err := k.MsgHalt(ctx, types.MsgHalt{Requester: pause.String(), Reason: " "})
	require.ErrorIs(t, err, types.ErrInvalidRequest)
	err = k.MsgHalt(ctx, types.MsgHalt{Requester: pause.String(), Reason: "x", Scopes: []string{"bridge"}})
	require.ErrorIs(t, err, types.ErrInvalidRequest)
	err = k.MsgHalt(ctx, types.MsgHalt{Requester: "not-an-address", Reason: "x"})
	require.ErrorIs(t, err, types.ErrInvalidRequest)
}

func TestClearHaltRequiresAdmin(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.MsgHalt(ctx, types.MsgHalt{Requester: pause.String(), Reason: "incident"}))

	require.ErrorIs(t, k.ClearHalt(ctx, pause), accesstypes.ErrPermissionDenied)
	require.NoError(t, k.ClearHalt(ctx, root))
	require.False(t, k.GetHaltState(ctx).Active)
	require.NoError(t, k.EnsureNotHalted(ctx, types.ScopeReporting))
}

func TestGenesisRoundTrip(t *testing.T) {
	k, ctx := setupKeeper(t)
	require.NoError(t, k.MsgHalt(ctx, types.MsgHalt{Requester: pause.String(), Reason: "incident", Scopes: []string{types.ScopeStaking}}))

	gs := k.ExportGenesis(ctx)
	require.NoError(t, gs.Validate())

	restored, rctx := setupKeeper(t)
	require.NoError(t, restored.InitGenesis(rctx, gs))
	require.True(t, restored.IsHalted(rctx, types.ScopeStaking))
	require.False(t, restored.IsHalted(rctx, types.ScopeClaims))

	bad := &types.GenesisState{Halt: types.HaltState{Active: true, Scopes: []string{"bridge"}}}
	require.Error(t, restored.InitGenesis(rctx, bad))
}
