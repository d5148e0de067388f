// Package testutil builds in-memory multistores and block contexts for
// keeper tests.
package testutil

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	storemetrics "cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
)

// ChainID is the chain id used in test headers.
const ChainID = "neptune-test-1"

// GenesisTime is the block time of height 1 in test contexts.
var GenesisTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// NewStoreKeys creates KV store keys for names.
func NewStoreKeys(names ...string) map[string]*storetypes.KVStoreKey {
	keys := make(map[string]*storetypes.KVStoreKey, len(names))
	for _, name := range names {
		keys[name] = storetypes.NewKVStoreKey(name)
	}
	return keys
}

// NewContext mounts keys on a fresh in-memory multistore and returns a
// context at height 1.
func NewContext(t *testing.T, keys map[string]*storetypes.KVStoreKey) sdk.Context {
	t.Helper()

	db := dbm.NewMemDB()
	cms := rootmulti.NewStore(db, log.NewNopLogger(), storemetrics.NoOpMetrics{})
	for _, key := range keys {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	require.NoError(t, cms.LoadLatestVersion())

	header := tmproto.Header{
		ChainID: ChainID,
		Height:  1,
		Time:    GenesisTime,
	}
	return sdk.NewContext(cms, header, false, log.NewNopLogger())
}

// NewCodec returns a proto codec with the standard interfaces registered.
func NewCodec() codec.Codec {
	reg := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(reg)
	return codec.NewProtoCodec(reg)
}

// Advance moves ctx forward by blocks, with d elapsing in total.
func Advance(ctx sdk.Context, blocks int64, d time.Duration) sdk.Context {
	return ctx.WithBlockHeight(ctx.BlockHeight() + blocks).WithBlockTime(ctx.BlockTime().Add(d))
}

// AtTime returns ctx with block time t, one block later.
func AtTime(ctx sdk.Context, t time.Time) sdk.Context {
	return ctx.WithBlockHeight(ctx.BlockHeight() + 1).WithBlockTime(t)
}

// AtHeight returns ctx at height h, leaving time unchanged.
func AtHeight(ctx sdk.Context, h int64) sdk.Context {
	return ctx.WithBlockHeight(h)
}

// Addr returns a deterministic 20-byte test account address.
func Addr(name string) sdk.AccAddress {
	raw := make([]byte, 20)
	copy(raw, name)
	return sdk.AccAddress(raw)
}
