package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
)

const (
	// ModuleName is the staking-pool module namespace.
	ModuleName = "pool"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName

	// DefaultPriceCacheSize bounds the oracle quote cache.
	DefaultPriceCacheSize = 256
)

var (
	// PoolKeyPrefix stores pools by key.
	PoolKeyPrefix = []byte{0x01}

	// StakeKeyPrefix stores (pool, account) stake records.
	StakeKeyPrefix = []byte{0x02}

	// ParamsKey stores module parameters.
	ParamsKey = []byte{0x03}
)

// PoolAddress returns the account escrowing a pool's stake and rewards.
func PoolAddress(poolKey string) sdk.AccAddress {
	return sdk.AccAddress(address.Module(ModuleName, []byte(poolKey)))
}
