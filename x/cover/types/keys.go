package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
)

const (
	// ModuleName is the cover registry module namespace.
	ModuleName = "cover"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName

	// VaultModuleName derives per-cover vault accounts.
	VaultModuleName = "cover_vault"
)

var (
	// CoverKeyPrefix stores cover products by key.
	CoverKeyPrefix = []byte{0x01}

	// ParamsKey stores module parameters.
	ParamsKey = []byte{0x02}
)

// VaultAddress returns the account holding coverKey's liquidity. The address
// is derived from the key alone, so any module can compute it.
func VaultAddress(coverKey string) sdk.AccAddress {
	return sdk.AccAddress(address.Module(VaultModuleName, []byte(coverKey)))
}
