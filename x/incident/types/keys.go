package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
)

const (
	// ModuleName is the incident resolution module namespace.
	ModuleName = "incident"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	// IncidentKeyPrefix stores incidents by (cover, incident date).
	IncidentKeyPrefix = []byte{0x01}

	// ActiveIncidentKeyPrefix indexes the single unfinalized incident per cover.
	ActiveIncidentKeyPrefix = []byte{0x02}

	// StakeKeyPrefix stores witness stakes by (cover, incident date, account).
	StakeKeyPrefix = []byte{0x03}

	// SettlementKeyPrefix stores stake settlements by (cover, incident date).
	SettlementKeyPrefix = []byte{0x04}

	// ParamsKey stores module parameters.
	ParamsKey = []byte{0x05}
)

// EscrowAddress returns the account holding witness stakes for a cover.
func EscrowAddress(coverKey string) sdk.AccAddress {
	return sdk.AccAddress(address.Module(ModuleName, []byte(coverKey)))
}
