package types

const (
	// ModuleName is the emergency halt module namespace.
	ModuleName = "crisis"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	// HaltStateKey stores the active halt state.
	HaltStateKey = []byte{0x01}
)
