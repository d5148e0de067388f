package types

const (
	// ModuleName is the claims settlement module namespace.
	ModuleName = "claims"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	// ClaimRecordKeyPrefix stores cumulative claims by (cover, incident, account).
	ClaimRecordKeyPrefix = []byte{0x01}

	// ClaimTotalsKeyPrefix stores per-incident claim totals.
	ClaimTotalsKeyPrefix = []byte{0x02}

	// ParamsKey stores module params.
	ParamsKey = []byte{0x03}
)
