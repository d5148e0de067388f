package types

const (
	// ModuleName is the strategy allocator module namespace.
	ModuleName = "strategy"

	// StoreKey is the allocator KV store key.
	StoreKey = ModuleName

	// BackendStoreKey is the KV store key shared by strategy backends for
	// their own per-cover counters.
	BackendStoreKey = "strategy_backends"
)

var (
	// CoverStrategiesKeyPrefix stores the ordered allocation list per cover.
	CoverStrategiesKeyPrefix = []byte{0x01}

	// CoverTotalsKeyPrefix stores cumulative deposit/withdraw totals per cover.
	CoverTotalsKeyPrefix = []byte{0x02}

	// BackendInfoKeyPrefix stores backend counters by (strategy, cover).
	BackendInfoKeyPrefix = []byte{0x01}
)
