package types

// Event types and attribute keys emitted by the strategy module.
const (
	EventTypeStrategiesSet = "strategy_allocations_set"
	EventTypeAllocated     = "strategy_allocated"
	EventTypeRecalled      = "strategy_recalled"
	EventTypeDrained       = "strategy_drained"

	AttributeKeyCoverKey     = "cover_key"
	AttributeKeyStrategy     = "strategy"
	AttributeKeyAmount       = "amount"
	AttributeKeyCertificates = "certificates"
	AttributeKeyWeights      = "weights"
)
