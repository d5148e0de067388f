package types

import "fmt"

// GenesisState is the pool module's genesis state.
type GenesisState struct {
	Params Params `json:"params"`
	Pools  []Pool `json:"pools"`
}

// DefaultGenesis returns the default genesis state.
func DefaultGenesis() *GenesisState {
	return &GenesisState{Params: DefaultParams(), Pools: []Pool{}}
}

// Validate performs basic genesis state validation.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	seen := make(map[string]struct{}, len(gs.Pools))
	for i, pool := range gs.Pools {
		if err := pool.Validate(); err != nil {
			return fmt.Errorf("invalid pool at index %d: %w", i, err)
		}
		if _, ok := seen[pool.Key]; ok {
			return fmt.Errorf("duplicate pool %s", pool.Key)
		}
		seen[pool.Key] = struct{}{}
	}
	return nil
}
