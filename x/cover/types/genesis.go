package types

import "fmt"

// GenesisState is the cover module's genesis state.
type GenesisState struct {
	Params Params  `json:"params"`
	Covers []Cover `json:"covers"`
}

// DefaultGenesis returns the default genesis state.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params: DefaultParams(),
		Covers: []Cover{},
	}
}

// Validate performs basic genesis state validation.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	seen := make(map[string]struct{}, len(gs.Covers))
	for i, cover := range gs.Covers {
		if err := cover.Validate(); err != nil {
			return fmt.Errorf("invalid cover at index %d: %w", i, err)
		}
		if _, ok := seen[cover.Key]; ok {
			return fmt.Errorf("duplicate cover %s", cover.Key)
		}
		seen[cover.Key] = struct{}{}
	}
	return nil
}
