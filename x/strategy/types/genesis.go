package types

import "fmt"

// CoverAllocations is the genesis form of a cover's strategy list.
type CoverAllocations struct {
	CoverKey    string       `json:"cover_key"`
	Allocations []Allocation `json:"allocations"`
}

// GenesisState is the strategy module's genesis state. Cumulative totals are
// not carried across genesis; allocations restart from the vault float.
type GenesisState struct {
	Covers []CoverAllocations `json:"covers"`
}

// DefaultGenesis returns the default genesis state.
func DefaultGenesis() *GenesisState {
	return &GenesisState{Covers: []CoverAllocations{}}
}

// Validate performs basic genesis state validation.
func (gs GenesisState) Validate() error {
	seen := make(map[string]struct{}, len(gs.Covers))
	for _, c := range gs.Covers {
		if c.CoverKey == "" {
			return fmt.Errorf("cover key cannot be empty")
		}
		if _, ok := seen[c.CoverKey]; ok {
			return fmt.Errorf("duplicate cover %s", c.CoverKey)
		}
		seen[c.CoverKey] = struct{}{}
		if err := ValidateAllocations(c.Allocations); err != nil {
			return fmt.Errorf("cover %s: %w", c.CoverKey, err)
		}
	}
	return nil
}
