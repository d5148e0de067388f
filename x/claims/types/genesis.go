package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// GenesisClaimRecord is a claim record in genesis form.
type GenesisClaimRecord struct {
	CoverKey     string      `json:"cover_key"`
	IncidentDate int64       `json:"incident_date"`
	Account      string      `json:"account"`
	Record       ClaimRecord `json:"record"`
}

// GenesisClaimTotals is an incident's claim totals in genesis form.
type GenesisClaimTotals struct {
	CoverKey     string      `json:"cover_key"`
	IncidentDate int64       `json:"incident_date"`
	Totals       ClaimTotals `json:"totals"`
}

// GenesisState is the claims module's genesis state.
type GenesisState struct {
	Params  Params               `json:"params"`
	Records []GenesisClaimRecord `json:"records"`
	Totals  []GenesisClaimTotals `json:"totals"`
}

// DefaultGenesis returns the default genesis state.
func DefaultGenesis() *GenesisState {
	return &GenesisState{Params: DefaultParams(), Records: []GenesisClaimRecord{}, Totals: []GenesisClaimTotals{}}
}

// Validate performs basic genesis state validation.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	for i, r := range gs.Records {
		if r.CoverKey == "" {
			return fmt.Errorf("record %d: cover key cannot be empty", i)
		}
		if _, err := sdk.AccAddressFromBech32(r.Account); err != nil {
			return fmt.Errorf("record %d: invalid account: %w", i, err)
		}
	}
	for i, t := range gs.Totals {
		if t.CoverKey == "" {
			return fmt.Errorf("totals %d: cover key cannot be empty", i)
		}
	}
	return nil
}
