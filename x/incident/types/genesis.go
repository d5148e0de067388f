package types

import "fmt"

// GenesisState is the incident module's genesis state. Open incidents are
// exported with their witness stakes so a restarted chain resumes voting.
type GenesisState struct {
	Params      Params              `json:"params"`
	Incidents   []Incident          `json:"incidents"`
	Stakes      []GenesisStake      `json:"stakes"`
	Settlements []GenesisSettlement `json:"settlements"`
}

// GenesisStake is a witness stake in genesis form.
type GenesisStake struct {
	CoverKey     string       `json:"cover_key"`
	IncidentDate int64        `json:"incident_date"`
	Account      string       `json:"account"`
	Stake        WitnessStake `json:"stake"`
}

// GenesisSettlement is a settled incident's split in genesis form.
type GenesisSettlement struct {
	CoverKey     string     `json:"cover_key"`
	IncidentDate int64      `json:"incident_date"`
	Settlement   Settlement `json:"settlement"`
}

// DefaultGenesis returns the default genesis state.
func DefaultGenesis() *GenesisState {
	return &GenesisState{Params: DefaultParams(), Incidents: []Incident{}, Stakes: []GenesisStake{}, Settlements: []GenesisSettlement{}}
}

// Validate performs basic genesis state validation.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	active := make(map[string]int64)
	for _, inc := range gs.Incidents {
		if inc.CoverKey == "" {
			return fmt.Errorf("incident cover key cannot be empty")
		}
		if inc.Status.IsTerminal() || inc.Status == StatusNormal {
			continue
		}
		if prev, ok := active[inc.CoverKey]; ok {
			return fmt.Errorf("cover %s has two active incidents (%d, %d)", inc.CoverKey, prev, inc.IncidentDate)
		}
		active[inc.CoverKey] = inc.IncidentDate
	}
	return nil
}
