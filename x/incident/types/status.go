package types

import (
	"encoding/json"
	"fmt"
)

// IncidentStatus is the lifecycle phase of an incident report.
type IncidentStatus int32

const (
	StatusNormal IncidentStatus = iota
	StatusIncidentHappened
	StatusFalseReporting
	StatusClaimable
	StatusDenied
	StatusStopped
)

var statusNames = map[IncidentStatus]string{
	StatusNormal:           "normal",
	StatusIncidentHappened: "incident_happened",
	StatusFalseReporting:   "false_reporting",
	StatusClaimable:        "claimable",
	StatusDenied:           "denied",
	StatusStopped:          "stopped",
}

func (s IncidentStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// ParseStatus parses a status name.
func ParseStatus(name string) (IncidentStatus, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return StatusNormal, fmt.Errorf("unknown incident status %q", name)
}

// MarshalJSON encodes the status by name.
func (s IncidentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *IncidentStatus) UnmarshalJSON(bz []byte) error {
	var name string
	if err := json.Unmarshal(bz, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// IsResolved reports whether voting has ended with an outcome.
func (s IncidentStatus) IsResolved() bool {
	return s == StatusClaimable || s == StatusDenied || s == StatusFalseReporting
}

// IsTerminal reports whether the incident is closed.
func (s IncidentStatus) IsTerminal() bool {
	return s == StatusStopped
}
