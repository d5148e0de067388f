package types

import (
	sdkmath "cosmossdk.io/math"
)

// Incident is one report against a cover, keyed by cover and incident date.
// Timestamps are unix seconds of block time.
type Incident struct {
	CoverKey     string         `json:"cover_key"`
	IncidentDate int64          `json:"incident_date"`
	Status       IncidentStatus `json:"status"`
	// Outcome keeps the resolved status after the incident is stopped.
	Outcome IncidentStatus `json:"outcome"`

	Reporter    string `json:"reporter"`
	ReportInfo  string `json:"report_info"`
	Disputer    string `json:"disputer,omitempty"`
	DisputeInfo string `json:"dispute_info,omitempty"`

	YesStake sdkmath.Int `json:"yes_stake"`
	NoStake  sdkmath.Int `json:"no_stake"`

	ReportedAt         int64  `json:"reported_at"`
	ResolutionDeadline int64  `json:"resolution_deadline"`
	DeadlineExtensions uint32 `json:"deadline_extensions"`

	ResolvedAt        int64 `json:"resolved_at,omitempty"`
	EmergencyResolved bool  `json:"emergency_resolved,omitempty"`
	ClaimBeginsAt     int64 `json:"claim_begins_at,omitempty"`
	ClaimExpiresAt    int64 `json:"claim_expires_at,omitempty"`
	FinalizedAt       int64 `json:"finalized_at,omitempty"`
}

// YesLeads reports whether attestations currently outweigh refutations.
// A tie counts as refutations leading.
func (i Incident) YesLeads() bool {
	return i.YesStake.GT(i.NoStake)
}

// ClaimWindowOpen reports whether now falls in [ClaimBeginsAt, ClaimExpiresAt).
func (i Incident) ClaimWindowOpen(now int64) bool {
	return i.Status == StatusClaimable && now >= i.ClaimBeginsAt && now < i.ClaimExpiresAt
}

// WitnessStake is one account's attest (Yes) and refute (No) stake on an
// incident.
type WitnessStake struct {
	Yes       sdkmath.Int `json:"yes"`
	No        sdkmath.Int `json:"no"`
	Withdrawn bool        `json:"withdrawn,omitempty"`
}

// NewWitnessStake returns an empty stake.
func NewWitnessStake() WitnessStake {
	return WitnessStake{Yes: sdkmath.ZeroInt(), No: sdkmath.ZeroInt()}
}

// Settlement records how an incident's losing stake was split.
type Settlement struct {
	WinningTotal       sdkmath.Int `json:"winning_total"`
	LosingTotal        sdkmath.Int `json:"losing_total"`
	PlatformFee        sdkmath.Int `json:"platform_fee"`
	ReporterCommission sdkmath.Int `json:"reporter_commission"`
	Distributable      sdkmath.Int `json:"distributable"`
	Settled            bool        `json:"settled"`
	SettledAt          int64       `json:"settled_at"`
}

// RewardFor returns the share of the distributable pool owed to a winning
// stake, truncated toward zero.
func (s Settlement) RewardFor(winningStake sdkmath.Int) sdkmath.Int {
	if !s.WinningTotal.IsPositive() || !winningStake.IsPositive() {
		return sdkmath.ZeroInt()
	}
	return s.Distributable.Mul(winningStake).Quo(s.WinningTotal)
}
