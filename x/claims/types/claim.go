package types

import (
	sdkmath "cosmossdk.io/math"
)

// ClaimRecord is an account's cumulative claims against one incident.
// Claimed counts burned claim tokens; PaidOut is the gross payout taken from
// the vault, of which Fee went to the treasury.
type ClaimRecord struct {
	Claimed     sdkmath.Int `json:"claimed"`
	PaidOut     sdkmath.Int `json:"paid_out"`
	Fee         sdkmath.Int `json:"fee"`
	LastClaimAt int64       `json:"last_claim_at"`
}

// NewClaimRecord returns an empty record.
func NewClaimRecord() ClaimRecord {
	return ClaimRecord{Claimed: sdkmath.ZeroInt(), PaidOut: sdkmath.ZeroInt(), Fee: sdkmath.ZeroInt()}
}

// Add accumulates one claim.
func (r ClaimRecord) Add(res ClaimResult, now int64) ClaimRecord {
	r.Claimed = r.Claimed.Add(res.Burned)
	r.PaidOut = r.PaidOut.Add(res.Payout)
	r.Fee = r.Fee.Add(res.Fee)
	r.LastClaimAt = now
	return r
}

// ClaimTotals aggregates claims against one incident. Closed is set when
// the incident is finalized.
type ClaimTotals struct {
	ClaimRecord
	Claimants uint32 `json:"claimants"`
	Closed    bool   `json:"closed,omitempty"`
	ClosedAt  int64  `json:"closed_at,omitempty"`
}

// NewClaimTotals returns empty totals.
func NewClaimTotals() ClaimTotals {
	return ClaimTotals{ClaimRecord: NewClaimRecord()}
}

// ClaimResult describes one paid claim.
type ClaimResult struct {
	Burned   sdkmath.Int `json:"burned"`
	Payout   sdkmath.Int `json:"payout"`
	Fee      sdkmath.Int `json:"fee"`
	Net      sdkmath.Int `json:"net"`
	Recalled sdkmath.Int `json:"recalled"`
}

// ComputePayout splits a claim of amount claim tokens into the gross
// payout and the platform fee taken from it.
func ComputePayout(amount sdkmath.Int, payoutRatioBps, feeBps uint32) (payout, fee sdkmath.Int) {
	payout = amount.MulRaw(int64(payoutRatioBps)).QuoRaw(10000)
	fee = payout.MulRaw(int64(feeBps)).QuoRaw(10000)
	return payout, fee
}
