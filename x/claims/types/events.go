package types

// Event types and attribute keys emitted by the claims module.
const (
	EventTypeClaimed      = "claim_paid"
	EventTypeClaimsClosed = "claims_closed"

	AttributeKeyCoverKey     = "cover_key"
	AttributeKeyIncidentDate = "incident_date"
	AttributeKeyClaimant     = "claimant"
	AttributeKeyExpiry       = "expiry"
	AttributeKeyAmount       = "amount"
	AttributeKeyPayout       = "payout"
	AttributeKeyFee          = "fee"
	AttributeKeyRecalled     = "recalled"
	AttributeKeyOutcome      = "outcome"
)
