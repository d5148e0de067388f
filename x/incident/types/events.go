package types

// Event types and attribute keys emitted by the incident module.
const (
	EventTypeReported          = "incident_reported"
	EventTypeAttested          = "incident_attested"
	EventTypeRefuted           = "incident_refuted"
	EventTypeDeadlineExtended  = "incident_deadline_extended"
	EventTypeResolved          = "incident_resolved"
	EventTypeEmergencyResolved = "incident_emergency_resolved"
	EventTypeStakesSettled     = "incident_stakes_settled"
	EventTypeUnstaked          = "incident_unstaked"
	EventTypeFinalized         = "incident_finalized"

	AttributeKeyCoverKey      = "cover_key"
	AttributeKeyIncidentDate  = "incident_date"
	AttributeKeyAccount       = "account"
	AttributeKeyAmount        = "amount"
	AttributeKeyInfo          = "info"
	AttributeKeyStatus        = "status"
	AttributeKeyDeadline      = "resolution_deadline"
	AttributeKeyClaimBegins   = "claim_begins_at"
	AttributeKeyClaimExpires  = "claim_expires_at"
	AttributeKeyYesStake      = "yes_stake"
	AttributeKeyNoStake       = "no_stake"
	AttributeKeyPlatformFee   = "platform_fee"
	AttributeKeyCommission    = "reporter_commission"
	AttributeKeyDistributable = "distributable"
	AttributeKeyPayout        = "payout"
)
