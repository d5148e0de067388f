package types

const (
	EventTypeCoverCreated       = "cover_created"
	EventTypeCoverStatusChanged = "cover_status_changed"

	AttributeKeyCoverKey = "cover_key"
	AttributeKeyOwner    = "owner"
	AttributeKeyActive   = "active"
	AttributeKeyVault    = "vault"
)
