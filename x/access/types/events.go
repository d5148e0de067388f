package types

// Event types and attribute keys emitted by the access module.
const (
	EventTypeRoleGranted      = "role_granted"
	EventTypeRoleRevoked      = "role_revoked"
	EventTypeRoleAdminChanged = "role_admin_changed"

	AttributeKeyRole      = "role"
	AttributeKeyAdminRole = "admin_role"
	AttributeKeyAccount   = "account"
)
