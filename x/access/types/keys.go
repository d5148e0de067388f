package types

const (
	// ModuleName is the access-control module namespace.
	ModuleName = "access"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName
)

var (
	// RoleAdminKeyPrefix stores the admin role of each role.
	RoleAdminKeyPrefix = []byte{0x01}

	// RoleMemberKeyPrefix stores (role, account) memberships.
	RoleMemberKeyPrefix = []byte{0x02}
)
