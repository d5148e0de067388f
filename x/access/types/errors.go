package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrPermissionDenied = errorsmod.Register(ModuleName, 2, "permission denied")
	ErrInvalidRole      = errorsmod.Register(ModuleName, 3, "invalid role")
	ErrInvalidAccount   = errorsmod.Register(ModuleName, 4, "invalid account")
)
