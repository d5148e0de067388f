package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrCoverNotFound      = errorsmod.Register(ModuleName, 2, "cover not found")
	ErrCoverAlreadyExists = errorsmod.Register(ModuleName, 3, "cover already exists")
	ErrInvalidCover       = errorsmod.Register(ModuleName, 4, "invalid cover")
)
