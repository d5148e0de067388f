package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrHalted         = errorsmod.Register(ModuleName, 2, "protocol operation halted")
	ErrInvalidRequest = errorsmod.Register(ModuleName, 3, "invalid halt request")
)
