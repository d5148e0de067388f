package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrPoolNotFound        = errorsmod.Register(ModuleName, 2, "pool not found")
	ErrPoolClosed          = errorsmod.Register(ModuleName, 3, "pool closed")
	ErrInvalidAmount       = errorsmod.Register(ModuleName, 4, "invalid amount")
	ErrMaxStakeExceeded    = errorsmod.Register(ModuleName, 5, "max stake exceeded")
	ErrInsufficientStake   = errorsmod.Register(ModuleName, 6, "insufficient stake")
	ErrLockupActive        = errorsmod.Register(ModuleName, 7, "lockup active")
	ErrInsufficientBalance = errorsmod.Register(ModuleName, 8, "insufficient balance")
	ErrInvalidPool         = errorsmod.Register(ModuleName, 9, "invalid pool")
	ErrExternalCallFailed  = errorsmod.Register(ModuleName, 10, "external call failed")
)
