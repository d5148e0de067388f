package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrIncidentNotFound        = errorsmod.Register(ModuleName, 2, "incident not found")
	ErrCoverInactiveOrNotFound = errorsmod.Register(ModuleName, 3, "cover inactive or not found")
	ErrReportAlreadyActive     = errorsmod.Register(ModuleName, 4, "report already active")
	ErrInvalidState            = errorsmod.Register(ModuleName, 5, "invalid incident state")
	ErrWindowClosed            = errorsmod.Register(ModuleName, 6, "reporting window closed")
	ErrWindowStillOpen         = errorsmod.Register(ModuleName, 7, "window still open")
	ErrInsufficientStake       = errorsmod.Register(ModuleName, 8, "insufficient stake")
	ErrInsufficientBalance     = errorsmod.Register(ModuleName, 9, "insufficient balance")
	ErrNothingToUnstake        = errorsmod.Register(ModuleName, 10, "nothing to unstake")
	ErrExternalCallFailed      = errorsmod.Register(ModuleName, 11, "external call failed")
	ErrInvalidAmount           = errorsmod.Register(ModuleName, 12, "invalid amount")
)
