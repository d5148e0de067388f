package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrStrategyNotFound         = errorsmod.Register(ModuleName, 2, "strategy not found")
	ErrDuplicateStrategy        = errorsmod.Register(ModuleName, 3, "duplicate strategy")
	ErrInvalidWeights           = errorsmod.Register(ModuleName, 4, "invalid strategy weights")
	ErrInsufficientVaultBalance = errorsmod.Register(ModuleName, 5, "insufficient vault balance")
	ErrStrandedBalance          = errorsmod.Register(ModuleName, 6, "strategy retained a balance")
	ErrExternalCallFailed       = errorsmod.Register(ModuleName, 7, "external call failed")
	ErrInvalidAmount            = errorsmod.Register(ModuleName, 8, "invalid amount")
	ErrCoverNotFound            = errorsmod.Register(ModuleName, 9, "cover not found")
	ErrInvalidStrategy          = errorsmod.Register(ModuleName, 10, "invalid strategy")
)
