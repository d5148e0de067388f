package types

import errorsmod "cosmossdk.io/errors"

var (
	ErrNotClaimable                  = errorsmod.Register(ModuleName, 2, "incident is not claimable")
	ErrClaimWindowClosed             = errorsmod.Register(ModuleName, 3, "claim window closed")
	ErrPolicyExpired                 = errorsmod.Register(ModuleName, 4, "policy expired before the incident")
	ErrInsufficientClaimTokenBalance = errorsmod.Register(ModuleName, 5, "insufficient claim token balance")
	ErrInsufficientLiquidity         = errorsmod.Register(ModuleName, 6, "insufficient vault liquidity")
	ErrExternalCallFailed            = errorsmod.Register(ModuleName, 7, "external call failed")
	ErrInvalidAmount                 = errorsmod.Register(ModuleName, 8, "invalid amount")
	ErrClaimsClosed                  = errorsmod.Register(ModuleName, 9, "claims closed for incident")
	ErrClaimsAlreadyPaid             = errorsmod.Register(ModuleName, 10, "claims already paid for incident")
)
