package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// AccessKeeper checks role membership.
type AccessKeeper interface {
	EnsureRole(ctx context.Context, role string, account sdk.AccAddress) error
}

// BankKeeper moves staking and reward tokens.
type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoins(ctx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error
}

// PriceOracle quotes swaps like an exchange router. The last element of the
// result is the quoted output. Quotes for tokens without a liquid market on
// the oracle venue are unreliable.
type PriceOracle interface {
	GetAmountsOut(ctx context.Context, amountIn sdkmath.Int, path []string) ([]sdkmath.Int, error)
}

// HaltChecker reports emergency halts.
type HaltChecker interface {
	EnsureNotHalted(ctx context.Context, scope string) error
}
