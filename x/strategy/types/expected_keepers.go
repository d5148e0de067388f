package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// AccessKeeper checks role membership.
type AccessKeeper interface {
	EnsureRole(ctx context.Context, role string, account sdk.AccAddress) error
}

// BankKeeper moves vault and strategy balances.
type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoins(ctx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error
}

// CoverKeeper resolves cover vaults.
type CoverKeeper interface {
	HasCover(ctx context.Context, coverKey string) bool
	VaultAddress(coverKey string) sdk.AccAddress
	StablecoinDenom(ctx context.Context, coverKey string) string
}

// HaltChecker reports emergency halts.
type HaltChecker interface {
	EnsureNotHalted(ctx context.Context, scope string) error
}
