package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// AccessKeeper checks role membership.
type AccessKeeper interface {
	EnsureRole(ctx context.Context, role string, account sdk.AccAddress) error
}
