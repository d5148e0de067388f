package simnet

import (
	"context"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/al-neptune/protocol/internal/ledger"
)

// ClaimTokens tracks claim-token (cxToken) holdings per cover and expiry
// bucket. Minting happens when a policy is purchased, which is outside the
// protocol core; the scenario runner and tests mint directly.
type ClaimTokens struct {
	Holdings collections.Map[collections.Triple[string, int64, sdk.AccAddress], sdkmath.Int]
	Supply   collections.Map[collections.Pair[string, int64], sdkmath.Int]
}

// NewClaimTokens creates a claim-token ledger over storeService.
func NewClaimTokens(storeService store.KVStoreService) *ClaimTokens {
	sb := collections.NewSchemaBuilder(storeService)
	return &ClaimTokens{
		Holdings: collections.NewMap(
			sb,
			collections.NewPrefix(claimTokenPrefix),
			"claim_token_holdings",
			collections.TripleKeyCodec(collections.StringKey, collections.Int64Key, sdk.AccAddressKey),
			sdk.IntValue,
		),
		Supply: collections.NewMap(
			sb,
			collections.NewPrefix(claimSupplyPrefix),
			"claim_token_supply",
			collections.PairKeyCodec(collections.StringKey, collections.Int64Key),
			sdk.IntValue,
		),
	}
}

// Mint issues claim rights for coverKey and expiry to holder.
func (c *ClaimTokens) Mint(ctx context.Context, coverKey string, expiry int64, holder sdk.AccAddress, amount sdkmath.Int) error {
	if !amount.IsPositive() {
		return errorsmod.Wrap(sdkerrors.ErrInvalidRequest, "mint amount must be positive")
	}
	if _, err := ledger.AddInt(ctx, c.Holdings, collections.Join3(coverKey, expiry, holder), amount); err != nil {
		return err
	}
	_, err := ledger.AddInt(ctx, c.Supply, collections.Join(coverKey, expiry), amount)
	return err
}

// BalanceOf returns holder's claim rights in a bucket.
func (c *ClaimTokens) BalanceOf(ctx context.Context, coverKey string, expiry int64, holder sdk.AccAddress) (sdkmath.Int, error) {
	return ledger.GetInt(ctx, c.Holdings, collections.Join3(coverKey, expiry, holder))
}

// Burn destroys claim rights held by holder.
func (c *ClaimTokens) Burn(ctx context.Context, coverKey string, expiry int64, holder sdk.AccAddress, amount sdkmath.Int) error {
	balance, err := c.BalanceOf(ctx, coverKey, expiry, holder)
	if err != nil {
		return err
	}
	if balance.LT(amount) {
		return errorsmod.Wrapf(sdkerrors.ErrInsufficientFunds, "claim tokens %s < %s", balance, amount)
	}
	if _, err := ledger.AddInt(ctx, c.Holdings, collections.Join3(coverKey, expiry, holder), amount.Neg()); err != nil {
		return err
	}
	_, err = ledger.AddInt(ctx, c.Supply, collections.Join(coverKey, expiry), amount.Neg())
	return err
}

// TotalSupply returns outstanding claim rights for a bucket.
func (c *ClaimTokens) TotalSupply(ctx context.Context, coverKey string, expiry int64) (sdkmath.Int, error) {
	return ledger.GetInt(ctx, c.Supply, collections.Join(coverKey, expiry))
}
