package simnet

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/al-neptune/protocol/internal/ledger"
)

// LendingPool is a supply/withdraw lending market. Supplying an asset mints
// a receipt token 1:1; withdrawing burns receipts and pays the asset plus
// InterestBps of simple interest.
type LendingPool struct {
	tokens  *TokenLedger
	address sdk.AccAddress

	// InterestBps is paid on top of principal at withdrawal.
	InterestBps uint32
	// Fail makes every call return an error.
	Fail bool
}

// NewLendingPool creates a lending pool backed by tokens.
func NewLendingPool(tokens *TokenLedger) *LendingPool {
	return &LendingPool{
		tokens:  tokens,
		address: sdk.AccAddress(address.Module("simnet_lending_pool")),
	}
}

// Address returns the pool's reserve account.
func (p *LendingPool) Address() sdk.AccAddress {
	return p.address
}

// CertificateDenom returns the receipt denom minted for asset.
func (p *LendingPool) CertificateDenom(asset string) string {
	return "a" + asset
}

// Supply pulls asset from onBehalfOf and mints receipts to it.
func (p *LendingPool) Supply(ctx context.Context, onBehalfOf sdk.AccAddress, asset sdk.Coin) error {
	if p.Fail {
		return errorsmod.Wrap(sdkerrors.ErrInvalidRequest, "lending pool unavailable")
	}
	if err := p.tokens.SendCoins(ctx, onBehalfOf, p.address, sdk.NewCoins(asset)); err != nil {
		return err
	}
	return p.tokens.MintCoins(ctx, onBehalfOf, sdk.NewCoins(sdk.NewCoin(p.CertificateDenom(asset.Denom), asset.Amount)))
}

// Withdraw burns amount receipts from owner and pays principal plus
// interest to recipient.
func (p *LendingPool) Withdraw(ctx context.Context, owner sdk.AccAddress, asset string, amount sdkmath.Int, recipient sdk.AccAddress) (sdkmath.Int, error) {
	if p.Fail {
		return sdkmath.ZeroInt(), errorsmod.Wrap(sdkerrors.ErrInvalidRequest, "lending pool unavailable")
	}
	if err := p.tokens.BurnCoins(ctx, owner, sdk.NewCoins(sdk.NewCoin(p.CertificateDenom(asset), amount))); err != nil {
		return sdkmath.ZeroInt(), err
	}
	interest := ledger.MulBps(amount, p.InterestBps)
	if interest.IsPositive() {
		if err := p.tokens.MintCoins(ctx, p.address, sdk.NewCoins(sdk.NewCoin(asset, interest))); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	out := amount.Add(interest)
	if err := p.tokens.SendCoins(ctx, p.address, recipient, sdk.NewCoins(sdk.NewCoin(asset, out))); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return out, nil
}
