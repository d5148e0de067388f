package simnet

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// MoneyMarket mints exchange-rate priced receipts against an underlying
// asset. One receipt redeems for Rate units of underlying.
type MoneyMarket struct {
	tokens     *TokenLedger
	address    sdk.AccAddress
	underlying string

	Rate sdkmath.LegacyDec
	Fail bool
}

// NewMoneyMarket creates a market for underlying with a 1:1 starting rate.
func NewMoneyMarket(tokens *TokenLedger, underlying string) *MoneyMarket {
	return &MoneyMarket{
		tokens:     tokens,
		address:    sdk.AccAddress(address.Module("simnet_money_market", []byte(underlying))),
		underlying: underlying,
		Rate:       sdkmath.LegacyOneDec(),
	}
}

// Address returns the market's reserve account.
func (m *MoneyMarket) Address() sdk.AccAddress {
	return m.address
}

// UnderlyingDenom returns the asset the market lends.
func (m *MoneyMarket) UnderlyingDenom() string {
	return m.underlying
}

// CertificateDenom returns the receipt denom.
func (m *MoneyMarket) CertificateDenom() string {
	return "c" + m.underlying
}

// ExchangeRate returns underlying per receipt.
func (m *MoneyMarket) ExchangeRate(context.Context) sdkmath.LegacyDec {
	return m.Rate
}

// Mint pulls underlying from minter and mints underlying/Rate receipts.
func (m *MoneyMarket) Mint(ctx context.Context, minter sdk.AccAddress, underlying sdkmath.Int) (sdkmath.Int, error) {
	if m.Fail {
		return sdkmath.ZeroInt(), errorsmod.Wrap(sdkerrors.ErrInvalidRequest, "money market unavailable")
	}
	receipts := sdkmath.LegacyNewDecFromInt(underlying).Quo(m.Rate).TruncateInt()
	if !receipts.IsPositive() {
		return sdkmath.ZeroInt(), errorsmod.Wrap(sdkerrors.ErrInvalidRequest, "mint amount below one receipt")
	}
	if err := m.tokens.SendCoins(ctx, minter, m.address, sdk.NewCoins(sdk.NewCoin(m.underlying, underlying))); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := m.tokens.MintCoins(ctx, minter, sdk.NewCoins(sdk.NewCoin(m.CertificateDenom(), receipts))); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return receipts, nil
}

// Redeem burns receipts from redeemer and pays receipts*Rate underlying.
// Interest not yet held by the market is minted into its reserve first.
func (m *MoneyMarket) Redeem(ctx context.Context, redeemer sdk.AccAddress, receipts sdkmath.Int) (sdkmath.Int, error) {
	if m.Fail {
		return sdkmath.ZeroInt(), errorsmod.Wrap(sdkerrors.ErrInvalidRequest, "money market unavailable")
	}
	if err := m.tokens.BurnCoins(ctx, redeemer, sdk.NewCoins(sdk.NewCoin(m.CertificateDenom(), receipts))); err != nil {
		return sdkmath.ZeroInt(), err
	}
	out := sdkmath.LegacyNewDecFromInt(receipts).Mul(m.Rate).TruncateInt()
	reserve := m.tokens.GetBalance(ctx, m.address, m.underlying).Amount
	if reserve.LT(out) {
		if err := m.tokens.MintCoins(ctx, m.address, sdk.NewCoins(sdk.NewCoin(m.underlying, out.Sub(reserve)))); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	if err := m.tokens.SendCoins(ctx, m.address, redeemer, sdk.NewCoins(sdk.NewCoin(m.underlying, out))); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return out, nil
}
