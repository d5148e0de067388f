package backends

import (
	"context"
	"fmt"

	"cosmossdk.io/core/store"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/x/strategy/types"
)

// MoneyMarket mints receipts priced by an exchange rate of underlying per
// receipt.
type MoneyMarket interface {
	CertificateDenom() string
	ExchangeRate(ctx context.Context) sdkmath.LegacyDec
	Mint(ctx context.Context, minter sdk.AccAddress, underlying sdkmath.Int) (sdkmath.Int, error)
	Redeem(ctx context.Context, redeemer sdk.AccAddress, receipts sdkmath.Int) (sdkmath.Int, error)
}

// MoneyMarketStrategy lends vault float to a MoneyMarket.
type MoneyMarketStrategy struct {
	base
	market MoneyMarket
}

var _ types.Strategy = (*MoneyMarketStrategy)(nil)

// NewMoneyMarketStrategy creates a money-market strategy.
func NewMoneyMarketStrategy(storeService store.KVStoreService, cfg Config, market MoneyMarket, bank types.BankKeeper) *MoneyMarketStrategy {
	return &MoneyMarketStrategy{
		base:   newBase(storeService, cfg, market.CertificateDenom(), bank),
		market: market,
	}
}

// Deposit mints receipts for amount and returns them to fromVault.
func (s *MoneyMarketStrategy) Deposit(ctx context.Context, coverKey string, amount sdkmath.Int, fromVault sdk.AccAddress) (sdkmath.Int, error) {
	if err := s.requireFunded(ctx, amount); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if _, err := s.market.Mint(ctx, s.address, amount); err != nil {
		return sdkmath.ZeroInt(), err
	}
	// Dust below one receipt stays with the market; any underlying the
	// market did not take goes back to the vault with the receipts.
	if _, err := s.sweep(ctx, s.cfg.StablecoinDenom, fromVault); err != nil {
		return sdkmath.ZeroInt(), err
	}
	certs, err := s.sweep(ctx, s.certificate, fromVault)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := s.recordDeposit(ctx, coverKey, amount); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return certs, nil
}

// Withdraw redeems every receipt the strategy holds and sends the proceeds
// to sendTo.
func (s *MoneyMarketStrategy) Withdraw(ctx context.Context, coverKey string, sendTo sdk.AccAddress) (sdkmath.Int, error) {
	receipts := s.bank.GetBalance(ctx, s.address, s.certificate).Amount
	if receipts.IsPositive() {
		if _, err := s.market.Redeem(ctx, s.address, receipts); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	out, err := s.sweep(ctx, s.cfg.StablecoinDenom, sendTo)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := s.recordWithdrawal(ctx, coverKey, out); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return out, nil
}

// PreviewCertificates returns the receipts that redeem for at least
// underlying at the current exchange rate.
func (s *MoneyMarketStrategy) PreviewCertificates(ctx context.Context, underlying sdkmath.Int) (sdkmath.Int, error) {
	rate := s.market.ExchangeRate(ctx)
	if !rate.IsPositive() {
		return sdkmath.ZeroInt(), fmt.Errorf("money market %s has exchange rate %s", s.cfg.Key, rate)
	}
	return sdkmath.LegacyNewDecFromInt(underlying).Quo(rate).Ceil().TruncateInt(), nil
}
