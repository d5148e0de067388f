package backends

import (
	"context"

	"cosmossdk.io/core/store"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/x/strategy/types"
)

// LendingPool is a supply/withdraw lending market whose receipts track the
// supplied asset 1:1.
type LendingPool interface {
	CertificateDenom(asset string) string
	Supply(ctx context.Context, onBehalfOf sdk.AccAddress, asset sdk.Coin) error
	Withdraw(ctx context.Context, owner sdk.AccAddress, asset string, amount sdkmath.Int, recipient sdk.AccAddress) (sdkmath.Int, error)
}

// LendingStrategy lends vault float to a LendingPool.
type LendingStrategy struct {
	base
	pool LendingPool
}

var _ types.Strategy = (*LendingStrategy)(nil)

// NewLendingStrategy creates a lending strategy.
func NewLendingStrategy(storeService store.KVStoreService, cfg Config, pool LendingPool, bank types.BankKeeper) *LendingStrategy {
	return &LendingStrategy{
		base: newBase(storeService, cfg, pool.CertificateDenom(cfg.StablecoinDenom), bank),
		pool: pool,
	}
}

// Deposit supplies amount to the pool and returns the receipts to fromVault.
func (s *LendingStrategy) Deposit(ctx context.Context, coverKey string, amount sdkmath.Int, fromVault sdk.AccAddress) (sdkmath.Int, error) {
	if err := s.requireFunded(ctx, amount); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := s.pool.Supply(ctx, s.address, sdk.NewCoin(s.cfg.StablecoinDenom, amount)); err != nil {
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
func (s *LendingStrategy) Withdraw(ctx context.Context, coverKey string, sendTo sdk.AccAddress) (sdkmath.Int, error) {
	certs := s.bank.GetBalance(ctx, s.address, s.certificate).Amount
	if certs.IsPositive() {
		if _, err := s.pool.Withdraw(ctx, s.address, s.cfg.StablecoinDenom, certs, s.address); err != nil {
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

// PreviewCertificates returns underlying; receipts are 1:1.
func (s *LendingStrategy) PreviewCertificates(_ context.Context, underlying sdkmath.Int) (sdkmath.Int, error) {
	return underlying, nil
}
