package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// GetCertificateBalance returns the certificates of strategyKey held by the
// cover's vault.
func (k Keeper) GetCertificateBalance(ctx context.Context, coverKey, strategyKey string) (sdkmath.Int, error) {
	s, err := k.GetStrategy(strategyKey)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return k.bank.GetBalance(ctx, k.covers.VaultAddress(coverKey), s.GetCertificateDenom()).Amount, nil
}

// GetVaultFloat returns the stablecoin held directly by the cover's vault.
func (k Keeper) GetVaultFloat(ctx context.Context, coverKey string) sdkmath.Int {
	denom := k.covers.StablecoinDenom(ctx, coverKey)
	return k.bank.GetBalance(ctx, k.covers.VaultAddress(coverKey), denom).Amount
}
