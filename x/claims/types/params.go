package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	DefaultPayoutRatioBps uint32 = 10000
	DefaultPlatformFeeBps uint32 = 650
)

// Params holds claims module parameters.
type Params struct {
	// PayoutRatioBps is the stablecoin paid per claim token, in bps.
	PayoutRatioBps uint32 `json:"payout_ratio_bps"`
	// PlatformFeeBps is taken from each payout for the treasury.
	PlatformFeeBps  uint32 `json:"platform_fee_bps"`
	TreasuryAddress string `json:"treasury_address"`
}

// DefaultParams returns default module parameters.
func DefaultParams() Params {
	return Params{
		PayoutRatioBps: DefaultPayoutRatioBps,
		PlatformFeeBps: DefaultPlatformFeeBps,
	}
}

// Validate validates the parameters.
func (p Params) Validate() error {
	if p.PayoutRatioBps == 0 || p.PayoutRatioBps > 10000 {
		return fmt.Errorf("payout ratio must be in (0, 10000] bps, got %d", p.PayoutRatioBps)
	}
	if p.PlatformFeeBps > 10000 {
		return fmt.Errorf("platform fee cannot exceed 10000 bps, got %d", p.PlatformFeeBps)
	}
	if p.TreasuryAddress != "" {
		if _, err := sdk.AccAddressFromBech32(p.TreasuryAddress); err != nil {
			return fmt.Errorf("invalid treasury address: %w", err)
		}
	}
	return nil
}
