package types

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Params are the defaults applied to covers that do not override them.
type Params struct {
	DefaultReportingPeriod   time.Duration `json:"default_reporting_period"`
	DefaultClaimPeriod       time.Duration `json:"default_claim_period"`
	DefaultMinReportingStake sdkmath.Int   `json:"default_min_reporting_stake"`
	DefaultStablecoinDenom   string        `json:"default_stablecoin_denom"`
}

// DefaultParams returns default module parameters.
func DefaultParams() Params {
	return Params{
		DefaultReportingPeriod:   7 * 24 * time.Hour,
		DefaultClaimPeriod:       7 * 24 * time.Hour,
		DefaultMinReportingStake: sdkmath.NewInt(250_000_000),
		DefaultStablecoinDenom:   "uusdc",
	}
}

// Validate validates the parameters.
func (p Params) Validate() error {
	if p.DefaultReportingPeriod <= 0 {
		return fmt.Errorf("default reporting period must be positive")
	}
	if p.DefaultClaimPeriod <= 0 {
		return fmt.Errorf("default claim period must be positive")
	}
	if p.DefaultMinReportingStake.IsNil() || !p.DefaultMinReportingStake.IsPositive() {
		return fmt.Errorf("default min reporting stake must be positive")
	}
	if err := sdk.ValidateDenom(p.DefaultStablecoinDenom); err != nil {
		return fmt.Errorf("invalid default stablecoin denom: %w", err)
	}
	return nil
}
