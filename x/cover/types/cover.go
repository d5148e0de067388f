package types

import (
	"fmt"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MaxCoverKeyLength bounds cover keys, which are embedded in every
// composite store key.
const MaxCoverKeyLength = 64

// Cover is an insurable product. Zero durations and a nil minimum stake
// fall back to module params.
type Cover struct {
	Key               string        `json:"key"`
	Name              string        `json:"name"`
	Owner             string        `json:"owner"`
	StablecoinDenom   string        `json:"stablecoin_denom"`
	ReportingPeriod   time.Duration `json:"reporting_period"`
	ClaimPeriod       time.Duration `json:"claim_period"`
	MinReportingStake sdkmath.Int   `json:"min_reporting_stake"`
	ExpiresAtUnix     int64         `json:"expires_at_unix,omitempty"`
	Active            bool          `json:"active"`
	CreatedAtUnix     int64         `json:"created_at_unix"`
}

// ValidateCoverKey checks a cover key.
func ValidateCoverKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("cover key cannot be empty")
	}
	if len(key) > MaxCoverKeyLength {
		return fmt.Errorf("cover key exceeds %d bytes", MaxCoverKeyLength)
	}
	for _, r := range key {
		if !(r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return fmt.Errorf("cover key %q contains invalid character %q", key, r)
		}
	}
	return nil
}

// Validate performs stateless validation.
func (c Cover) Validate() error {
	if err := ValidateCoverKey(c.Key); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("cover name cannot be empty")
	}
	if _, err := sdk.AccAddressFromBech32(c.Owner); err != nil {
		return fmt.Errorf("invalid cover owner: %w", err)
	}
	if c.StablecoinDenom != "" {
		if err := sdk.ValidateDenom(c.StablecoinDenom); err != nil {
			return fmt.Errorf("invalid stablecoin denom: %w", err)
		}
	}
	if c.ReportingPeriod < 0 || c.ClaimPeriod < 0 {
		return fmt.Errorf("cover periods cannot be negative")
	}
	if !c.MinReportingStake.IsNil() && c.MinReportingStake.IsNegative() {
		return fmt.Errorf("min reporting stake cannot be negative")
	}
	if c.ExpiresAtUnix < 0 {
		return fmt.Errorf("cover expiry cannot be negative")
	}
	return nil
}

// IsActiveAt reports whether the cover accepts incident reports at t.
func (c Cover) IsActiveAt(t time.Time) bool {
	if !c.Active {
		return false
	}
	return c.ExpiresAtUnix == 0 || t.Unix() < c.ExpiresAtUnix
}
