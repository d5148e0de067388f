package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Params holds pool module parameters.
type Params struct {
	// TreasuryAddress receives platform fees on harvested rewards.
	TreasuryAddress string `json:"treasury_address"`
}

// DefaultParams returns default module parameters. The treasury must be set
// at genesis.
func DefaultParams() Params {
	return Params{}
}

// Validate validates the parameters.
func (p Params) Validate() error {
	if p.TreasuryAddress == "" {
		return nil
	}
	if _, err := sdk.AccAddressFromBech32(p.TreasuryAddress); err != nil {
		return fmt.Errorf("invalid treasury address: %w", err)
	}
	return nil
}
