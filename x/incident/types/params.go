package types

import (
	"fmt"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
)

// Params holds incident module parameters.
type Params struct {
	// StakeDenom is the token witnesses stake.
	StakeDenom string `json:"stake_denom"`
	// PlatformFeeBps of the losing stake goes to the treasury.
	PlatformFeeBps uint32 `json:"platform_fee_bps"`
	// ReporterCommissionBps of the losing stake goes to the first staker of
	// the winning side.
	ReporterCommissionBps uint32 `json:"reporter_commission_bps"`
	// A stake that flips the leading side within SnipingWindow of the
	// deadline extends it by DeadlineExtension, at most
	// MaxDeadlineExtensions times. A zero extension fixes the deadline.
	SnipingWindow         time.Duration `json:"sniping_window"`
	DeadlineExtension     time.Duration `json:"deadline_extension"`
	MaxDeadlineExtensions uint32        `json:"max_deadline_extensions"`
	TreasuryAddress       string        `json:"treasury_address"`
}

// DefaultParams returns default module parameters.
func DefaultParams() Params {
	return Params{
		StakeDenom:            "unpm",
		PlatformFeeBps:        1000,
		ReporterCommissionBps: 500,
		SnipingWindow:         time.Hour,
		DeadlineExtension:     time.Hour,
		MaxDeadlineExtensions: 3,
	}
}

// Validate validates the parameters.
func (p Params) Validate() error {
	if err := sdk.ValidateDenom(p.StakeDenom); err != nil {
		return fmt.Errorf("invalid stake denom: %w", err)
	}
	if int64(p.PlatformFeeBps)+int64(p.ReporterCommissionBps) > ledger.BpsBase {
		return fmt.Errorf("platform fee and reporter commission exceed %d bps", ledger.BpsBase)
	}
	if p.SnipingWindow < 0 || p.DeadlineExtension < 0 {
		return fmt.Errorf("sniping window and deadline extension cannot be negative")
	}
	if p.TreasuryAddress != "" {
		if _, err := sdk.AccAddressFromBech32(p.TreasuryAddress); err != nil {
			return fmt.Errorf("invalid treasury address: %w", err)
		}
	}
	return nil
}
