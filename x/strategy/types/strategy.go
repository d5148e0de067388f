package types

import (
	"context"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
)

// Strategy is a yield backend a cover vault can lend its float to.
//
// Before Deposit is called the allocator has moved amount of stablecoin to
// GetAddress(); the strategy must deposit it and return every certificate it
// received to fromVault. Before Withdraw the allocator has moved certificates
// to GetAddress(); the strategy must redeem them and send all underlying to
// sendTo. After either call the strategy address must hold neither token.
type Strategy interface {
	GetKey() string
	GetName() string
	GetWeight() uint32
	GetStablecoinDenom() string
	GetCertificateDenom() string
	GetAddress() sdk.AccAddress

	Deposit(ctx context.Context, coverKey string, amount sdkmath.Int, fromVault sdk.AccAddress) (sdkmath.Int, error)
	Withdraw(ctx context.Context, coverKey string, sendTo sdk.AccAddress) (sdkmath.Int, error)
	GetInfo(ctx context.Context, coverKey string) (StrategyInfo, error)

	// PreviewCertificates returns the certificates needed to redeem at least
	// underlying of stablecoin.
	PreviewCertificates(ctx context.Context, underlying sdkmath.Int) (sdkmath.Int, error)
}

// StrategyInfo holds a strategy's cumulative flows for one cover.
type StrategyInfo struct {
	Deposited sdkmath.Int `json:"deposited"`
	Withdrawn sdkmath.Int `json:"withdrawn"`
}

// NewStrategyInfo returns zeroed counters.
func NewStrategyInfo() StrategyInfo {
	return StrategyInfo{Deposited: sdkmath.ZeroInt(), Withdrawn: sdkmath.ZeroInt()}
}

// CoverTotals holds the allocator's cumulative flows for one cover. Both
// counters only grow.
type CoverTotals struct {
	Deposited sdkmath.Int `json:"deposited"`
	Withdrawn sdkmath.Int `json:"withdrawn"`
}

// NewCoverTotals returns zeroed totals.
func NewCoverTotals() CoverTotals {
	return CoverTotals{Deposited: sdkmath.ZeroInt(), Withdrawn: sdkmath.ZeroInt()}
}

// Outstanding returns deposited minus withdrawn.
func (t CoverTotals) Outstanding() sdkmath.Int {
	return t.Deposited.Sub(t.Withdrawn)
}

// Allocation assigns a share of a cover's allocations to a strategy.
type Allocation struct {
	StrategyKey string `json:"strategy_key"`
	WeightBps   uint32 `json:"weight_bps"`
}

// ValidateAllocations checks for empty keys, duplicates and a total weight
// above 100%.
func ValidateAllocations(allocs []Allocation) error {
	seen := make(map[string]struct{}, len(allocs))
	var total int64
	for _, a := range allocs {
		if strings.TrimSpace(a.StrategyKey) == "" {
			return fmt.Errorf("strategy key cannot be empty")
		}
		if _, ok := seen[a.StrategyKey]; ok {
			return fmt.Errorf("strategy %s listed twice", a.StrategyKey)
		}
		seen[a.StrategyKey] = struct{}{}
		total += int64(a.WeightBps)
	}
	if total > ledger.BpsBase {
		return fmt.Errorf("total weight %d exceeds %d", total, ledger.BpsBase)
	}
	return nil
}

// AllocationEntry reports one strategy's part in an allocation.
type AllocationEntry struct {
	StrategyKey  string      `json:"strategy_key"`
	Amount       sdkmath.Int `json:"amount"`
	Certificates sdkmath.Int `json:"certificates"`
}

// AllocationResult is the outcome of Allocate.
type AllocationResult struct {
	Allocated sdkmath.Int       `json:"allocated"`
	Entries   []AllocationEntry `json:"entries"`
}
