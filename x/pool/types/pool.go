package types

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
)

// Pool is a block-based reward pool. Each block pays RewardPerBlock across
// all stakers in proportion to their stake.
type Pool struct {
	Key            string      `json:"key"`
	Name           string      `json:"name"`
	StakingDenom   string      `json:"staking_denom"`
	RewardDenom    string      `json:"reward_denom"`
	QuoteDenom     string      `json:"quote_denom,omitempty"`
	RewardPerBlock sdkmath.Int `json:"reward_per_block"`
	LockupBlocks   int64       `json:"lockup_blocks"`
	MaxStake       sdkmath.Int `json:"max_stake"`
	PlatformFeeBps uint32      `json:"platform_fee_bps"`

	TotalStaked     sdkmath.Int `json:"total_staked"`
	RewardBalance   sdkmath.Int `json:"reward_balance"`
	Closed          bool        `json:"closed"`
	CreatedAtHeight int64       `json:"created_at_height"`
}

// Validate checks the configurable fields of a pool.
func (p Pool) Validate() error {
	if strings.TrimSpace(p.Key) == "" {
		return fmt.Errorf("pool key cannot be empty")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pool name cannot be empty")
	}
	if err := sdk.ValidateDenom(p.StakingDenom); err != nil {
		return fmt.Errorf("invalid staking denom: %w", err)
	}
	if err := sdk.ValidateDenom(p.RewardDenom); err != nil {
		return fmt.Errorf("invalid reward denom: %w", err)
	}
	if p.QuoteDenom != "" {
		if err := sdk.ValidateDenom(p.QuoteDenom); err != nil {
			return fmt.Errorf("invalid quote denom: %w", err)
		}
	}
	if p.RewardPerBlock.IsNil() || p.RewardPerBlock.IsNegative() {
		return fmt.Errorf("reward per block must be non-negative")
	}
	if p.LockupBlocks < 0 {
		return fmt.Errorf("lockup blocks cannot be negative")
	}
	if p.MaxStake.IsNil() || !p.MaxStake.IsPositive() {
		return fmt.Errorf("max stake must be positive")
	}
	if int64(p.PlatformFeeBps) > ledger.BpsBase {
		return fmt.Errorf("platform fee bps must be <= %d", ledger.BpsBase)
	}
	return nil
}

// StakeRecord is one account's position in a pool.
type StakeRecord struct {
	Amount           sdkmath.Int `json:"amount"`
	FirstStakeHeight int64       `json:"first_stake_height"`
	LastRewardHeight int64       `json:"last_reward_height"`
	Accrued          sdkmath.Int `json:"accrued"`
	Harvested        sdkmath.Int `json:"harvested"`
}

// NewStakeRecord returns an empty position.
func NewStakeRecord() StakeRecord {
	return StakeRecord{
		Amount:    sdkmath.ZeroInt(),
		Accrued:   sdkmath.ZeroInt(),
		Harvested: sdkmath.ZeroInt(),
	}
}

// PendingReward returns the reward earned by a position since its last
// settlement: blocks × rewardPerBlock × staked / totalStaked, truncated
// once at the final division. Zero when the pool is empty.
func PendingReward(blocks int64, rewardPerBlock, staked, totalStaked sdkmath.Int) sdkmath.Int {
	if blocks <= 0 || !totalStaked.IsPositive() || !staked.IsPositive() {
		return sdkmath.ZeroInt()
	}
	return sdkmath.NewInt(blocks).Mul(rewardPerBlock).Mul(staked).Quo(totalStaked)
}

// PoolInfo is a read-only projection of a pool for one account.
type PoolInfo struct {
	Pool            Pool        `json:"pool"`
	Staked          sdkmath.Int `json:"staked"`
	PendingRewards  sdkmath.Int `json:"pending_rewards"`
	UnlockHeight    int64       `json:"unlock_height"`
	RewardValue     sdkmath.Int `json:"reward_value"`
	PriceUnreliable bool        `json:"price_unreliable"`
}
