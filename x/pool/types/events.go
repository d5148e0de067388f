package types

// Event types and attribute keys emitted by the pool module.
const (
	EventTypePoolUpdated      = "pool_updated"
	EventTypePoolClosed       = "pool_closed"
	EventTypeRewardsFunded    = "pool_rewards_funded"
	EventTypeStaked           = "pool_staked"
	EventTypeWithdrawn        = "pool_withdrawn"
	EventTypeRewardsWithdrawn = "pool_rewards_withdrawn"

	AttributeKeyPoolKey     = "pool_key"
	AttributeKeyAccount     = "account"
	AttributeKeyAmount      = "amount"
	AttributeKeyTotalStaked = "total_staked"
	AttributeKeyReward      = "reward"
	AttributeKeyPlatformFee = "platform_fee"
	AttributeKeyHeight      = "height"
)
