package model

import "time"

type RewardKind string

const (
	RewardKindSocial RewardKind = "social"
	RewardKindHolder RewardKind = "holder"
)

// UserReward holds at most one claim of each kind per user. Claims are never revoked.
type UserReward struct {
	ID                    uint64     `gorm:"primaryKey;autoIncrement"`
	UserID                uint64     `gorm:"column:user_id;uniqueIndex;not null"`
	SocialRewardClaimed   bool       `gorm:"column:social_reward_claimed;not null;default:false"`
	SocialRewardClaimedAt *time.Time `gorm:"column:social_reward_claimed_at"`
	HolderBonusClaimed    bool       `gorm:"column:holder_bonus_claimed;not null;default:false"`
	HolderBonusClaimedAt  *time.Time `gorm:"column:holder_bonus_claimed_at"`
	TotalRewardsEarned    int64      `gorm:"column:total_rewards_earned;not null;default:0"`
	CreatedAt             time.Time  `gorm:"autoCreateTime"`
}

func (UserReward) TableName() string {
	return "user_rewards"
}
