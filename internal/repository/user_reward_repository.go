package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tabledadrian/adrian-backend/internal/model"
	"gorm.io/gorm"
)

type UserRewardRepository interface {
	Get(ctx context.Context, userID uint64) (*model.UserReward, error)
	// Claim flips the claim flag for kind once. It returns ErrNoChange when
	// the reward was already claimed.
	Claim(ctx context.Context, userID uint64, kind model.RewardKind, amount int64, at time.Time) (*model.UserReward, error)
	SetDB(db *gorm.DB)
}

type userRewardRepository struct {
	db *gorm.DB
}

func NewUserRewardRepository(db *gorm.DB) UserRewardRepository {
	return &userRewardRepository{db: db}
}

func (r *userRewardRepository) Get(ctx context.Context, userID uint64) (*model.UserReward, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var ur model.UserReward
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).FirstOrCreate(&ur, &model.UserReward{UserID: userID}).Error; err != nil {
		return nil, err
	}
	return &ur, nil
}

func (r *userRewardRepository) Claim(ctx context.Context, userID uint64, kind model.RewardKind, amount int64, at time.Time) (*model.UserReward, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	flag, stamp, err := rewardColumns(kind)
	if err != nil {
		return nil, err
	}
	if _, err := r.Get(ctx, userID); err != nil {
		return nil, err
	}
	res := r.db.WithContext(ctx).Model(&model.UserReward{}).
		Where("user_id = ? AND "+flag+" = ?", userID, false).
		Updates(map[string]interface{}{
			flag:                   true,
			stamp:                  at,
			"total_rewards_earned": gorm.Expr("total_rewards_earned + ?", amount),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNoChange
	}
	return r.Get(ctx, userID)
}

func rewardColumns(kind model.RewardKind) (flag, stamp string, err error) {
	switch kind {
	case model.RewardKindSocial:
		return "social_reward_claimed", "social_reward_claimed_at", nil
	case model.RewardKindHolder:
		return "holder_bonus_claimed", "holder_bonus_claimed_at", nil
	}
	return "", "", fmt.Errorf("unknown reward kind %q", kind)
}

func (r *userRewardRepository) SetDB(db *gorm.DB) {
	r.db = db
}
