package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tabledadrian/adrian-backend/internal/genctx"
	"github.com/tabledadrian/adrian-backend/internal/model"
	"github.com/tabledadrian/adrian-backend/internal/repository"
)

type RewardAmounts struct {
	Social int64
	Holder int64
}

type RewardService interface {
	Claim(ctx context.Context, wallet string, kind model.RewardKind) (*model.UserReward, error)
	Get(ctx context.Context, wallet string) (*model.UserReward, error)
}

type rewardService struct {
	repo    repository.UserRewardRepository
	users   repository.UserRepository
	holders EligibilityService
	amounts RewardAmounts
	now     func() time.Time
}

func NewRewardService(repo repository.UserRewardRepository, users repository.UserRepository, holders EligibilityService, amounts RewardAmounts) RewardService {
	return &rewardService{repo: repo, users: users, holders: holders, amounts: amounts, now: time.Now}
}

// Claim grants each reward kind at most once. The holder bonus also
// requires a balance at the bonus threshold at claim time.
func (s *rewardService) Claim(ctx context.Context, wallet string, kind model.RewardKind) (*model.UserReward, error) {
	addr, err := normalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	var amount int64
	switch kind {
	case model.RewardKindSocial:
		amount = s.amounts.Social
	case model.RewardKindHolder:
		amount = s.amounts.Holder
	default:
		return nil, fmt.Errorf("%w: unknown reward type %q", ErrInvalidInput, kind)
	}
	u, err := findUser(ctx, s.users, addr)
	if err != nil {
		return nil, err
	}
	if kind == model.RewardKindHolder {
		ok, err := s.holders.HolderBonusEligible(ctx, addr)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: balance is below the holder bonus threshold", ErrNotEligible)
		}
	}

	reward, err := s.repo.Claim(ctx, u.ID, kind, amount, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return nil, fmt.Errorf("%w: %s reward", ErrAlreadyClaimed, kind)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	log.Printf("[reward] rid=%s wallet=%s kind=%s amount=%d total=%d", genctx.RID(ctx), addr, kind, amount, reward.TotalRewardsEarned)
	return reward, nil
}

func (s *rewardService) Get(ctx context.Context, wallet string) (*model.UserReward, error) {
	addr, err := normalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	u, err := findUser(ctx, s.users, addr)
	if err != nil {
		return nil, err
	}
	reward, err := s.repo.Get(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return reward, nil
}
