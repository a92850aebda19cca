package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tabledadrian/adrian-backend/internal/model"
	"github.com/tabledadrian/adrian-backend/internal/repository"
)

type UpsertUserInput struct {
	WalletAddress     string
	FarcasterUsername *string
	PfpURL            *string
}

type UserService interface {
	Upsert(ctx context.Context, in UpsertUserInput) (*model.User, error)
	Get(ctx context.Context, wallet string) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
	now  func() time.Time
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo, now: time.Now}
}

func (s *userService) Upsert(ctx context.Context, in UpsertUserInput) (*model.User, error) {
	addr, err := normalizeWallet(in.WalletAddress)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		WalletAddress:     addr,
		FarcasterUsername: trimmedOrNil(in.FarcasterUsername),
		PfpURL:            trimmedOrNil(in.PfpURL),
		LastAccessedAt:    s.now().UTC(),
	}
	if u.FarcasterUsername != nil {
		name := strings.TrimPrefix(*u.FarcasterUsername, "@")
		u.FarcasterUsername = &name
	}
	stored, err := s.repo.Upsert(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return stored, nil
}

func (s *userService) Get(ctx context.Context, wallet string) (*model.User, error) {
	addr, err := normalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	return findUser(ctx, s.repo, addr)
}

func findUser(ctx context.Context, repo repository.UserRepository, addr string) (*model.User, error) {
	u, err := repo.FindByWallet(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: no user for %s", ErrNotFound, addr)
	}
	return u, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
