package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tabledadrian/adrian-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	// Upsert creates the user or refreshes last access plus any supplied
	// balance and profile fields, then returns the stored row.
	Upsert(ctx context.Context, u *model.User) (*model.User, error)
	// FindByWallet returns nil, nil when no user exists.
	FindByWallet(ctx context.Context, wallet string) (*model.User, error)
	SetDB(db *gorm.DB)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if u.LastAccessedAt.IsZero() {
		u.LastAccessedAt = time.Now().UTC()
	}
	updates := map[string]interface{}{
		"last_accessed_at": u.LastAccessedAt,
	}
	if u.TokenBalance == "" {
		u.TokenBalance = "0"
	} else {
		updates["token_balance"] = u.TokenBalance
	}
	if u.FarcasterUsername != nil {
		updates["farcaster_username"] = *u.FarcasterUsername
	}
	if u.PfpURL != nil {
		updates["pfp_url"] = *u.PfpURL
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(u).Error
	if err != nil {
		return nil, err
	}
	return r.FindByWallet(ctx, u.WalletAddress)
}

func (r *userRepository) FindByWallet(ctx context.Context, wallet string) (*model.User, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var u model.User
	if err := r.db.WithContext(ctx).Where("wallet_address = ?", wallet).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) SetDB(db *gorm.DB) {
	r.db = db
}
