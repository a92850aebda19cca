package repository

import (
	"context"

	"github.com/tabledadrian/adrian-backend/internal/model"
	"gorm.io/gorm"
)

type NftMintRepository interface {
	Create(ctx context.Context, m *model.NftMint) error
	// ListAll returns the whole log oldest first.
	ListAll(ctx context.Context) ([]model.NftMint, error)
	// ListRecent returns one page newest first, plus the total row count.
	ListRecent(ctx context.Context, limit, offset int) ([]model.NftMint, int64, error)
	SetDB(db *gorm.DB)
}

type nftMintRepository struct {
	db *gorm.DB
}

func NewNftMintRepository(db *gorm.DB) NftMintRepository {
	return &nftMintRepository{db: db}
}

func (r *nftMintRepository) Create(ctx context.Context, m *model.NftMint) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *nftMintRepository) ListAll(ctx context.Context) ([]model.NftMint, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var mints []model.NftMint
	if err := r.db.WithContext(ctx).Order("minted_at asc, id asc").Find(&mints).Error; err != nil {
		return nil, err
	}
	return mints, nil
}

func (r *nftMintRepository) ListRecent(ctx context.Context, limit, offset int) ([]model.NftMint, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		mints []model.NftMint
		total int64
	)
	if err := r.db.WithContext(ctx).Model(&model.NftMint{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Order("minted_at desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&mints).Error; err != nil {
		return nil, 0, err
	}
	return mints, total, nil
}

func (r *nftMintRepository) SetDB(db *gorm.DB) {
	r.db = db
}
