package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tabledadrian/adrian-backend/internal/model"
	"gorm.io/gorm"
)

type AssessmentRepository interface {
	// Create stores the assessment and bumps the owner's assessment count in one transaction.
	Create(ctx context.Context, a *model.Assessment) error
	// FindByID returns nil, nil when the assessment does not exist.
	FindByID(ctx context.Context, id uint64) (*model.Assessment, error)
	SavePDF(ctx context.Context, id uint64, url, hash string, expiresAt time.Time) error
	MarkDownloaded(ctx context.Context, id uint64, at time.Time) error
	SetDB(db *gorm.DB)
}

type assessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).
			Where("id = ?", a.UserID).
			Update("assessment_count", gorm.Expr("assessment_count + 1")).Error
	})
}

func (r *assessmentRepository) FindByID(ctx context.Context, id uint64) (*model.Assessment, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var a model.Assessment
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *assessmentRepository) SavePDF(ctx context.Context, id uint64, url, hash string, expiresAt time.Time) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).Model(&model.Assessment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"pdf_generated":  true,
		"pdf_url":        url,
		"ipfs_hash":      hash,
		"pdf_expires_at": expiresAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoChange
	}
	return nil
}

func (r *assessmentRepository) MarkDownloaded(ctx context.Context, id uint64, at time.Time) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Model(&model.Assessment{}).
		Where("id = ?", id).
		Update("downloaded_at", at).Error
}

func (r *assessmentRepository) SetDB(db *gorm.DB) {
	r.db = db
}
