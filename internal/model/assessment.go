package model

import "time"

type Assessment struct {
	ID           uint64     `gorm:"primaryKey;autoIncrement"`
	UserID       uint64     `gorm:"column:user_id;index;not null"`
	Goal         string     `gorm:"column:goal;type:text;not null"`
	Challenges   string     `gorm:"column:challenges;type:text;not null"`
	Lifestyle    string     `gorm:"column:lifestyle;type:text;not null"`
	Dietary      string     `gorm:"column:dietary;type:text;not null"`
	Conditions   *string    `gorm:"column:conditions;type:text"`
	PDFGenerated bool       `gorm:"column:pdf_generated;not null;default:false"`
	PDFURL       *string    `gorm:"column:pdf_url;size:512"`
	IPFSHash     *string    `gorm:"column:ipfs_hash;size:128"`
	PDFExpiresAt *time.Time `gorm:"column:pdf_expires_at"`
	DownloadedAt *time.Time `gorm:"column:downloaded_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
}

func (Assessment) TableName() string {
	return "assessments"
}
