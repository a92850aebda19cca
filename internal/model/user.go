package model

import "time"

// User is keyed by wallet address; it is created on the first wallet interaction.
type User struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement"`
	WalletAddress     string    `gorm:"column:wallet_address;size:42;uniqueIndex;not null"`
	FarcasterUsername *string   `gorm:"column:farcaster_username;size:64"`
	PfpURL            *string   `gorm:"column:pfp_url;size:1024"`
	TokenBalance      string    `gorm:"column:token_balance;type:decimal(65,0);not null;default:0"`
	AssessmentCount   int       `gorm:"column:assessment_count;not null;default:0"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	LastAccessedAt    time.Time `gorm:"column:last_accessed_at"`
}

func (User) TableName() string {
	return "users"
}
