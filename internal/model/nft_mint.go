package model

import "time"

// NftMint is an append-only log row, one per on-chain mint transaction.
// A wallet may appear many times.
type NftMint struct {
	ID                 uint64     `gorm:"primaryKey;autoIncrement"`
	WalletAddress      string     `gorm:"column:wallet_address;size:42;index;not null"`
	Username           string     `gorm:"column:username;size:64"`
	NftImageURL        string     `gorm:"column:nft_image_url;type:text;not null"`
	PfpURL             *string    `gorm:"column:pfp_url;size:1024"`
	CastText           *string    `gorm:"column:cast_text;type:text"`
	CastHash           *string    `gorm:"column:cast_hash;size:66"`
	CastTimestamp      *time.Time `gorm:"column:cast_timestamp"`
	TxHash             string     `gorm:"column:tx_hash;size:66;index;not null"`
	TokenBalanceAtMint string     `gorm:"column:token_balance_at_mint;type:decimal(65,0);not null;default:0"`
	MintedAt           time.Time  `gorm:"column:minted_at;index;not null"`
}

func (NftMint) TableName() string {
	return "nft_mints"
}

// All returns every table managed by the API, in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Assessment{}, &UserReward{}, &NftMint{}}
}
