package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/tabledadrian/adrian-backend/internal/config"
	"github.com/tabledadrian/adrian-backend/internal/db"
	"github.com/tabledadrian/adrian-backend/internal/model"
	"github.com/tabledadrian/adrian-backend/internal/repository"
	"gorm.io/gorm"
)

type seedHolder struct {
	Wallet   string
	Username string
	Mints    int
	Balance  string
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("nft_mints already has rows; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	holders := buildHolders()
	start := time.Now().UTC().Add(-72 * time.Hour).Truncate(time.Minute)

	var written int
	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM nft_mints`).Error; err != nil {
			return fmt.Errorf("clear nft_mints: %w", err)
		}
		users := repository.NewUserRepository(tx)
		mints := repository.NewNftMintRepository(tx)
		for hi, h := range holders {
			name := h.Username
			if _, err := users.Upsert(ctx, &model.User{
				WalletAddress:     h.Wallet,
				FarcasterUsername: &name,
				TokenBalance:      h.Balance,
				LastAccessedAt:    start,
			}); err != nil {
				return fmt.Errorf("upsert user %s: %w", h.Wallet, err)
			}
			for k := 0; k < h.Mints; k++ {
				m := &model.NftMint{
					WalletAddress:      h.Wallet,
					Username:           h.Username,
					NftImageURL:        picsumURL(h.Username, k),
					TxHash:             crypto.Keccak256Hash([]byte(fmt.Sprintf("%s-%d", h.Wallet, k))).Hex(),
					TokenBalanceAtMint: h.Balance,
					MintedAt:           start.Add(time.Duration(hi*7+k*3) * time.Hour),
				}
				if err := mints.Create(ctx, m); err != nil {
					return fmt.Errorf("insert mint %s #%d: %w", h.Wallet, k, err)
				}
				written++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("seeded %d mints for %d holders", written, len(holders))
	return nil
}

func buildHolders() []seedHolder {
	return []seedHolder{
		{Wallet: "0x1111111111111111111111111111111111111111", Username: "adrian", Mints: 4, Balance: "12000000000000000000000000"},
		{Wallet: "0x2222222222222222222222222222222222222222", Username: "sommelier", Mints: 3, Balance: "7500000000000000000000000"},
		{Wallet: "0x3333333333333333333333333333333333333333", Username: "chefdepartie", Mints: 3, Balance: "5000000000000000000000000"},
		{Wallet: "0x4444444444444444444444444444444444444444", Username: "maitred", Mints: 1, Balance: "6100000000000000000000000"},
		{Wallet: "0x5555555555555555555555555555555555555555", Username: "patissier", Mints: 2, Balance: "9900000000000000000000000"},
	}
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.NftMint{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count nft_mints: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}

func picsumURL(seed string, k int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d/768/768", seed, k)
}
