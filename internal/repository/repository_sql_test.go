package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabledadrian/adrian-backend/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	walletOne = "0x00000000000000000000000000000000000000a1"
	walletTwo = "0x00000000000000000000000000000000000000b2"
)

// openTestDB returns a migrated in-memory database private to the test.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a new database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func strPtr(s string) *string { return &s }

func TestUserRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	created, err := repo.Upsert(ctx, &model.User{
		WalletAddress:     walletOne,
		FarcasterUsername: strPtr("adrian"),
		TokenBalance:      "6000000",
		LastAccessedAt:    first,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "6000000", created.TokenBalance)

	later := first.Add(time.Hour)
	updated, err := repo.Upsert(ctx, &model.User{
		WalletAddress:  walletOne,
		TokenBalance:   "7000000",
		LastAccessedAt: later,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "7000000", updated.TokenBalance)
	assert.True(t, updated.LastAccessedAt.Equal(later))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	require.NotNil(t, updated.FarcasterUsername)
	assert.Equal(t, "adrian", *updated.FarcasterUsername)

	t.Run("missing balance keeps the stored one", func(t *testing.T) {
		u, err := repo.Upsert(ctx, &model.User{WalletAddress: walletOne, LastAccessedAt: later.Add(time.Hour)})
		require.NoError(t, err)
		assert.Equal(t, "7000000", u.TokenBalance)
	})

	t.Run("new wallet starts at zero", func(t *testing.T) {
		u, err := repo.Upsert(ctx, &model.User{WalletAddress: walletTwo})
		require.NoError(t, err)
		assert.Equal(t, "0", u.TokenBalance)
		assert.NotEqual(t, created.ID, u.ID)
	})
}

func TestUserRepository_FindByWallet(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewUserRepository(db)

	u, err := repo.FindByWallet(ctx, walletOne)
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, db.Migrator().DropTable(&model.User{}))
	u, err = repo.FindByWallet(ctx, walletOne)
	assert.Error(t, err)
	assert.Nil(t, u)
}

func TestAssessmentRepository_CreateCountsPerUser(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	repo := NewAssessmentRepository(db)

	owner, err := users.Upsert(ctx, &model.User{WalletAddress: walletOne})
	require.NoError(t, err)

	a := &model.Assessment{UserID: owner.ID, Goal: "energy", Challenges: "sleep", Lifestyle: "desk", Dietary: "none"}
	require.NoError(t, repo.Create(ctx, a))
	require.NotZero(t, a.ID)
	require.NoError(t, repo.Create(ctx, &model.Assessment{UserID: owner.ID, Goal: "g", Challenges: "c", Lifestyle: "l", Dietary: "d"}))

	got, err := users.FindByWallet(ctx, walletOne)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AssessmentCount)

	// a failed insert must not bump the counter
	dup := &model.Assessment{ID: a.ID, UserID: owner.ID, Goal: "g", Challenges: "c", Lifestyle: "l", Dietary: "d"}
	assert.Error(t, repo.Create(ctx, dup))
	got, err = users.FindByWallet(ctx, walletOne)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AssessmentCount)

	missing, err := repo.FindByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAssessmentRepository_SavePDF(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewAssessmentRepository(db)
	a := &model.Assessment{UserID: 1, Goal: "g", Challenges: "c", Lifestyle: "l", Dietary: "d"}
	require.NoError(t, repo.Create(ctx, a))

	expires := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SavePDF(ctx, a.ID, "https://gw.test/ipfs/Qm1", "Qm1", expires))
	assert.ErrorIs(t, repo.SavePDF(ctx, 999, "u", "h", expires), ErrNoChange)

	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.PDFGenerated)
	require.NotNil(t, got.IPFSHash)
	assert.Equal(t, "Qm1", *got.IPFSHash)
	require.NotNil(t, got.PDFExpiresAt)
	assert.True(t, got.PDFExpiresAt.Equal(expires))
}

func TestUserRewardRepository_ClaimOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRewardRepository(openTestDB(t))
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	ur, err := repo.Claim(ctx, 7, model.RewardKindSocial, 100, at)
	require.NoError(t, err)
	assert.True(t, ur.SocialRewardClaimed)
	assert.False(t, ur.HolderBonusClaimed)
	assert.Equal(t, int64(100), ur.TotalRewardsEarned)
	require.NotNil(t, ur.SocialRewardClaimedAt)

	_, err = repo.Claim(ctx, 7, model.RewardKindSocial, 100, at.Add(time.Minute))
	assert.ErrorIs(t, err, ErrNoChange)

	ur, err = repo.Claim(ctx, 7, model.RewardKindHolder, 500, at)
	require.NoError(t, err)
	assert.True(t, ur.SocialRewardClaimed)
	assert.True(t, ur.HolderBonusClaimed)
	assert.Equal(t, int64(600), ur.TotalRewardsEarned)

	got, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(600), got.TotalRewardsEarned)
	assert.True(t, got.SocialRewardClaimedAt.Equal(at))
}

func TestNftMintRepository_Listing(t *testing.T) {
	ctx := context.Background()
	repo := NewNftMintRepository(openTestDB(t))
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	for i, w := range []string{walletOne, walletTwo, walletOne, walletOne} {
		require.NoError(t, repo.Create(ctx, &model.NftMint{
			WalletAddress:      w,
			NftImageURL:        "https://img.test/" + string(rune('a'+i)) + ".png",
			TxHash:             "0x" + string(rune('a'+i)),
			TokenBalanceAtMint: "0",
			MintedAt:           base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "https://img.test/a.png", all[0].NftImageURL)
	assert.Equal(t, "https://img.test/d.png", all[3].NftImageURL)

	page, total, err := repo.ListRecent(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, page, 2)
	assert.Equal(t, "https://img.test/c.png", page[0].NftImageURL)
	assert.Equal(t, "https://img.test/b.png", page[1].NftImageURL)

	page, total, err = repo.ListRecent(ctx, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Empty(t, page)
}
