package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabledadrian/adrian-backend/internal/model"
)

var unit = decimal.RequireFromString("0.003")

func mintLog(wallets ...string) []model.NftMint {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	out := make([]model.NftMint, 0, len(wallets))
	for i, w := range wallets {
		out = append(out, model.NftMint{
			ID:            uint64(i + 1),
			WalletAddress: w,
			Username:      "user-" + w[len(w)-2:],
			NftImageURL:   "https://img.test/" + w,
			TxHash:        "0x01",
			MintedAt:      base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestAggregateExample(t *testing.T) {
	entries := Aggregate(mintLog(walletA, walletB, walletA, walletA), unit)
	require.Len(t, entries, 2)

	assert.Equal(t, walletA, entries[0].WalletAddress)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 3, entries[0].MintCount)
	assert.True(t, entries[0].TotalValue.Equal(decimal.RequireFromString("0.009")), entries[0].TotalValue.String())

	assert.Equal(t, walletB, entries[1].WalletAddress)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 1, entries[1].MintCount)
	assert.True(t, entries[1].TotalValue.Equal(unit))
}

func TestAggregateTwoOverOne(t *testing.T) {
	entries := Aggregate(mintLog(walletB, walletA, walletA), unit)
	require.Len(t, entries, 2)
	assert.Equal(t, walletA, entries[0].WalletAddress)
	assert.Equal(t, 2, entries[0].MintCount)
	assert.True(t, entries[0].TotalValue.Equal(unit.Mul(decimal.NewFromInt(2))))
}

func TestAggregateTiesAndDenseRank(t *testing.T) {
	c := "0x00000000000000000000000000000000000000c3"
	// b and c tie on one mint each; b minted first.
	entries := Aggregate(mintLog(walletA, walletB, c, walletA), unit)
	require.Len(t, entries, 3)
	assert.Equal(t, []int{1, 2, 2}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
	assert.Equal(t, walletB, entries[1].WalletAddress)
	assert.Equal(t, c, entries[2].WalletAddress)
}

func TestAggregateGroupsCaseInsensitive(t *testing.T) {
	log := mintLog(walletA, walletA)
	log[1].WalletAddress = "0x00000000000000000000000000000000000000A1"
	entries := Aggregate(log, unit)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].MintCount)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, unit))
}

func TestLeaderboardDegradesToEmpty(t *testing.T) {
	svc := NewLeaderboardService(&fakeMints{err: errDown}, unit)
	entries, degraded := svc.Leaderboard(context.Background(), 10)
	assert.True(t, degraded)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	page, degraded := svc.Gallery(context.Background(), 10, 0)
	assert.True(t, degraded)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
}

func TestLeaderboardLimit(t *testing.T) {
	c := "0x00000000000000000000000000000000000000c3"
	svc := NewLeaderboardService(&fakeMints{rows: mintLog(walletA, walletB, c)}, unit)
	entries, degraded := svc.Leaderboard(context.Background(), 2)
	assert.False(t, degraded)
	assert.Len(t, entries, 2)
	entries, _ = svc.Leaderboard(context.Background(), 0)
	assert.Len(t, entries, 3)
}

func TestGalleryNewestFirstWithPaging(t *testing.T) {
	mints := &fakeMints{rows: mintLog(walletA, walletB, walletA)}
	svc := NewLeaderboardService(mints, unit)

	page, degraded := svc.Gallery(context.Background(), 2, 0)
	assert.False(t, degraded)
	require.Len(t, page.Items, 2)
	assert.Equal(t, uint64(3), page.Items[0].ID)
	assert.Equal(t, uint64(2), page.Items[1].ID)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, "https://img.test/"+walletB, page.Items[1].NftImageURL)

	page, _ = svc.Gallery(context.Background(), 2, 2)
	require.Len(t, page.Items, 1)
	assert.Equal(t, uint64(1), page.Items[0].ID)

	page, _ = svc.Gallery(context.Background(), 1000, -5)
	assert.Equal(t, maxGalleryLimit, page.Limit)
	assert.Equal(t, 0, page.Offset)
}
