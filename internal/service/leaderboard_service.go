package service

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tabledadrian/adrian-backend/internal/genctx"
	"github.com/tabledadrian/adrian-backend/internal/model"
	"github.com/tabledadrian/adrian-backend/internal/repository"
)

const (
	defaultGalleryLimit = 20
	maxGalleryLimit     = 100
)

type LeaderboardEntry struct {
	Rank           int             `json:"rank"`
	WalletAddress  string          `json:"walletAddress"`
	Username       string          `json:"username,omitempty"`
	LatestImageURL string          `json:"latestImageUrl,omitempty"`
	MintCount      int             `json:"mintCount"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	FirstMintedAt  time.Time       `json:"firstMintedAt"`
}

type GalleryItem struct {
	ID            uint64     `json:"id"`
	WalletAddress string     `json:"walletAddress"`
	Username      string     `json:"username"`
	NftImageURL   string     `json:"nftImageUrl"`
	PfpURL        *string    `json:"pfpUrl,omitempty"`
	CastText      *string    `json:"castText,omitempty"`
	CastHash      *string    `json:"castHash,omitempty"`
	CastTimestamp *time.Time `json:"castTimestamp,omitempty"`
	TxHash        string     `json:"txHash"`
	MintedAt      time.Time  `json:"mintedAt"`
}

type GalleryPage struct {
	Items  []GalleryItem `json:"items"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type LeaderboardService interface {
	// Leaderboard and Gallery report degraded=true when the empty result
	// stands in for an unreadable mint log.
	Leaderboard(ctx context.Context, limit int) (entries []LeaderboardEntry, degraded bool)
	Gallery(ctx context.Context, limit, offset int) (page GalleryPage, degraded bool)
}

type leaderboardService struct {
	mints     repository.NftMintRepository
	unitPrice decimal.Decimal
}

func NewLeaderboardService(mints repository.NftMintRepository, unitPrice decimal.Decimal) LeaderboardService {
	return &leaderboardService{mints: mints, unitPrice: unitPrice}
}

// Leaderboard returns an empty board when the mint log cannot be read.
func (s *leaderboardService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, bool) {
	mints, err := s.mints.ListAll(ctx)
	if err != nil {
		log.Printf("[leaderboard] rid=%s stage=read_fail err=%v", genctx.RID(ctx), err)
		return []LeaderboardEntry{}, true
	}
	entries := Aggregate(mints, s.unitPrice)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, false
}

// Gallery returns an empty page when the mint log cannot be read.
func (s *leaderboardService) Gallery(ctx context.Context, limit, offset int) (GalleryPage, bool) {
	if limit <= 0 {
		limit = defaultGalleryLimit
	}
	if limit > maxGalleryLimit {
		limit = maxGalleryLimit
	}
	if offset < 0 {
		offset = 0
	}
	page := GalleryPage{Items: []GalleryItem{}, Limit: limit, Offset: offset}
	mints, total, err := s.mints.ListRecent(ctx, limit, offset)
	if err != nil {
		log.Printf("[gallery] rid=%s stage=read_fail err=%v", genctx.RID(ctx), err)
		return page, true
	}
	page.Total = total
	for _, m := range mints {
		page.Items = append(page.Items, GalleryItem{
			ID:            m.ID,
			WalletAddress: m.WalletAddress,
			Username:      m.Username,
			NftImageURL:   m.NftImageURL,
			PfpURL:        m.PfpURL,
			CastText:      m.CastText,
			CastHash:      m.CastHash,
			CastTimestamp: m.CastTimestamp,
			TxHash:        m.TxHash,
			MintedAt:      m.MintedAt,
		})
	}
	return page, false
}

// Aggregate groups mints (oldest first) by wallet, ranks by mint count with
// dense ranks, and breaks ties by earliest first mint.
func Aggregate(mints []model.NftMint, unitPrice decimal.Decimal) []LeaderboardEntry {
	index := make(map[string]int)
	entries := make([]LeaderboardEntry, 0)
	for _, m := range mints {
		key := strings.ToLower(strings.TrimSpace(m.WalletAddress))
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(entries)
			index[key] = i
			entries = append(entries, LeaderboardEntry{WalletAddress: key, FirstMintedAt: m.MintedAt})
		}
		e := &entries[i]
		e.MintCount++
		if m.MintedAt.Before(e.FirstMintedAt) {
			e.FirstMintedAt = m.MintedAt
		}
		if m.Username != "" {
			e.Username = m.Username
		}
		if m.NftImageURL != "" {
			e.LatestImageURL = m.NftImageURL
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].MintCount != entries[b].MintCount {
			return entries[a].MintCount > entries[b].MintCount
		}
		return entries[a].FirstMintedAt.Before(entries[b].FirstMintedAt)
	})
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].MintCount != entries[i-1].MintCount {
			rank++
		}
		entries[i].Rank = rank
		entries[i].TotalValue = unitPrice.Mul(decimal.NewFromInt(int64(entries[i].MintCount)))
	}
	return entries
}
