package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tabledadrian/adrian-backend/internal/ai"
	"github.com/tabledadrian/adrian-backend/internal/eligibility"
	"github.com/tabledadrian/adrian-backend/internal/model"
	"github.com/tabledadrian/adrian-backend/internal/profile"
	"github.com/tabledadrian/adrian-backend/internal/repository"
	"gorm.io/gorm"
)

var errDown = errors.New("datastore down")

const (
	walletA = "0x00000000000000000000000000000000000000a1"
	walletB = "0x00000000000000000000000000000000000000b2"
	tokenX  = "0x2222222222222222222222222222222222222222"
)

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type fakeUsers struct {
	mu      sync.Mutex
	byAddr  map[string]*model.User
	nextID  uint64
	err     error
	upserts int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byAddr: map[string]*model.User{}}
}

func (f *fakeUsers) Upsert(_ context.Context, u *model.User) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.err != nil {
		return nil, f.err
	}
	cur, ok := f.byAddr[u.WalletAddress]
	if !ok {
		f.nextID++
		cp := *u
		cp.ID = f.nextID
		if cp.TokenBalance == "" {
			cp.TokenBalance = "0"
		}
		f.byAddr[u.WalletAddress] = &cp
		out := cp
		return &out, nil
	}
	cur.LastAccessedAt = u.LastAccessedAt
	if u.TokenBalance != "" {
		cur.TokenBalance = u.TokenBalance
	}
	if u.FarcasterUsername != nil {
		cur.FarcasterUsername = u.FarcasterUsername
	}
	if u.PfpURL != nil {
		cur.PfpURL = u.PfpURL
	}
	out := *cur
	return &out, nil
}

func (f *fakeUsers) FindByWallet(_ context.Context, wallet string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byAddr[wallet]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (f *fakeUsers) SetDB(*gorm.DB) {}

func (f *fakeUsers) get(wallet string) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byAddr[wallet]
}

type fakeAssessments struct {
	rows      map[uint64]*model.Assessment
	nextID    uint64
	err       error
	now       time.Time
	downloads int
}

func newFakeAssessments(now time.Time) *fakeAssessments {
	return &fakeAssessments{rows: map[uint64]*model.Assessment{}, now: now}
}

func (f *fakeAssessments) Create(_ context.Context, a *model.Assessment) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	a.ID = f.nextID
	a.CreatedAt = f.now
	cp := *a
	f.rows[a.ID] = &cp
	return nil
}

func (f *fakeAssessments) FindByID(_ context.Context, id uint64) (*model.Assessment, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssessments) SavePDF(_ context.Context, id uint64, url, hash string, expiresAt time.Time) error {
	a, ok := f.rows[id]
	if !ok {
		return repository.ErrNoChange
	}
	a.PDFGenerated = true
	a.PDFURL = &url
	a.IPFSHash = &hash
	a.PDFExpiresAt = &expiresAt
	return nil
}

func (f *fakeAssessments) MarkDownloaded(_ context.Context, id uint64, at time.Time) error {
	f.downloads++
	f.rows[id].DownloadedAt = &at
	return nil
}

func (f *fakeAssessments) SetDB(*gorm.DB) {}

type fakeRewards struct {
	rows map[uint64]*model.UserReward
}

func (f *fakeRewards) Get(_ context.Context, userID uint64) (*model.UserReward, error) {
	if f.rows == nil {
		f.rows = map[uint64]*model.UserReward{}
	}
	r, ok := f.rows[userID]
	if !ok {
		r = &model.UserReward{UserID: userID}
		f.rows[userID] = r
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRewards) Claim(ctx context.Context, userID uint64, kind model.RewardKind, amount int64, at time.Time) (*model.UserReward, error) {
	if _, err := f.Get(ctx, userID); err != nil {
		return nil, err
	}
	r := f.rows[userID]
	switch kind {
	case model.RewardKindSocial:
		if r.SocialRewardClaimed {
			return nil, repository.ErrNoChange
		}
		r.SocialRewardClaimed, r.SocialRewardClaimedAt = true, &at
	case model.RewardKindHolder:
		if r.HolderBonusClaimed {
			return nil, repository.ErrNoChange
		}
		r.HolderBonusClaimed, r.HolderBonusClaimedAt = true, &at
	}
	r.TotalRewardsEarned += amount
	cp := *r
	return &cp, nil
}

func (f *fakeRewards) SetDB(*gorm.DB) {}

type fakeMints struct {
	mu   sync.Mutex
	rows []model.NftMint
	err  error
}

func (f *fakeMints) Create(_ context.Context, m *model.NftMint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	m.ID = uint64(len(f.rows) + 1)
	f.rows = append(f.rows, *m)
	return nil
}

func (f *fakeMints) ListAll(context.Context) ([]model.NftMint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.NftMint(nil), f.rows...), nil
}

func (f *fakeMints) ListRecent(_ context.Context, limit, offset int) ([]model.NftMint, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var out []model.NftMint
	for i := len(f.rows) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.rows[i])
	}
	return out, int64(len(f.rows)), nil
}

func (f *fakeMints) SetDB(*gorm.DB) {}

type fakeReader struct {
	balances map[common.Address]*big.Int
	err      error
	calls    int
}

func (f *fakeReader) BalanceOf(_ context.Context, _, owner common.Address) (*big.Int, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if b, ok := f.balances[owner]; ok {
		return b, nil
	}
	return new(big.Int), nil
}

type fakeResolver struct {
	profile  *profile.Profile
	err      error
	casts    []profile.Cast
	castsErr error
	queries  []profile.Query
}

func (f *fakeResolver) Resolve(_ context.Context, q profile.Query) (*profile.Profile, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeResolver) RecentCasts(context.Context, uint64, int) ([]profile.Cast, error) {
	return f.casts, f.castsErr
}

type fakeGenerator struct {
	res  *ai.Result
	err  error
	reqs []ai.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req ai.Request) (*ai.Result, error) {
	f.reqs = append(f.reqs, req)
	return f.res, f.err
}

type fakePublisher struct {
	pinned []string
	err    error
}

func (f *fakePublisher) Pin(_ context.Context, data []byte, filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.pinned = append(f.pinned, filename)
	return "QmTest", nil
}

func (f *fakePublisher) GatewayURL(hash string) string {
	return "https://gateway.test/ipfs/" + hash
}

type fakeGate struct {
	eligible bool
	bonus    bool
	err      error
}

func (f *fakeGate) Check(_ context.Context, wallet string) (*EligibilityCheck, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := &EligibilityCheck{WalletAddress: wallet, BonusEligible: f.bonus}
	c.Eligible = f.eligible
	c.FormattedBalance = "1"
	c.RequiredAmount = "5,000,000"
	return c, nil
}

func (f *fakeGate) CheckValue(context.Context, string) (*eligibility.FiatResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeGate) HolderBonusEligible(context.Context, string) (bool, error) {
	return f.bonus, f.err
}
