package service

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/tabledadrian/adrian-backend/internal/chain"
	"github.com/tabledadrian/adrian-backend/internal/eligibility"
	"github.com/tabledadrian/adrian-backend/internal/genctx"
	"github.com/tabledadrian/adrian-backend/internal/model"
	"github.com/tabledadrian/adrian-backend/internal/repository"
)

type EligibilityConfig struct {
	TokenAddress    string
	Decimals        int32
	AccessThreshold int64
	BonusThreshold  int64
	MinEURValue     string
}

// EligibilityCheck is the access gate result plus the bonus tier for the same read.
type EligibilityCheck struct {
	eligibility.Result
	WalletAddress string `json:"walletAddress"`
	BonusEligible bool   `json:"bonusEligible"`
}

type EligibilityService interface {
	Check(ctx context.Context, wallet string) (*EligibilityCheck, error)
	CheckValue(ctx context.Context, wallet string) (*eligibility.FiatResult, error)
	HolderBonusEligible(ctx context.Context, wallet string) (bool, error)
}

type eligibilityService struct {
	reader   chain.BalanceReader
	token    common.Address
	tokenErr error
	cfg      EligibilityConfig
	minEUR   decimal.Decimal
	prices   *eligibility.PriceResolver
	users    repository.UserRepository
	now      func() time.Time
}

// NewEligibilityService defers configuration errors to call time so the API
// can still serve routes that do not read balances.
func NewEligibilityService(reader chain.BalanceReader, cfg EligibilityConfig, prices *eligibility.PriceResolver, users repository.UserRepository) EligibilityService {
	s := &eligibilityService{reader: reader, cfg: cfg, prices: prices, users: users, now: time.Now}
	if strings.TrimSpace(cfg.TokenAddress) == "" {
		s.tokenErr = fmt.Errorf("%w: TOKEN_ADDRESS is not set", ErrConfiguration)
	} else if addr, err := chain.ParseAddress(cfg.TokenAddress); err != nil {
		s.tokenErr = fmt.Errorf("%w: TOKEN_ADDRESS %q is malformed", ErrConfiguration, cfg.TokenAddress)
	} else {
		s.token = addr
	}
	if reader == nil && s.tokenErr == nil {
		s.tokenErr = fmt.Errorf("%w: RPC_URL is not reachable", ErrConfiguration)
	}
	s.minEUR = decimal.NewFromInt(1)
	if d, err := decimal.NewFromString(strings.TrimSpace(cfg.MinEURValue)); err == nil {
		s.minEUR = d
	}
	return s
}

func (s *eligibilityService) Check(ctx context.Context, wallet string) (*EligibilityCheck, error) {
	addr, raw, err := s.balance(ctx, wallet)
	if err != nil {
		return nil, err
	}
	res := eligibility.Evaluate(raw, s.cfg.Decimals, s.cfg.AccessThreshold)
	bonus := eligibility.Evaluate(raw, s.cfg.Decimals, s.cfg.BonusThreshold)
	s.touchUser(ctx, addr, raw)
	log.Printf("[eligibility] rid=%s wallet=%s eligible=%t balance=%s", genctx.RID(ctx), addr, res.Eligible, res.FormattedBalance)
	return &EligibilityCheck{Result: res, WalletAddress: addr, BonusEligible: bonus.Eligible}, nil
}

func (s *eligibilityService) CheckValue(ctx context.Context, wallet string) (*eligibility.FiatResult, error) {
	addr, raw, err := s.balance(ctx, wallet)
	if err != nil {
		return nil, err
	}
	price, origin := decimal.Zero, eligibility.PriceUnavailable
	if s.prices != nil {
		price, origin = s.prices.Resolve(ctx)
	}
	res := eligibility.EvaluateFiat(raw, s.cfg.Decimals, price, origin, s.minEUR)
	s.touchUser(ctx, addr, raw)
	return &res, nil
}

func (s *eligibilityService) HolderBonusEligible(ctx context.Context, wallet string) (bool, error) {
	_, raw, err := s.balance(ctx, wallet)
	if err != nil {
		return false, err
	}
	return eligibility.Evaluate(raw, s.cfg.Decimals, s.cfg.BonusThreshold).Eligible, nil
}

func (s *eligibilityService) balance(ctx context.Context, wallet string) (string, *big.Int, error) {
	addr, err := normalizeWallet(wallet)
	if err != nil {
		return "", nil, err
	}
	if s.tokenErr != nil {
		return "", nil, s.tokenErr
	}
	raw, err := s.reader.BalanceOf(ctx, s.token, common.HexToAddress(addr))
	if err != nil {
		log.Printf("[eligibility] rid=%s stage=balance_fail wallet=%s err=%v", genctx.RID(ctx), addr, err)
		return "", nil, fmt.Errorf("%w: balance read failed", ErrUpstream)
	}
	return addr, raw, nil
}

// touchUser records the balance read. Failures are logged, never returned.
func (s *eligibilityService) touchUser(ctx context.Context, addr string, raw *big.Int) {
	if s.users == nil {
		return
	}
	_, err := s.users.Upsert(ctx, &model.User{
		WalletAddress:  addr,
		TokenBalance:   raw.String(),
		LastAccessedAt: s.now().UTC(),
	})
	if err != nil {
		log.Printf("[eligibility] rid=%s stage=user_refresh_fail wallet=%s err=%v", genctx.RID(ctx), addr, err)
	}
}

func normalizeWallet(wallet string) (string, error) {
	if strings.TrimSpace(wallet) == "" {
		return "", fmt.Errorf("%w: walletAddress is required", ErrInvalidInput)
	}
	addr, err := chain.NormalizeAddress(wallet)
	if err != nil {
		return "", fmt.Errorf("%w: walletAddress is not a valid address", ErrInvalidInput)
	}
	return addr, nil
}
