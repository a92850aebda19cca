package service

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tabledadrian/adrian-backend/internal/ai"
	"github.com/tabledadrian/adrian-backend/internal/chain"
	"github.com/tabledadrian/adrian-backend/internal/genctx"
	"github.com/tabledadrian/adrian-backend/internal/model"
	"github.com/tabledadrian/adrian-backend/internal/repository"
)

const recordTimeout = 10 * time.Second

// Column widths of nft_mints.
const (
	maxUsernameLen = 64
	maxPfpURLLen   = 1024
	maxCastHashLen = 66
)

type MintDetails struct {
	WalletAddress      string
	Username           string
	NftImageURL        string
	PfpURL             string
	CastText           string
	CastHash           string
	CastTimestamp      *time.Time
	TxHash             string
	TokenBalanceAtMint string
}

// MintReceipt acknowledges a confirmed on-chain mint. It has no field for
// the outcome of recording it.
type MintReceipt struct {
	TxHash        string    `json:"txHash"`
	WalletAddress string    `json:"walletAddress"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

type MintService interface {
	Prepare(ctx context.Context, wallet, imageURL string) (*chain.UnsignedTx, error)
	Validate(d MintDetails) (MintDetails, error)
	Record(ctx context.Context, d MintDetails) MintReceipt
	// Wait blocks until every pending record write has finished.
	Wait()
}

type mintService struct {
	preparer    *chain.MintPreparer
	preparerErr error
	gate        EligibilityService
	mints       repository.NftMintRepository
	users       repository.UserRepository
	now         func() time.Time
	wg          sync.WaitGroup
}

// NewMintService keeps preparerErr for the prepare route so a missing
// contract address is reported to the operator on use.
func NewMintService(preparer *chain.MintPreparer, preparerErr error, gate EligibilityService, mints repository.NftMintRepository, users repository.UserRepository) MintService {
	return &mintService{preparer: preparer, preparerErr: preparerErr, gate: gate, mints: mints, users: users, now: time.Now}
}

func (s *mintService) Prepare(ctx context.Context, wallet, imageURL string) (*chain.UnsignedTx, error) {
	addr, err := normalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	imageURL = strings.TrimSpace(imageURL)
	if !ai.ValidImageRef(imageURL) || strings.HasPrefix(imageURL, "data:") {
		return nil, fmt.Errorf("%w: imageUrl must be an http(s) url", ErrInvalidInput)
	}
	if s.preparer == nil {
		if s.preparerErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, s.preparerErr)
		}
		return nil, fmt.Errorf("%w: mint contract is not configured", ErrConfiguration)
	}
	if s.gate != nil {
		check, err := s.gate.Check(ctx, addr)
		if err != nil {
			return nil, err
		}
		if !check.Eligible {
			return nil, fmt.Errorf("%w: holding %s, need %s", ErrNotEligible, check.FormattedBalance, check.RequiredAmount)
		}
	}
	tx, err := s.preparer.Prepare(addr, imageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	log.Printf("[mint] rid=%s stage=prepared wallet=%s to=%s value=%s", genctx.RID(ctx), addr, tx.To, tx.Value)
	return tx, nil
}

// Validate normalizes d and rejects submissions that cannot describe a mint.
func (s *mintService) Validate(d MintDetails) (MintDetails, error) {
	addr, err := normalizeWallet(d.WalletAddress)
	if err != nil {
		return d, err
	}
	d.WalletAddress = addr
	d.TxHash = strings.ToLower(strings.TrimSpace(d.TxHash))
	if b, err := hexutil.Decode(d.TxHash); err != nil || len(b) != 32 {
		return d, fmt.Errorf("%w: txHash must be a 0x-prefixed 32-byte hash", ErrInvalidInput)
	}
	d.NftImageURL = strings.TrimSpace(d.NftImageURL)
	if d.NftImageURL == "" {
		return d, fmt.Errorf("%w: nftImageUrl is required", ErrInvalidInput)
	}
	d.Username = strings.TrimPrefix(strings.TrimSpace(d.Username), "@")
	d.PfpURL = strings.TrimSpace(d.PfpURL)
	d.CastHash = strings.TrimSpace(d.CastHash)
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"username", d.Username, maxUsernameLen},
		{"pfpUrl", d.PfpURL, maxPfpURLLen},
		{"castHash", d.CastHash, maxCastHashLen},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			return d, fmt.Errorf("%w: %s is longer than %d characters", ErrInvalidInput, f.name, f.max)
		}
	}
	d.TokenBalanceAtMint = strings.TrimSpace(d.TokenBalanceAtMint)
	if d.TokenBalanceAtMint == "" {
		d.TokenBalanceAtMint = "0"
	}
	// Raw integer units only; formatted balances like "6,000,000" do not fit decimal(65,0).
	bal, ok := new(big.Int).SetString(d.TokenBalanceAtMint, 10)
	if !ok || bal.Sign() < 0 || len(bal.String()) > 65 {
		return d, fmt.Errorf("%w: tokenBalanceAtMint must be a non-negative integer in raw token units", ErrInvalidInput)
	}
	d.TokenBalanceAtMint = bal.String()
	return d, nil
}

// Record acknowledges the mint immediately and writes the log row on a
// detached context. Write failures are logged only.
func (s *mintService) Record(ctx context.Context, d MintDetails) MintReceipt {
	rid := genctx.RID(ctx)
	receipt := MintReceipt{TxHash: d.TxHash, WalletAddress: d.WalletAddress, ReceivedAt: s.now().UTC()}
	row := &model.NftMint{
		WalletAddress:      d.WalletAddress,
		Username:           d.Username,
		NftImageURL:        d.NftImageURL,
		PfpURL:             optional(d.PfpURL),
		CastText:           optional(d.CastText),
		CastHash:           optional(d.CastHash),
		CastTimestamp:      d.CastTimestamp,
		TxHash:             d.TxHash,
		TokenBalanceAtMint: d.TokenBalanceAtMint,
		MintedAt:           receipt.ReceivedAt,
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[mint] rid=%s stage=record_panic tx=%s panic=%v", rid, row.TxHash, r)
			}
		}()
		if s.mints == nil {
			log.Printf("[mint] rid=%s stage=record_skip tx=%s reason=no_store", rid, row.TxHash)
			return
		}
		if err := s.mints.Create(wctx, row); err != nil {
			log.Printf("[mint] rid=%s stage=record_fail wallet=%s tx=%s err=%v", rid, row.WalletAddress, row.TxHash, err)
			return
		}
		log.Printf("[mint] rid=%s stage=recorded id=%d wallet=%s tx=%s", rid, row.ID, row.WalletAddress, row.TxHash)
		if s.users != nil {
			u := &model.User{WalletAddress: row.WalletAddress, PfpURL: row.PfpURL, LastAccessedAt: receipt.ReceivedAt}
			if row.Username != "" {
				u.FarcasterUsername = &row.Username
			}
			if _, err := s.users.Upsert(wctx, u); err != nil {
				log.Printf("[mint] rid=%s stage=user_upsert_fail wallet=%s err=%v", rid, row.WalletAddress, err)
			}
		}
	}()
	return receipt
}

func (s *mintService) Wait() {
	s.wg.Wait()
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
