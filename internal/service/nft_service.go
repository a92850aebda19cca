package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/tabledadrian/adrian-backend/internal/ai"
	"github.com/tabledadrian/adrian-backend/internal/genctx"
	"github.com/tabledadrian/adrian-backend/internal/profile"
)

type ImageGenerator interface {
	Generate(ctx context.Context, req ai.Request) (*ai.Result, error)
}

type GenerateInput struct {
	WalletAddress string
	Username      string
	FID           uint64
	PortraitURL   string
}

// NFTResult is the generated image plus the profile snapshot the client
// sends back when recording the mint.
type NFTResult struct {
	ai.Result
	Username   string        `json:"username,omitempty"`
	PfpURL     string        `json:"pfpUrl,omitempty"`
	LatestCast *profile.Cast `json:"latestCast,omitempty"`
}

type NFTService interface {
	Generate(ctx context.Context, in GenerateInput) (*NFTResult, error)
}

type nftService struct {
	profiles  ProfileResolver
	generator ImageGenerator
}

func NewNFTService(profiles ProfileResolver, generator ImageGenerator) NFTService {
	return &nftService{profiles: profiles, generator: generator}
}

// Generate resolves the portrait and recent casts when only an identity is
// given. Profile failures degrade to a prompt-only image.
func (s *nftService) Generate(ctx context.Context, in GenerateInput) (*NFTResult, error) {
	ctx = genctx.EnsureRID(ctx)
	rid := genctx.RID(ctx)
	in.Username = strings.TrimPrefix(strings.TrimSpace(in.Username), "@")
	in.PortraitURL = strings.TrimSpace(in.PortraitURL)
	if in.Username == "" && in.FID == 0 && in.PortraitURL == "" {
		return nil, fmt.Errorf("%w: username, fid or portraitUrl is required", ErrInvalidInput)
	}
	if in.PortraitURL != "" && !ai.ValidImageRef(in.PortraitURL) {
		return nil, fmt.Errorf("%w: portraitUrl is not a valid image url", ErrInvalidInput)
	}
	if w := strings.TrimSpace(in.WalletAddress); w != "" {
		addr, err := normalizeWallet(w)
		if err != nil {
			return nil, err
		}
		ctx = genctx.WithWallet(ctx, addr)
	}

	out := &NFTResult{Username: in.Username, PfpURL: in.PortraitURL}
	var casts []string
	if s.profiles != nil && (in.Username != "" || in.FID != 0) {
		p, err := s.profiles.Resolve(ctx, profile.Query{Username: in.Username, FID: in.FID})
		if err != nil {
			log.Printf("[nft] rid=%s stage=profile_skip username=%q fid=%d err=%v", rid, in.Username, in.FID, err)
		} else {
			if p.Username != "" {
				out.Username = p.Username
			}
			if out.PfpURL == "" {
				out.PfpURL = p.AvatarURL
			}
			recent, err := s.profiles.RecentCasts(ctx, p.FID, defaultCastLimit)
			if err != nil {
				log.Printf("[nft] rid=%s stage=casts_skip fid=%d err=%v", rid, p.FID, err)
			}
			for i := range recent {
				casts = append(casts, recent[i].Text)
			}
			if len(recent) > 0 {
				out.LatestCast = &recent[0]
			}
		}
	}

	res, err := s.generator.Generate(ctx, ai.Request{PortraitURL: out.PfpURL, Username: out.Username, Casts: casts})
	if err != nil {
		var gerr *ai.GenerationError
		if errors.As(err, &gerr) {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, gerr)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	out.Result = *res
	return out, nil
}
