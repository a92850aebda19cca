package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tabledadrian/adrian-backend/internal/genctx"
	"github.com/tabledadrian/adrian-backend/internal/profile"
)

const defaultCastLimit = 3

// ProfileResolver is satisfied by *profile.Resolver.
type ProfileResolver interface {
	Resolve(ctx context.Context, q profile.Query) (*profile.Profile, error)
	RecentCasts(ctx context.Context, fid uint64, limit int) ([]profile.Cast, error)
}

type ProfileView struct {
	Profile *profile.Profile `json:"profile"`
	Casts   []profile.Cast   `json:"casts"`
}

type ProfileService interface {
	Lookup(ctx context.Context, q profile.Query, withCasts bool) (*ProfileView, error)
}

type profileService struct {
	resolver ProfileResolver
}

func NewProfileService(resolver ProfileResolver) ProfileService {
	return &profileService{resolver: resolver}
}

// Lookup fails only when the profile itself cannot be resolved; missing casts
// leave Casts empty.
func (s *profileService) Lookup(ctx context.Context, q profile.Query, withCasts bool) (*ProfileView, error) {
	p, err := s.resolver.Resolve(ctx, q)
	if err != nil {
		return nil, mapProfileErr(err)
	}
	view := &ProfileView{Profile: p, Casts: []profile.Cast{}}
	if withCasts {
		casts, err := s.resolver.RecentCasts(ctx, p.FID, defaultCastLimit)
		if err != nil {
			log.Printf("[profile] rid=%s stage=casts_skip fid=%d err=%v", genctx.RID(ctx), p.FID, err)
		} else {
			view.Casts = casts
		}
	}
	return view, nil
}

func mapProfileErr(err error) error {
	switch {
	case errors.Is(err, profile.ErrInvalidQuery):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case errors.Is(err, profile.ErrNotFound):
		return fmt.Errorf("%w: profile", ErrNotFound)
	default:
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
}
