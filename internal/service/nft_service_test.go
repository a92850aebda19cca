package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabledadrian/adrian-backend/internal/ai"
	"github.com/tabledadrian/adrian-backend/internal/profile"
)

func TestGenerateUsesProfilePortraitAndCasts(t *testing.T) {
	resolver := &fakeResolver{
		profile: &profile.Profile{FID: 42, Username: "adrian", AvatarURL: "https://pfp.test/a.png"},
		casts: []profile.Cast{
			{Hash: "0xc1", Text: "truffle night", Timestamp: time.Unix(1700000000, 0)},
			{Hash: "0xc2", Text: "oysters"},
		},
	}
	gen := &fakeGenerator{res: &ai.Result{ImageURL: "https://img.test/out.png", Provider: "instant_id", LikenessPreserved: true}}
	svc := NewNFTService(resolver, gen)

	res, err := svc.Generate(context.Background(), GenerateInput{Username: "@Adrian", WalletAddress: walletA})
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/out.png", res.ImageURL)
	assert.Equal(t, "adrian", res.Username)
	assert.Equal(t, "https://pfp.test/a.png", res.PfpURL)
	require.NotNil(t, res.LatestCast)
	assert.Equal(t, "0xc1", res.LatestCast.Hash)

	require.Len(t, gen.reqs, 1)
	assert.Equal(t, "https://pfp.test/a.png", gen.reqs[0].PortraitURL)
	assert.Equal(t, []string{"truffle night", "oysters"}, gen.reqs[0].Casts)
	assert.Equal(t, "Adrian", resolver.queries[0].Username)
}

func TestGenerateSurvivesProfileFailure(t *testing.T) {
	resolver := &fakeResolver{err: profile.ErrNotFound}
	gen := &fakeGenerator{res: &ai.Result{ImageURL: "https://img.test/out.png", Provider: "pollinations"}}

	res, err := NewNFTService(resolver, gen).Generate(context.Background(), GenerateInput{Username: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, "pollinations", res.Provider)
	assert.Empty(t, gen.reqs[0].PortraitURL)
}

func TestGenerateExplicitPortraitWins(t *testing.T) {
	resolver := &fakeResolver{profile: &profile.Profile{FID: 1, Username: "a", AvatarURL: "https://pfp.test/old.png"}}
	gen := &fakeGenerator{res: &ai.Result{ImageURL: "https://img.test/out.png"}}

	_, err := NewNFTService(resolver, gen).Generate(context.Background(), GenerateInput{FID: 1, PortraitURL: "https://pfp.test/new.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://pfp.test/new.png", gen.reqs[0].PortraitURL)
}

func TestGenerateErrors(t *testing.T) {
	svc := NewNFTService(&fakeResolver{}, &fakeGenerator{})
	_, err := svc.Generate(context.Background(), GenerateInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Generate(context.Background(), GenerateInput{PortraitURL: "not-a-url"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Generate(context.Background(), GenerateInput{Username: "a", WalletAddress: "0x1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	gerr := &ai.GenerationError{Kind: ai.FailureTimeout}
	_, err = NewNFTService(nil, &fakeGenerator{err: gerr}).Generate(context.Background(), GenerateInput{Username: "a"})
	assert.ErrorIs(t, err, ErrUpstream)
	var got *ai.GenerationError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, ai.FailureTimeout, got.Kind)
}

func TestProfileLookup(t *testing.T) {
	resolver := &fakeResolver{
		profile:  &profile.Profile{FID: 7, Username: "adrian"},
		castsErr: errors.New("feed down"),
	}
	v, err := NewProfileService(resolver).Lookup(context.Background(), profile.Query{FID: 7}, true)
	require.NoError(t, err)
	assert.Equal(t, "adrian", v.Profile.Username)
	assert.NotNil(t, v.Casts)
	assert.Empty(t, v.Casts)

	tests := []struct {
		err  error
		want error
	}{
		{profile.ErrNotFound, ErrNotFound},
		{profile.ErrInvalidQuery, ErrInvalidInput},
		{errors.New("boom"), ErrUpstream},
	}
	for _, tt := range tests {
		_, err := NewProfileService(&fakeResolver{err: tt.err}).Lookup(context.Background(), profile.Query{}, false)
		assert.ErrorIs(t, err, tt.want)
	}
}
