package profile

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type neynarUser struct {
	FID         uint64 `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	PfpURL      string `json:"pfp_url"`
	Profile     struct {
		Bio struct {
			Text string `json:"text"`
		} `json:"bio"`
	} `json:"profile"`
	VerifiedAddresses struct {
		EthAddresses []string `json:"eth_addresses"`
	} `json:"verified_addresses"`
}

func (u neynarUser) toProfile() *Profile {
	p := &Profile{
		FID:         u.FID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.PfpURL,
		Bio:         u.Profile.Bio.Text,
	}
	if len(u.VerifiedAddresses.EthAddresses) > 0 {
		p.WalletAddress = strings.ToLower(u.VerifiedAddresses.EthAddresses[0])
	}
	return p
}

func (r *Resolver) neynarHeaders() map[string]string {
	return map[string]string{"x-api-key": r.cfg.NeynarAPIKey}
}

func (r *Resolver) neynarReady() error {
	if r.cfg.NeynarAPIKey == "" || r.cfg.NeynarBaseURL == "" {
		return errNotConfigured
	}
	return nil
}

func (r *Resolver) neynarFIDByUsername(ctx context.Context, username string) (uint64, error) {
	if err := r.neynarReady(); err != nil {
		return 0, err
	}
	var out struct {
		User *neynarUser `json:"user"`
	}
	endpoint := queryURL(r.cfg.NeynarBaseURL, "/v2/farcaster/user/by_username", url.Values{"username": {username}})
	if err := r.getJSON(ctx, endpoint, r.neynarHeaders(), &out); err != nil {
		return 0, err
	}
	if out.User == nil || out.User.FID == 0 {
		return 0, errEmpty
	}
	return out.User.FID, nil
}

func (r *Resolver) neynarFIDByAddress(ctx context.Context, address string) (uint64, error) {
	if err := r.neynarReady(); err != nil {
		return 0, err
	}
	var out map[string][]neynarUser
	endpoint := queryURL(r.cfg.NeynarBaseURL, "/v2/farcaster/user/bulk-by-address", url.Values{"addresses": {address}})
	if err := r.getJSON(ctx, endpoint, r.neynarHeaders(), &out); err != nil {
		return 0, err
	}
	for k, users := range out {
		if !strings.EqualFold(k, address) {
			continue
		}
		for _, u := range users {
			if u.FID != 0 {
				return u.FID, nil
			}
		}
	}
	return 0, errEmpty
}

func (r *Resolver) neynarProfile(ctx context.Context, fid uint64) (*Profile, error) {
	if err := r.neynarReady(); err != nil {
		return nil, err
	}
	var out struct {
		Users []neynarUser `json:"users"`
	}
	endpoint := queryURL(r.cfg.NeynarBaseURL, "/v2/farcaster/user/bulk", url.Values{"fids": {strconv.FormatUint(fid, 10)}})
	if err := r.getJSON(ctx, endpoint, r.neynarHeaders(), &out); err != nil {
		return nil, err
	}
	if len(out.Users) == 0 || out.Users[0].FID == 0 {
		return nil, errEmpty
	}
	return out.Users[0].toProfile(), nil
}

func (r *Resolver) neynarCasts(ctx context.Context, fid uint64, limit int) ([]Cast, error) {
	if err := r.neynarReady(); err != nil {
		return nil, err
	}
	var out struct {
		Casts []struct {
			Hash      string    `json:"hash"`
			Text      string    `json:"text"`
			Timestamp time.Time `json:"timestamp"`
			Reactions struct {
				LikesCount   int `json:"likes_count"`
				RecastsCount int `json:"recasts_count"`
			} `json:"reactions"`
			Replies struct {
				Count int `json:"count"`
			} `json:"replies"`
		} `json:"casts"`
	}
	endpoint := queryURL(r.cfg.NeynarBaseURL, "/v2/farcaster/feed/user/casts", url.Values{
		"fid":   {strconv.FormatUint(fid, 10)},
		"limit": {strconv.Itoa(limit)},
	})
	if err := r.getJSON(ctx, endpoint, r.neynarHeaders(), &out); err != nil {
		return nil, err
	}
	casts := make([]Cast, 0, len(out.Casts))
	for _, c := range out.Casts {
		casts = append(casts, Cast{
			Hash:      c.Hash,
			Text:      c.Text,
			Timestamp: c.Timestamp,
			Likes:     c.Reactions.LikesCount,
			Recasts:   c.Reactions.RecastsCount,
			Replies:   c.Replies.Count,
		})
		if len(casts) == limit {
			break
		}
	}
	return casts, nil
}
