package profile

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// farcasterEpoch is the offset hub message timestamps are counted from.
const farcasterEpoch int64 = 1609459200

type hubMessages struct {
	Messages []struct {
		Hash string `json:"hash"`
		Data struct {
			Timestamp    int64 `json:"timestamp"`
			UserDataBody *struct {
				Type  string `json:"type"`
				Value string `json:"value"`
			} `json:"userDataBody,omitempty"`
			VerificationAddAddressBody *struct {
				Address  string `json:"address"`
				Protocol string `json:"protocol"`
			} `json:"verificationAddAddressBody,omitempty"`
			CastAddBody *struct {
				Text string `json:"text"`
			} `json:"castAddBody,omitempty"`
		} `json:"data"`
	} `json:"messages"`
}

func (r *Resolver) fnameFID(ctx context.Context, username string) (uint64, error) {
	if r.cfg.FnameBaseURL == "" {
		return 0, errNotConfigured
	}
	var out struct {
		Transfer *struct {
			To uint64 `json:"to"`
		} `json:"transfer"`
	}
	endpoint := queryURL(r.cfg.FnameBaseURL, "/transfers/current", url.Values{"name": {username}})
	if err := r.getJSON(ctx, endpoint, nil, &out); err != nil {
		return 0, err
	}
	if out.Transfer == nil || out.Transfer.To == 0 {
		return 0, errEmpty
	}
	return out.Transfer.To, nil
}

func (r *Resolver) hubFIDByAddress(ctx context.Context, address string) (uint64, error) {
	if r.cfg.HubBaseURL == "" {
		return 0, errNotConfigured
	}
	var out struct {
		FID uint64 `json:"fid"`
	}
	endpoint := queryURL(r.cfg.HubBaseURL, "/v1/onChainIdRegistryEventByAddress", url.Values{"address": {address}})
	if err := r.getJSON(ctx, endpoint, nil, &out); err != nil {
		return 0, err
	}
	if out.FID == 0 {
		return 0, errEmpty
	}
	return out.FID, nil
}

// hubProfile assembles a profile field by field from USER_DATA messages.
func (r *Resolver) hubProfile(ctx context.Context, fid uint64) (*Profile, error) {
	if r.cfg.HubBaseURL == "" {
		return nil, errNotConfigured
	}
	var out hubMessages
	endpoint := queryURL(r.cfg.HubBaseURL, "/v1/userDataByFid", url.Values{"fid": {strconv.FormatUint(fid, 10)}})
	if err := r.getJSON(ctx, endpoint, nil, &out); err != nil {
		return nil, err
	}
	p := &Profile{FID: fid}
	found := false
	for _, m := range out.Messages {
		body := m.Data.UserDataBody
		if body == nil {
			continue
		}
		switch body.Type {
		case "USER_DATA_TYPE_USERNAME":
			p.Username = body.Value
		case "USER_DATA_TYPE_DISPLAY":
			p.DisplayName = body.Value
		case "USER_DATA_TYPE_PFP":
			p.AvatarURL = body.Value
		case "USER_DATA_TYPE_BIO":
			p.Bio = body.Value
		default:
			continue
		}
		found = true
	}
	if !found {
		return nil, errEmpty
	}
	return p, nil
}

func (r *Resolver) hubVerifiedAddress(ctx context.Context, fid uint64) (string, error) {
	if r.cfg.HubBaseURL == "" {
		return "", errNotConfigured
	}
	var out hubMessages
	endpoint := queryURL(r.cfg.HubBaseURL, "/v1/verificationsByFid", url.Values{"fid": {strconv.FormatUint(fid, 10)}})
	if err := r.getJSON(ctx, endpoint, nil, &out); err != nil {
		return "", err
	}
	for _, m := range out.Messages {
		v := m.Data.VerificationAddAddressBody
		if v == nil || v.Address == "" {
			continue
		}
		if v.Protocol != "" && v.Protocol != "PROTOCOL_ETHEREUM" {
			continue
		}
		return strings.ToLower(v.Address), nil
	}
	return "", errEmpty
}

func (r *Resolver) hubCasts(ctx context.Context, fid uint64, limit int) ([]Cast, error) {
	if r.cfg.HubBaseURL == "" {
		return nil, errNotConfigured
	}
	var out hubMessages
	endpoint := queryURL(r.cfg.HubBaseURL, "/v1/castsByFid", url.Values{
		"fid":      {strconv.FormatUint(fid, 10)},
		"pageSize": {strconv.Itoa(limit)},
		"reverse":  {"1"},
	})
	if err := r.getJSON(ctx, endpoint, nil, &out); err != nil {
		return nil, err
	}
	casts := make([]Cast, 0, limit)
	for _, m := range out.Messages {
		if m.Data.CastAddBody == nil {
			continue
		}
		casts = append(casts, Cast{
			Hash:      m.Hash,
			Text:      m.Data.CastAddBody.Text,
			Timestamp: time.Unix(farcasterEpoch+m.Data.Timestamp, 0).UTC(),
		})
		if len(casts) == limit {
			break
		}
	}
	return casts, nil
}
