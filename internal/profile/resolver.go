package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tabledadrian/adrian-backend/internal/genctx"
)

var (
	ErrNotFound     = errors.New("profile not found")
	ErrInvalidQuery = errors.New("username, address or fid is required")

	errNotConfigured = errors.New("source not configured")
	errEmpty         = errors.New("empty result")
)

// Config holds the upstream identity endpoints. Tests point these at httptest servers.
type Config struct {
	NeynarBaseURL string
	NeynarAPIKey  string
	HubBaseURL    string
	FnameBaseURL  string
	Timeout       time.Duration
}

type Query struct {
	Username string
	Address  string
	FID      uint64
}

type Profile struct {
	FID           uint64 `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"displayName,omitempty"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	Bio           string `json:"bio,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

type Cast struct {
	Hash      string    `json:"hash"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Likes     int       `json:"likes"`
	Recasts   int       `json:"recasts"`
	Replies   int       `json:"replies"`
}

// attempt is one source in an ordered fallback list.
type attempt[T any] struct {
	source string
	run    func(ctx context.Context) (T, error)
}

type Resolver struct {
	cfg        Config
	httpClient *http.Client
}

func NewResolver(cfg Config, httpClient *http.Client) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	cfg.NeynarBaseURL = strings.TrimRight(cfg.NeynarBaseURL, "/")
	cfg.HubBaseURL = strings.TrimRight(cfg.HubBaseURL, "/")
	cfg.FnameBaseURL = strings.TrimRight(cfg.FnameBaseURL, "/")
	return &Resolver{cfg: cfg, httpClient: httpClient}
}

// Resolve turns a username, wallet address or fid into a canonical profile.
// Upstream failures are absorbed; ErrNotFound is returned only when every
// applicable source for the id or the profile has been exhausted.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*Profile, error) {
	ctx = genctx.EnsureRID(ctx)
	q.Username = normalizeUsername(q.Username)
	q.Address = strings.ToLower(strings.TrimSpace(q.Address))
	if q.FID == 0 && q.Username == "" && q.Address == "" {
		return nil, ErrInvalidQuery
	}

	fid := q.FID
	if fid == 0 {
		var attempts []attempt[uint64]
		if q.Username != "" {
			attempts = []attempt[uint64]{
				{"neynar_username", func(ctx context.Context) (uint64, error) { return r.neynarFIDByUsername(ctx, q.Username) }},
				{"fname_registry", func(ctx context.Context) (uint64, error) { return r.fnameFID(ctx, q.Username) }},
			}
		} else {
			attempts = []attempt[uint64]{
				{"neynar_address", func(ctx context.Context) (uint64, error) { return r.neynarFIDByAddress(ctx, q.Address) }},
				{"hub_address", func(ctx context.Context) (uint64, error) { return r.hubFIDByAddress(ctx, q.Address) }},
			}
		}
		id, err := firstSuccess(ctx, r, "id_lookup", attempts)
		if err != nil {
			return nil, err
		}
		fid = id
	}

	p, err := firstSuccess(ctx, r, "profile", []attempt[*Profile]{
		{"neynar_bulk", func(ctx context.Context) (*Profile, error) { return r.neynarProfile(ctx, fid) }},
		{"hub_user_data", func(ctx context.Context) (*Profile, error) { return r.hubProfile(ctx, fid) }},
	})
	if err != nil {
		return nil, err
	}

	if p.WalletAddress == "" {
		wallet, err := firstSuccess(ctx, r, "wallet", []attempt[string]{
			{"hub_verifications", func(ctx context.Context) (string, error) { return r.hubVerifiedAddress(ctx, fid) }},
		})
		if err == nil {
			p.WalletAddress = wallet
		} else {
			p.WalletAddress = q.Address
		}
	}
	if p.Username == "" {
		p.Username = q.Username
	}
	return p, nil
}

// RecentCasts returns up to limit of the user's latest casts, newest first.
func (r *Resolver) RecentCasts(ctx context.Context, fid uint64, limit int) ([]Cast, error) {
	if fid == 0 {
		return nil, ErrInvalidQuery
	}
	if limit <= 0 || limit > 25 {
		limit = 3
	}
	ctx = genctx.EnsureRID(ctx)
	return firstSuccess(ctx, r, "casts", []attempt[[]Cast]{
		{"neynar_feed", func(ctx context.Context) ([]Cast, error) { return r.neynarCasts(ctx, fid, limit) }},
		{"hub_casts", func(ctx context.Context) ([]Cast, error) { return r.hubCasts(ctx, fid, limit) }},
	})
}

// firstSuccess runs attempts in order, each under its own timeout, and stops at the first success.
func firstSuccess[T any](ctx context.Context, r *Resolver, stage string, attempts []attempt[T]) (T, error) {
	var zero T
	rid := genctx.RID(ctx)
	for _, a := range attempts {
		actx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		start := time.Now()
		v, err := a.run(actx)
		cancel()
		if err == nil {
			log.Printf("[profile] rid=%s stage=%s source=%s ok ms=%d", rid, stage, a.source, time.Since(start).Milliseconds())
			return v, nil
		}
		log.Printf("[profile] rid=%s stage=%s source=%s fail err=%v", rid, stage, a.source, err)
		if ctx.Err() != nil {
			break
		}
	}
	return zero, ErrNotFound
}

func (r *Resolver) getJSON(ctx context.Context, endpoint string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errEmpty
	}
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func normalizeUsername(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(s)
}

func queryURL(base, path string, params url.Values) string {
	return base + path + "?" + params.Encode()
}
