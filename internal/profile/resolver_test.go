package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstream fakes the identity API, the hub and the name registry on one server.
type upstream struct {
	mu     sync.Mutex
	hits   map[string]int
	routes map[string]func(w http.ResponseWriter, r *http.Request)
}

func newUpstream(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) (*upstream, *httptest.Server) {
	u := &upstream{hits: map[string]int{}, routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits[r.URL.Path]++
		u.mu.Unlock()
		if h, ok := u.routes[r.URL.Path]; ok {
			h(w, r)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return u, srv
}

func (u *upstream) count(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func jsonBody(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func failing(status int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(status) }
}

func newTestResolver(srv *httptest.Server, apiKey string) *Resolver {
	return NewResolver(Config{
		NeynarBaseURL: srv.URL,
		NeynarAPIKey:  apiKey,
		HubBaseURL:    srv.URL,
		FnameBaseURL:  srv.URL,
		Timeout:       2 * time.Second,
	}, srv.Client())
}

const neynarUserJSON = `{"fid":42,"username":"adrian","display_name":"Adrian","pfp_url":"https://img.example/pfp.png","profile":{"bio":{"text":"chef"}},"verified_addresses":{"eth_addresses":["0xAAAA000000000000000000000000000000000001"]}}`

func TestResolveByUsernamePrimary(t *testing.T) {
	up, srv := newUpstream(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v2/farcaster/user/by_username": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "adrian", r.URL.Query().Get("username"))
			assert.Equal(t, "key", r.Header.Get("x-api-key"))
			jsonBody(`{"user":`+neynarUserJSON+`}`)(w, r)
		},
		"/v2/farcaster/user/bulk": jsonBody(`{"users":[` + neynarUserJSON + `]}`),
	})
	p, err := newTestResolver(srv, "key").Resolve(context.Background(), Query{Username: "@Adrian"})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), p.FID)
	assert.Equal(t, "adrian", p.Username)
	assert.Equal(t, "Adrian", p.DisplayName)
	assert.Equal(t, "https://img.example/pfp.png", p.AvatarURL)
	assert.Equal(t, "chef", p.Bio)
	assert.Equal(t, "0xaaaa000000000000000000000000000000000001", p.WalletAddress)
	assert.Equal(t, 0, up.count("/transfers/current"))
	assert.Equal(t, 0, up.count("/v1/userDataByFid"))
}

func TestResolveUsernameFallsBackToRegistryAndHub(t *testing.T) {
	up, srv := newUpstream(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v2/farcaster/user/by_username": failing(http.StatusBadGateway),
		"/transfers/current":             jsonBody(`{"transfer":{"to":77}}`),
		"/v2/farcaster/user/bulk":        failing(http.StatusInternalServerError),
		"/v1/userDataByFid": jsonBody(`{"messages":[
			{"data":{"userDataBody":{"type":"USER_DATA_TYPE_USERNAME","value":"bob"}}},
			{"data":{"userDataBody":{"type":"USER_DATA_TYPE_PFP","value":"https://img.example/bob.png"}}},
			{"data":{"userDataBody":{"type":"USER_DATA_TYPE_DISPLAY","value":"Bob"}}},
			{"data":{"userDataBody":{"type":"USER_DATA_TYPE_BIO","value":"hi"}}}
		]}`),
		"/v1/verificationsByFid": jsonBody(`{"messages":[{"data":{"verificationAddAddressBody":{"address":"0xBBBB000000000000000000000000000000000002","protocol":"PROTOCOL_ETHEREUM"}}}]}`),
	})
	p, err := newTestResolver(srv, "key").Resolve(context.Background(), Query{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, uint64(77), p.FID)
	assert.Equal(t, "bob", p.Username)
	assert.Equal(t, "Bob", p.DisplayName)
	assert.Equal(t, "https://img.example/bob.png", p.AvatarURL)
	assert.Equal(t, "0xbbbb000000000000000000000000000000000002", p.WalletAddress)
	assert.Equal(t, 1, up.count("/v2/farcaster/user/by_username"))
	assert.Equal(t, 1, up.count("/transfers/current"))
}

func TestResolveByAddressKeepsInputWalletWhenVerificationFails(t *testing.T) {
	up, srv := newUpstream(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v2/farcaster/user/bulk-by-address":  failing(http.StatusTooManyRequests),
		"/v1/onChainIdRegistryEventByAddress": jsonBody(`{"fid":9}`),
		"/v2/farcaster/user/bulk":             jsonBody(`{"users":[{"fid":9,"username":"nine"}]}`),
	})
	p, err := newTestResolver(srv, "key").Resolve(context.Background(), Query{Address: "0xCCCC000000000000000000000000000000000003"})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), p.FID)
	assert.Equal(t, "nine", p.Username)
	assert.Equal(t, "0xcccc000000000000000000000000000000000003", p.WalletAddress)
	assert.Equal(t, 1, up.count("/v1/verificationsByFid"))
}

func TestResolveByFIDSkipsLookup(t *testing.T) {
	up, srv := newUpstream(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v2/farcaster/user/bulk": jsonBody(`{"users":[` + neynarUserJSON + `]}`),
	})
	p, err := newTestResolver(srv, "key").Resolve(context.Background(), Query{FID: 42})
	require.NoError(t, err)
	assert.Equal(t, "adrian", p.Username)
	assert.Equal(t, 0, up.count("/v2/farcaster/user/by_username"))
	assert.Equal(t, 0, up.count("/v2/farcaster/user/bulk-by-address"))
}

func TestResolveWithoutNeynarKeyUsesSecondarySources(t *testing.T) {
	up, srv := newUpstream(t, map[string]func(http.ResponseWriter, *http.Request){
		"/transfers/current": jsonBody(`{"transfer":{"to":5}}`),
		"/v1/userDataByFid":  jsonBody(`{"messages":[{"data":{"userDataBody":{"type":"USER_DATA_TYPE_PFP","value":"https://img.example/5.png"}}}]}`),
	})
	p, err := newTestResolver(srv, "").Resolve(context.Background(), Query{Username: "five"})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), p.FID)
	assert.Equal(t, "five", p.Username)
	assert.Equal(t, 0, up.count("/v2/farcaster/user/by_username"))
}

func TestResolveNotFound(t *testing.T) {
	_, srv := newUpstream(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v2/farcaster/user/by_username": failing(http.StatusNotFound),
		"/transfers/current":             jsonBody(`{}`),
	})
	_, err := newTestResolver(srv, "key").Resolve(context.Background(), Query{Username: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, srv2 := newUpstream(t, map[string]func(http.ResponseWriter, *http.Request){})
	_, err = newTestResolver(srv2, "key").Resolve(context.Background(), Query{FID: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveInvalidQuery(t *testing.T) {
	_, srv := newUpstream(t, nil)
	_, err := newTestResolver(srv, "key").Resolve(context.Background(), Query{Username: "  @ "})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestResolveSlowSourceTimesOutAndFallsBack(t *testing.T) {
	_, srv := newUpstream(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v2/farcaster/user/by_username": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			w.WriteHeader(http.StatusGatewayTimeout)
		},
		"/transfers/current":      jsonBody(`{"transfer":{"to":3}}`),
		"/v2/farcaster/user/bulk": jsonBody(`{"users":[{"fid":3,"username":"three"}]}`),
	})
	r := newTestResolver(srv, "key")
	r.cfg.Timeout = 100 * time.Millisecond
	p, err := r.Resolve(context.Background(), Query{Username: "three"})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), p.FID)
}

func TestRecentCasts(t *testing.T) {
	up, srv := newUpstream(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v2/farcaster/feed/user/casts": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			jsonBody(`{"casts":[
				{"hash":"0x1","text":"first","timestamp":"2025-01-02T03:04:05Z","reactions":{"likes_count":4,"recasts_count":1},"replies":{"count":2}},
				{"hash":"0x2","text":"second","timestamp":"2025-01-01T00:00:00Z"}
			]}`)(w, r)
		},
	})
	casts, err := newTestResolver(srv, "key").RecentCasts(context.Background(), 42, 3)
	require.NoError(t, err)
	require.Len(t, casts, 2)
	assert.Equal(t, "first", casts[0].Text)
	assert.Equal(t, 4, casts[0].Likes)
	assert.Equal(t, 2, casts[0].Replies)
	assert.Equal(t, 0, up.count("/v1/castsByFid"))
}

func TestRecentCastsHubFallback(t *testing.T) {
	_, srv := newUpstream(t, map[string]func(http.ResponseWriter, *http.Request){
		"/v2/farcaster/feed/user/casts": failing(http.StatusInternalServerError),
		"/v1/castsByFid": jsonBody(`{"messages":[
			{"hash":"0xa","data":{"timestamp":100,"castAddBody":{"text":"from hub"}}},
			{"hash":"0xb","data":{"timestamp":50}}
		]}`),
	})
	casts, err := newTestResolver(srv, "key").RecentCasts(context.Background(), 42, 3)
	require.NoError(t, err)
	require.Len(t, casts, 1)
	assert.Equal(t, "from hub", casts[0].Text)
	assert.Equal(t, time.Unix(farcasterEpoch+100, 0).UTC(), casts[0].Timestamp)
}
