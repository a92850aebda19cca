package eligibility

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokens(n int64) *big.Int {
	return RequiredRaw(n, 18)
}

func TestEvaluateExamples(t *testing.T) {
	got := Evaluate(tokens(6_000_000), 18, 5_000_000)
	assert.True(t, got.Eligible)
	assert.Equal(t, "6,000,000", got.FormattedBalance)
	assert.Equal(t, "5,000,000", got.RequiredAmount)
	assert.Equal(t, tokens(6_000_000).String(), got.RawBalance)

	got = Evaluate(tokens(4_000_000), 18, 5_000_000)
	assert.False(t, got.Eligible)
	assert.Equal(t, "4,000,000", got.FormattedBalance)
}

func TestEvaluateBoundaryAndNil(t *testing.T) {
	assert.True(t, Evaluate(tokens(5_000_000), 18, 5_000_000).Eligible)
	justBelow := new(big.Int).Sub(tokens(5_000_000), big.NewInt(1))
	assert.False(t, Evaluate(justBelow, 18, 5_000_000).Eligible)
	assert.False(t, Evaluate(nil, 18, 1).Eligible)
}

func TestEvaluateMonotonic(t *testing.T) {
	balances := []int64{0, 1, 4_999_999, 5_000_000, 5_000_001, 10_000_000, 1 << 40}
	prev := false
	for _, b := range balances {
		cur := Evaluate(tokens(b), 18, 5_000_000).Eligible
		if prev {
			assert.True(t, cur, "eligibility dropped at %d", b)
		}
		prev = cur
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		raw      string
		decimals int32
		want     string
	}{
		{"0", 18, "0"},
		{"1000000000000000000", 18, "1"},
		{"1234567890000000000000", 18, "1,234.56"},
		{"1500000", 6, "1.5"},
		{"999", 0, "999"},
		{"1000", 0, "1,000"},
		{"1", 18, "0"},
	}
	for _, tt := range tests {
		raw, ok := new(big.Int).SetString(tt.raw, 10)
		require.True(t, ok)
		assert.Equal(t, tt.want, FormatUnits(raw, tt.decimals), tt.raw)
	}
}

type stubPrice struct {
	price decimal.Decimal
	err   error
	calls int
}

func (s *stubPrice) EURPrice(context.Context, string) (decimal.Decimal, error) {
	s.calls++
	return s.price, s.err
}

func TestPriceResolverPriority(t *testing.T) {
	live := &stubPrice{price: decimal.RequireFromString("0.5")}

	p, origin := NewPriceResolver("0.25", live, "0xabc", time.Second).Resolve(context.Background())
	assert.Equal(t, PriceFromOverride, origin)
	assert.True(t, p.Equal(decimal.RequireFromString("0.25")))
	assert.Equal(t, 0, live.calls)

	p, origin = NewPriceResolver("", live, "0xabc", time.Second).Resolve(context.Background())
	assert.Equal(t, PriceFromLive, origin)
	assert.True(t, p.Equal(decimal.RequireFromString("0.5")))

	p, origin = NewPriceResolver("garbage", &stubPrice{err: errors.New("down")}, "0xabc", time.Second).Resolve(context.Background())
	assert.Equal(t, PriceUnavailable, origin)
	assert.True(t, p.IsZero())

	p, origin = NewPriceResolver("", &stubPrice{price: decimal.NewFromInt(-1)}, "0xabc", time.Second).Resolve(context.Background())
	assert.Equal(t, PriceUnavailable, origin)
	assert.True(t, p.IsZero())
}

func TestEvaluateFiatFailClosed(t *testing.T) {
	huge := tokens(1 << 40)
	one := decimal.NewFromInt(1)

	res := EvaluateFiat(huge, 18, decimal.Zero, PriceUnavailable, one)
	assert.False(t, res.MeetsRequirement)
	assert.Equal(t, "0.00", res.EURValue)

	res = EvaluateFiat(huge, 18, decimal.NewFromInt(-3), PriceFromLive, one)
	assert.False(t, res.MeetsRequirement)

	res = EvaluateFiat(tokens(5_000_000), 18, decimal.RequireFromString("0.000001"), PriceFromLive, one)
	assert.True(t, res.MeetsRequirement)
	assert.Equal(t, "5.00", res.EURValue)

	res = EvaluateFiat(tokens(1), 18, decimal.RequireFromString("0.000001"), PriceFromLive, one)
	assert.False(t, res.MeetsRequirement)
}

func TestHTTPPriceSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eur", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "0xabc", r.URL.Query().Get("contract_addresses"))
		_, _ = w.Write([]byte(`{"0xabc":{"eur":0.0000042}}`))
	}))
	defer srv.Close()

	p, err := NewHTTPPriceSource(srv.URL, "", srv.Client()).EURPrice(context.Background(), "0xABC")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.RequireFromString("0.0000042")))
}

func TestHTTPPriceSourceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("contract_addresses") == "0xdead" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	src := NewHTTPPriceSource(srv.URL, "", srv.Client())
	_, err := src.EURPrice(context.Background(), "0xdead")
	assert.Error(t, err)
	_, err = src.EURPrice(context.Background(), "0xabc")
	assert.Error(t, err)
}
