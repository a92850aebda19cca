package eligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource quotes one token in EUR.
type PriceSource interface {
	EURPrice(ctx context.Context, token string) (decimal.Decimal, error)
}

// HTTPPriceSource reads a CoinGecko-compatible token_price endpoint:
// GET {base}?contract_addresses=<token>&vs_currencies=eur -> {"<token>":{"eur":<price>}}
type HTTPPriceSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPPriceSource(baseURL, apiKey string, httpClient *http.Client) *HTTPPriceSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return &HTTPPriceSource{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

func (s *HTTPPriceSource) EURPrice(ctx context.Context, token string) (decimal.Decimal, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	q := url.Values{}
	q.Set("contract_addresses", token)
	q.Set("vs_currencies", "eur")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", s.apiKey)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("price feed status %d: %s", resp.StatusCode, string(b))
	}
	var parsed map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Zero, fmt.Errorf("price feed decode: %w", err)
	}
	for k, v := range parsed {
		if strings.EqualFold(k, token) {
			if p, ok := v["eur"]; ok {
				return p, nil
			}
		}
	}
	return decimal.Zero, fmt.Errorf("price feed: no eur quote for %s", token)
}

type PriceOrigin string

const (
	PriceFromOverride PriceOrigin = "override"
	PriceFromLive     PriceOrigin = "live"
	PriceUnavailable  PriceOrigin = "unavailable"
)

// PriceResolver resolves a price as operator override, then live lookup, then zero.
type PriceResolver struct {
	override *decimal.Decimal
	live     PriceSource
	token    string
	timeout  time.Duration
}

// NewPriceResolver parses override; an empty or non-positive override is ignored.
func NewPriceResolver(override string, live PriceSource, token string, timeout time.Duration) *PriceResolver {
	r := &PriceResolver{live: live, token: token, timeout: timeout}
	if o := strings.TrimSpace(override); o != "" {
		if d, err := decimal.NewFromString(o); err == nil && d.IsPositive() {
			r.override = &d
		} else {
			log.Printf("[price] ignoring EUR_PRICE_OVERRIDE=%q", override)
		}
	}
	return r
}

func (r *PriceResolver) Resolve(ctx context.Context) (decimal.Decimal, PriceOrigin) {
	if r.override != nil {
		return *r.override, PriceFromOverride
	}
	if r.live == nil {
		return decimal.Zero, PriceUnavailable
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	p, err := r.live.EURPrice(ctx, r.token)
	if err != nil {
		log.Printf("[price] stage=live_fail token=%s err=%v", r.token, err)
		return decimal.Zero, PriceUnavailable
	}
	if !p.IsPositive() {
		log.Printf("[price] stage=live_nonpositive token=%s price=%s", r.token, p)
		return decimal.Zero, PriceUnavailable
	}
	return p, PriceFromLive
}

// FiatResult is the EUR-value gate outcome.
type FiatResult struct {
	MeetsRequirement bool        `json:"meetsRequirement"`
	TokenAmount      string      `json:"tokenAmount"`
	FormattedBalance string      `json:"formattedBalance"`
	PriceEUR         string      `json:"priceEur"`
	PriceSource      PriceOrigin `json:"priceSource"`
	EURValue         string      `json:"eurValue"`
	MinEURValue      string      `json:"minEurValue"`
}

// EvaluateFiat values raw at price. A non-positive price forces the value to
// zero, so a pricing failure never grants access.
func EvaluateFiat(raw *big.Int, decimals int32, price decimal.Decimal, origin PriceOrigin, minEUR decimal.Decimal) FiatResult {
	amount := TokenAmount(raw, decimals)
	value := decimal.Zero
	if price.IsPositive() {
		value = amount.Mul(price)
	}
	return FiatResult{
		MeetsRequirement: value.IsPositive() && value.GreaterThanOrEqual(minEUR),
		TokenAmount:      amount.String(),
		FormattedBalance: formatDecimal(amount),
		PriceEUR:         price.String(),
		PriceSource:      origin,
		EURValue:         value.StringFixed(2),
		MinEURValue:      minEUR.String(),
	}
}
