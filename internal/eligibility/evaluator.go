package eligibility

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Result is the token-count gate outcome for one balance read.
type Result struct {
	Eligible         bool   `json:"eligible"`
	FormattedBalance string `json:"formattedBalance"`
	RawBalance       string `json:"rawBalance"`
	RequiredAmount   string `json:"requiredAmount"`
}

// Evaluate compares raw (smallest denomination) against thresholdTokens whole tokens.
func Evaluate(raw *big.Int, decimals int32, thresholdTokens int64) Result {
	if raw == nil {
		raw = new(big.Int)
	}
	required := RequiredRaw(thresholdTokens, decimals)
	return Result{
		Eligible:         raw.Cmp(required) >= 0,
		FormattedBalance: FormatUnits(raw, decimals),
		RawBalance:       raw.String(),
		RequiredAmount:   formatDecimal(decimal.NewFromInt(thresholdTokens)),
	}
}

// RequiredRaw converts a whole-token threshold to the smallest denomination.
func RequiredRaw(thresholdTokens int64, decimals int32) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(thresholdTokens), scale)
}

// TokenAmount returns raw scaled down by decimals.
func TokenAmount(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// FormatUnits renders a raw balance with thousands separators and at most
// two fraction digits, e.g. 6000000e18 -> "6,000,000".
func FormatUnits(raw *big.Int, decimals int32) string {
	return formatDecimal(TokenAmount(raw, decimals))
}

func formatDecimal(d decimal.Decimal) string {
	s := d.Truncate(2).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
