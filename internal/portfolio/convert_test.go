package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/overseas-dashboard/pkg/config"
)

func TestCurrencyRoundTrip(t *testing.T) {
	rates := []string{"1350", "1385.47", "1412.1"}
	amounts := []string{"0", "0.01", "250.00", "123456.789", "-42.5"}

	for _, r := range rates {
		rate := decimal.RequireFromString(r)
		for _, a := range amounts {
			usd := decimal.RequireFromString(a)
			back := ToUSD(ToKRW(usd, rate), rate)
			assert.True(t, back.Sub(usd).Abs().LessThan(decimal.New(1, -9)), "rate=%s amount=%s back=%s", r, a, back)
		}
	}
}

func TestToUSD_NonPositiveRate(t *testing.T) {
	assert.True(t, ToUSD(decimal.NewFromInt(1000), decimal.Zero).IsZero())
}

func TestProfitPct(t *testing.T) {
	tests := []struct {
		name      string
		profit    string
		valuation string
		want      string
	}{
		{"gain", "500", "2500", "25"},
		{"loss", "-100", "900", "-10"},
		{"zero cost basis", "300", "300", "0"},
		{"empty", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProfitPct(decimal.RequireFromString(tt.profit), decimal.RequireFromString(tt.valuation))
			assertDecimal(t, tt.want, got)
		})
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"25", "+25.00%"},
		{"-3.1", "-3.10%"},
		{"0", "0.00%"},
		{"0.001", "0.00%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPct(decimal.RequireFromString(tt.in)))
	}
}

func TestParseCurrency(t *testing.T) {
	c, ok := ParseCurrency("krw")
	assert.True(t, ok)
	assert.Equal(t, KRW, c)

	c, ok = ParseCurrency("")
	assert.True(t, ok)
	assert.Equal(t, USD, c)

	_, ok = ParseCurrency("EUR")
	assert.False(t, ok)
}

func TestSectorOf(t *testing.T) {
	assert.Equal(t, "Technology", SectorOf("nvda"))
	assert.Equal(t, SectorUnclassified, SectorOf("ZZZZ"))
}

func TestHeuristicsFromConfig(t *testing.T) {
	h := HeuristicsFromConfig(config.PortfolioConfig{FairPriceMultiplier: 0.9, ChartPoints: 5})

	assertDecimal(t, "0.9", h.FairMultiplier)
	assertDecimal(t, "1.2", h.TargetMultiplier)
	assert.Equal(t, 5, h.ChartPoints)
}

func TestInCurrency_MatchesDirectNormalize(t *testing.T) {
	n := newTestNormalizer()

	usd, err := n.Normalize(tslaResponse(), 1400, Options{Currency: USD, Now: testNow})
	require.NoError(t, err)
	krw, err := n.Normalize(tslaResponse(), 1400, Options{Currency: KRW, Now: testNow})
	require.NoError(t, err)

	got := usd.InCurrency(KRW)

	assert.Equal(t, KRW, got.Currency)
	assertDecimal(t, krw.Summary.TotalValuation.String(), got.Summary.TotalValuation)
	assertDecimal(t, krw.Summary.TotalProfitLoss.String(), got.Summary.TotalProfitLoss)
	assertDecimal(t, krw.Summary.ProfitPct.String(), got.Summary.ProfitPct)

	require.Len(t, got.Positions, 1)
	want, pos := krw.Positions[0], got.Positions[0]
	assertDecimal(t, want.Quantity.String(), pos.Quantity)
	assertDecimal(t, want.AvgCost.String(), pos.AvgCost)
	assertDecimal(t, want.CurrentPrice.String(), pos.CurrentPrice)
	assertDecimal(t, want.Valuation.String(), pos.Valuation)
	assertDecimal(t, want.ProfitLoss.String(), pos.ProfitLoss)
	assertDecimal(t, want.EstimatedFee.String(), pos.EstimatedFee)
	assertDecimal(t, want.Reference.FairPrice.String(), pos.Reference.FairPrice)
	assertDecimal(t, want.Reference.TargetPrice.String(), pos.Reference.TargetPrice)
	assertDecimal(t, want.ValuationUSD.String(), pos.ValuationUSD)
	require.Len(t, pos.Chart.Points, len(want.Chart.Points))
	assertDecimal(t, want.Chart.Points[0].Price.String(), pos.Chart.Points[0].Price)

	require.Len(t, got.Allocation, 1)
	assertDecimal(t, want.Valuation.String(), got.Allocation[0].Value)
	assertDecimal(t, "100", got.Allocation[0].Pct)

	// The source is not modified
	assert.Equal(t, USD, usd.Currency)
	assertDecimal(t, "250", usd.Positions[0].CurrentPrice)
}

func TestInCurrency_SameCurrencyIsNoop(t *testing.T) {
	p, err := newTestNormalizer().Normalize(tslaResponse(), 1400, Options{Now: testNow})
	require.NoError(t, err)

	assert.Same(t, p, p.InCurrency(USD))
	assert.Nil(t, (*Portfolio)(nil).InCurrency(KRW))
}
