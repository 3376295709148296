package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// SectorUnclassified is used for tickers outside the lookup table
const SectorUnclassified = "Unclassified"

// feeRate is the illustrative fee ratio (0.2%)
var feeRate = decimal.RequireFromString("0.002")

// sectorTable is a static ticker → sector lookup.
// It is a placeholder, not a classification service.
var sectorTable = map[string]string{
	"AAPL":  "Technology",
	"MSFT":  "Technology",
	"NVDA":  "Technology",
	"AMD":   "Technology",
	"AVGO":  "Technology",
	"INTC":  "Technology",
	"TSM":   "Technology",
	"PLTR":  "Technology",
	"GOOGL": "Communication Services",
	"GOOG":  "Communication Services",
	"META":  "Communication Services",
	"NFLX":  "Communication Services",
	"AMZN":  "Consumer Discretionary",
	"TSLA":  "Consumer Discretionary",
	"COST":  "Consumer Staples",
	"PEP":   "Consumer Staples",
	"JPM":   "Financials",
	"V":     "Financials",
	"MA":    "Financials",
	"COIN":  "Financials",
	"UNH":   "Health Care",
	"LLY":   "Health Care",
	"XOM":   "Energy",
	"QQQ":   "ETF",
	"SPY":   "ETF",
	"VOO":   "ETF",
	"SOXL":  "ETF",
	"TQQQ":  "ETF",
}

// SectorOf returns the sector of ticker or SectorUnclassified
func SectorOf(ticker string) string {
	if s, ok := sectorTable[upper(ticker)]; ok {
		return s
	}
	return SectorUnclassified
}

// Heuristics holds the placeholder multipliers
type Heuristics struct {
	FairMultiplier   decimal.Decimal
	TargetMultiplier decimal.Decimal
	ChartPoints      int
}

// DefaultHeuristics returns fair 1.1×, target 1.2× and 10 chart points
func DefaultHeuristics() Heuristics {
	return Heuristics{
		FairMultiplier:   decimal.RequireFromString("1.1"),
		TargetMultiplier: decimal.RequireFromString("1.2"),
		ChartPoints:      10,
	}
}

// referencePrices computes fair/target in USD, honouring overrides
func (h Heuristics) referencePrices(ticker string, current decimal.Decimal, opts Options) ReferencePrices {
	ref := ReferencePrices{
		FairPrice:   current.Mul(h.FairMultiplier),
		TargetPrice: current.Mul(h.TargetMultiplier),
	}

	if v, ok := opts.FairOverrides[ticker]; ok && v.IsPositive() {
		ref.FairPrice = v
		ref.FairOverridden = true
	}
	if v, ok := opts.TargetOverrides[ticker]; ok && v.IsPositive() {
		ref.TargetPrice = v
		ref.TargetOverridden = true
	}

	ref.Heuristic = !ref.FairOverridden || !ref.TargetOverridden
	ref.FairPriceGap = current.Sub(ref.FairPrice)
	ref.TargetReached = current.GreaterThanOrEqual(ref.TargetPrice)
	return ref
}

// syntheticSeries builds current × (1 + (i − n/2) × 1%) for n daily points
// ending at now
func (h Heuristics) syntheticSeries(current decimal.Decimal, now time.Time) ChartSeries {
	n := h.ChartPoints
	if n <= 0 {
		return ChartSeries{Synthetic: true, Points: []ChartPoint{}}
	}

	step := decimal.RequireFromString("0.01")
	one := decimal.NewFromInt(1)
	day := now.Truncate(24 * time.Hour)

	points := make([]ChartPoint, n)
	for i := 0; i < n; i++ {
		factor := one.Add(decimal.NewFromInt(int64(i - n/2)).Mul(step))
		points[i] = ChartPoint{
			Date:  day.AddDate(0, 0, i-(n-1)),
			Price: current.Mul(factor),
		}
	}
	return ChartSeries{Synthetic: true, Points: points}
}

func estimatedFee(valuation decimal.Decimal) decimal.Decimal {
	return valuation.Mul(feeRate)
}
