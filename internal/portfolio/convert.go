package portfolio

import (
	"github.com/shopspring/decimal"
)

// ToKRW converts a USD amount at rate (KRW per USD)
func ToKRW(usd, rate decimal.Decimal) decimal.Decimal {
	return usd.Mul(rate)
}

// ToUSD converts a KRW amount back at rate. A non-positive rate yields 0.
func ToUSD(krw, rate decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	return krw.Div(rate)
}

// converter maps USD amounts into the display currency
type converter struct {
	currency Currency
	rate     decimal.Decimal
}

func (c converter) money(usd decimal.Decimal) decimal.Decimal {
	if c.currency == KRW {
		return ToKRW(usd, c.rate)
	}
	return usd
}

// Percent returns part/whole×100, or 0 when whole is 0
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100))
}

// ProfitPct is profit relative to cost basis (valuation − profit).
// A zero cost basis yields 0.
func ProfitPct(profit, valuation decimal.Decimal) decimal.Decimal {
	return Percent(profit, valuation.Sub(profit)).Round(2)
}

// FormatPct renders a percentage with sign, e.g. "+25.00%"
func FormatPct(pct decimal.Decimal) string {
	s := pct.StringFixed(2) + "%"
	if pct.Round(2).IsPositive() {
		return "+" + s
	}
	return s
}

// InCurrency returns a copy of p with display money in cur, converted at
// p.ExchangeRate. Quantities, percentages and *USD fields are untouched.
// p is returned as-is when it is already in cur.
func (p *Portfolio) InCurrency(cur Currency) *Portfolio {
	if p == nil || cur == "" || cur == p.Currency {
		return p
	}

	rate := p.ExchangeRate
	conv := func(v decimal.Decimal) decimal.Decimal {
		if cur == KRW {
			return ToKRW(v, rate)
		}
		return ToUSD(v, rate)
	}

	out := *p
	out.Currency = cur
	out.Summary.TotalValuation = conv(p.Summary.TotalValuation)
	out.Summary.TotalProfitLoss = conv(p.Summary.TotalProfitLoss)

	out.Positions = make([]Position, len(p.Positions))
	for i, pos := range p.Positions {
		pos.AvgCost = conv(pos.AvgCost)
		pos.CurrentPrice = conv(pos.CurrentPrice)
		pos.Valuation = conv(pos.Valuation)
		pos.ProfitLoss = conv(pos.ProfitLoss)
		pos.EstimatedFee = conv(pos.EstimatedFee)
		pos.Reference.FairPrice = conv(pos.Reference.FairPrice)
		pos.Reference.TargetPrice = conv(pos.Reference.TargetPrice)
		pos.Reference.FairPriceGap = conv(pos.Reference.FairPriceGap)

		points := make([]ChartPoint, len(pos.Chart.Points))
		for j, pt := range pos.Chart.Points {
			points[j] = ChartPoint{Date: pt.Date, Price: conv(pt.Price)}
		}
		pos.Chart.Points = points

		out.Positions[i] = pos
	}
	out.Allocation = groupBySector(out.Positions)

	return &out
}
