package snapshot

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonny/overseas-dashboard/internal/currency"
	"github.com/wonny/overseas-dashboard/internal/portfolio"
)

// Snapshot is a persisted point-in-time account summary.
// Amounts are always stored in USD regardless of display currency.
type Snapshot struct {
	ID                 uuid.UUID          `json:"id"`
	TakenAt            time.Time          `json:"taken_at"`
	ExchangeRate       decimal.Decimal    `json:"exchange_rate"`
	RateSource         string             `json:"rate_source"`
	TotalValuationUSD  decimal.Decimal    `json:"total_valuation_usd"`
	TotalProfitLossUSD decimal.Decimal    `json:"total_profit_loss_usd"`
	ProfitPct          decimal.Decimal    `json:"profit_pct"`
	PositionCount      int                `json:"position_count"`
	Truncated          bool               `json:"truncated"`
	Positions          []PositionSnapshot `json:"positions,omitempty"`
}

// PositionSnapshot is one holding inside a Snapshot
type PositionSnapshot struct {
	Ticker        string          `json:"ticker"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	ValuationUSD  decimal.Decimal `json:"valuation_usd"`
	AllocationPct decimal.Decimal `json:"allocation_pct"`
	ProfitLossPct decimal.Decimal `json:"profit_loss_pct"`
}

// FromPortfolio builds a Snapshot from a normalized portfolio
func FromPortfolio(p *portfolio.Portfolio, rate currency.Rate) *Snapshot {
	s := &Snapshot{
		ID:                 uuid.New(),
		TakenAt:            p.GeneratedAt,
		ExchangeRate:       p.ExchangeRate,
		RateSource:         rate.Source,
		TotalValuationUSD:  p.Summary.TotalValuationUSD,
		TotalProfitLossUSD: p.Summary.TotalProfitLossUSD,
		ProfitPct:          p.Summary.ProfitPct,
		PositionCount:      p.Summary.PositionCount,
		Truncated:          p.Truncated,
		Positions:          make([]PositionSnapshot, 0, len(p.Positions)),
	}

	for _, pos := range p.Positions {
		s.Positions = append(s.Positions, PositionSnapshot{
			Ticker:        pos.Ticker,
			Name:          pos.DisplayName,
			Quantity:      pos.Quantity,
			ValuationUSD:  pos.ValuationUSD,
			AllocationPct: pos.AllocationPct,
			ProfitLossPct: pos.ProfitLossPct,
		})
	}
	return s
}
