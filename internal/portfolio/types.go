package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the display currency of a normalized portfolio
type Currency string

const (
	USD Currency = "USD"
	KRW Currency = "KRW"
)

// ParseCurrency accepts "usd"/"krw" in any case; empty means USD
func ParseCurrency(s string) (Currency, bool) {
	switch Currency(upper(s)) {
	case "", USD:
		return USD, true
	case KRW:
		return KRW, true
	}
	return "", false
}

// Portfolio is the presentation-agnostic view of one balance inquiry.
// ⭐ SSOT: 모든 렌더러(CLI/API/WS)는 이 구조만 소비
type Portfolio struct {
	Currency     Currency          `json:"currency"`
	ExchangeRate decimal.Decimal   `json:"exchange_rate"` // USD → KRW
	Summary      Summary           `json:"summary"`
	Positions    []Position        `json:"positions"` // API 응답 순서, 정렬 가정 금지
	Allocation   []AllocationGroup `json:"allocation"`
	Truncated    bool              `json:"truncated"` // 첫 페이지만 조회됨
	GeneratedAt  time.Time         `json:"generated_at"`
}

// Summary is the account-level block.
// Monetary fields without a suffix are in the display currency.
type Summary struct {
	TotalValuation     decimal.Decimal `json:"total_valuation"`
	TotalProfitLoss    decimal.Decimal `json:"total_profit_loss"`
	TotalValuationUSD  decimal.Decimal `json:"total_valuation_usd"`
	TotalValuationKRW  decimal.Decimal `json:"total_valuation_krw"`
	TotalProfitLossUSD decimal.Decimal `json:"total_profit_loss_usd"`
	ProfitPct          decimal.Decimal `json:"profit_pct"`
	PositionCount      int             `json:"position_count"`

	// total - Σ position valuation, informational only
	ReconciliationGapUSD decimal.Decimal `json:"reconciliation_gap_usd"`
}

// Position is one normalized holding
type Position struct {
	Ticker      string `json:"ticker"`
	DisplayName string `json:"display_name"`
	Exchange    string `json:"exchange,omitempty"`
	Sector      string `json:"sector"`

	Quantity      decimal.Decimal `json:"quantity"`
	AvgCost       decimal.Decimal `json:"avg_cost"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	Valuation     decimal.Decimal `json:"valuation"`
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
	ProfitLossPct decimal.Decimal `json:"profit_loss_pct"`
	AllocationPct decimal.Decimal `json:"allocation_pct"`

	RawProfitLossUSD decimal.Decimal `json:"raw_profit_loss_usd"`
	ValuationUSD     decimal.Decimal `json:"valuation_usd"`

	// 예시 수수료: valuation × 0.2%, not a broker quote
	EstimatedFee decimal.Decimal `json:"estimated_fee"`

	Reference ReferencePrices `json:"reference"`
	Chart     ChartSeries     `json:"chart"`
}

// ReferencePrices are illustrative fair/target prices.
// Heuristic is true whenever either value came from a fixed multiple of
// the current price rather than user input.
type ReferencePrices struct {
	FairPrice        decimal.Decimal `json:"fair_price"`
	TargetPrice      decimal.Decimal `json:"target_price"`
	FairPriceGap     decimal.Decimal `json:"fair_price_gap"` // current - fair
	TargetReached    bool            `json:"target_reached"`
	FairOverridden   bool            `json:"fair_overridden"`
	TargetOverridden bool            `json:"target_overridden"`
	Heuristic        bool            `json:"heuristic"`
}

// ChartSeries is a synthetic price line around the current price.
// It is not market history.
type ChartSeries struct {
	Synthetic bool         `json:"synthetic"`
	Points    []ChartPoint `json:"points"`
}

// ChartPoint is one point of a ChartSeries
type ChartPoint struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// AllocationGroup is one sector ring of the allocation chart
type AllocationGroup struct {
	Sector   string            `json:"sector"`
	Value    decimal.Decimal   `json:"value"`
	Pct      decimal.Decimal   `json:"pct"`
	Holdings []AllocationSlice `json:"holdings"`
}

// AllocationSlice is one ticker within an AllocationGroup
type AllocationSlice struct {
	Ticker string          `json:"ticker"`
	Name   string          `json:"name"`
	Value  decimal.Decimal `json:"value"`
	Pct    decimal.Decimal `json:"pct"`
}

// Options are per-request normalization settings.
// Overrides live only for the request and are never persisted.
type Options struct {
	Currency        Currency
	FairOverrides   map[string]decimal.Decimal // ticker → fair price (USD)
	TargetOverrides map[string]decimal.Decimal // ticker → target price (USD)
	Now             time.Time
}
