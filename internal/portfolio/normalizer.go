package portfolio

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/overseas-dashboard/internal/external/kis"
	"github.com/wonny/overseas-dashboard/pkg/config"
	"github.com/wonny/overseas-dashboard/pkg/logger"
)

// Normalizer turns a raw balance response into a Portfolio
// ⭐ SSOT: 잔고 원시값 → 숫자/파생값 변환은 여기서만
type Normalizer struct {
	heuristics Heuristics
	logger     *logger.Logger
}

// NewNormalizer creates a normalizer with the given placeholder heuristics
func NewNormalizer(h Heuristics, log *logger.Logger) *Normalizer {
	return &Normalizer{
		heuristics: h,
		logger:     log,
	}
}

// HeuristicsFromConfig reads multipliers from config, keeping defaults for
// non-positive values
func HeuristicsFromConfig(cfg config.PortfolioConfig) Heuristics {
	h := DefaultHeuristics()
	if cfg.FairPriceMultiplier > 0 {
		h.FairMultiplier = decimal.NewFromFloat(cfg.FairPriceMultiplier)
	}
	if cfg.TargetPriceMultiplier > 0 {
		h.TargetMultiplier = decimal.NewFromFloat(cfg.TargetPriceMultiplier)
	}
	if cfg.ChartPoints > 0 {
		h.ChartPoints = cfg.ChartPoints
	}
	return h
}

// Normalize parses resp and derives allocation, P/L and reference prices.
//
// A business failure is returned as *BusinessError before any field is
// read. Malformed numerics are returned together as ParseErrors.
func (n *Normalizer) Normalize(resp *kis.BalanceResponse, rate float64, opts Options) (*Portfolio, error) {
	if resp == nil {
		return nil, fmt.Errorf("normalize: nil balance response")
	}
	if !resp.IsSuccess() {
		return nil, &BusinessError{
			Code:    resp.RtCd,
			MsgCode: resp.MsgCd,
			Message: resp.Msg1,
			Raw:     resp.Raw,
		}
	}

	if opts.Currency == "" {
		opts.Currency = USD
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	fxRate := decimal.NewFromFloat(rate)
	conv := converter{currency: opts.Currency, rate: fxRate}

	p := &fieldParser{}

	// 1. Summary
	totalUSD := p.required(-1, "", "tot_evlu_pfls_amt", resp.Output2.TotalEvaluation)
	profitUSD := p.required(-1, "", "ovrs_tot_pfls", resp.Output2.TotalPL)

	// 2. Positions
	positions := make([]Position, 0, len(resp.Output1))
	valuationsUSD := make([]decimal.Decimal, 0, len(resp.Output1))
	sumUSD := decimal.Zero

	for i, raw := range resp.Output1 {
		pos, valuation := n.parsePosition(p, i, raw, conv, opts)
		positions = append(positions, pos)
		valuationsUSD = append(valuationsUSD, valuation)
		sumUSD = sumUSD.Add(valuation)
	}

	if err := p.err(); err != nil {
		n.logger.WithFields(map[string]interface{}{
			"fields": len(p.errs),
			"error":  err.Error(),
		}).Warn("Balance response has malformed fields")
		return nil, err
	}

	// 3. Allocation against Σ valuation so slices always add up to ~100
	for i := range positions {
		positions[i].AllocationPct = Percent(valuationsUSD[i], sumUSD).Round(1)
	}

	portfolio := &Portfolio{
		Currency:     opts.Currency,
		ExchangeRate: fxRate,
		Summary: Summary{
			TotalValuation:       conv.money(totalUSD),
			TotalProfitLoss:      conv.money(profitUSD),
			TotalValuationUSD:    totalUSD,
			TotalValuationKRW:    ToKRW(totalUSD, fxRate),
			TotalProfitLossUSD:   profitUSD,
			ProfitPct:            ProfitPct(profitUSD, totalUSD),
			PositionCount:        len(positions),
			ReconciliationGapUSD: totalUSD.Sub(sumUSD),
		},
		Positions:   positions,
		Allocation:  groupBySector(positions),
		Truncated:   resp.Truncated(),
		GeneratedAt: opts.Now,
	}

	n.logger.WithFields(map[string]interface{}{
		"positions":          len(positions),
		"currency":           string(opts.Currency),
		"reconciliation_gap": portfolio.Summary.ReconciliationGapUSD.StringFixed(2),
		"truncated":          portfolio.Truncated,
	}).Debug("Portfolio normalized")

	return portfolio, nil
}

// parsePosition returns the position in display currency and its USD valuation
func (n *Normalizer) parsePosition(p *fieldParser, i int, raw kis.RawPosition, conv converter, opts Options) (Position, decimal.Decimal) {
	ticker := upper(raw.Ticker)

	qty := p.required(i, ticker, "ovrs_cblc_qty", raw.Quantity)
	avg := p.required(i, ticker, "pchs_avg_pric", raw.AvgPrice)
	current := p.required(i, ticker, "now_pric2", raw.CurrentPrice)
	valuation := p.required(i, ticker, "ovrs_stck_evlu_amt", raw.Valuation)
	profitPct := p.required(i, ticker, "evlu_pfls_rt", raw.ProfitLossRate)

	// frcr_evlu_pfls_amt is absent on some responses; derive it then
	profit, ok := p.optional(i, ticker, "frcr_evlu_pfls_amt", raw.ProfitLoss)
	if !ok {
		profit = valuation.Sub(avg.Mul(qty))
	}

	name := raw.Name
	if name == "" {
		name = ticker
	}

	ref := n.heuristics.referencePrices(ticker, current, opts)
	ref.FairPrice = conv.money(ref.FairPrice)
	ref.TargetPrice = conv.money(ref.TargetPrice)
	ref.FairPriceGap = conv.money(ref.FairPriceGap)

	chart := n.heuristics.syntheticSeries(conv.money(current), opts.Now)

	return Position{
		Ticker:           ticker,
		DisplayName:      name,
		Exchange:         raw.Exchange,
		Sector:           SectorOf(ticker),
		Quantity:         qty,
		AvgCost:          conv.money(avg),
		CurrentPrice:     conv.money(current),
		Valuation:        conv.money(valuation),
		ProfitLoss:       conv.money(profit),
		ProfitLossPct:    profitPct,
		RawProfitLossUSD: profit,
		ValuationUSD:     valuation,
		EstimatedFee:     conv.money(estimatedFee(valuation)),
		Reference:        ref,
		Chart:            chart,
	}, valuation
}

// groupBySector builds sector → ticker rings in first-appearance order
func groupBySector(positions []Position) []AllocationGroup {
	total := decimal.Zero
	for _, pos := range positions {
		total = total.Add(pos.Valuation)
	}

	index := make(map[string]int)
	groups := make([]AllocationGroup, 0)

	for _, pos := range positions {
		gi, ok := index[pos.Sector]
		if !ok {
			gi = len(groups)
			index[pos.Sector] = gi
			groups = append(groups, AllocationGroup{Sector: pos.Sector, Value: decimal.Zero})
		}

		g := &groups[gi]
		g.Value = g.Value.Add(pos.Valuation)
		g.Holdings = append(g.Holdings, AllocationSlice{
			Ticker: pos.Ticker,
			Name:   pos.DisplayName,
			Value:  pos.Valuation,
			Pct:    Percent(pos.Valuation, total).Round(1),
		})
	}

	for i := range groups {
		groups[i].Pct = Percent(groups[i].Value, total).Round(1)
	}
	return groups
}
