package portfolio

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/overseas-dashboard/internal/external/kis"
	"github.com/wonny/overseas-dashboard/pkg/logger"
)

var testNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(DefaultHeuristics(), logger.Nop())
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got),
		append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func tslaResponse() *kis.BalanceResponse {
	return &kis.BalanceResponse{
		RtCd: "0",
		Msg1: "정상처리 되었습니다.",
		Output1: []kis.RawPosition{{
			Ticker:         "TSLA",
			Name:           "테슬라",
			Quantity:       "10",
			AvgPrice:       "200.00",
			CurrentPrice:   "250.00",
			Valuation:      "2500.00",
			ProfitLossRate: "25.00",
		}},
		Output2: kis.RawSummary{
			TotalEvaluation: "2500.00",
			TotalPL:         "500.00",
		},
	}
}

func TestNormalize_SinglePosition(t *testing.T) {
	p, err := newTestNormalizer().Normalize(tslaResponse(), 1350, Options{Now: testNow})
	require.NoError(t, err)
	require.Len(t, p.Positions, 1)

	pos := p.Positions[0]
	assert.Equal(t, "TSLA", pos.Ticker)
	assert.Equal(t, "테슬라", pos.DisplayName)
	assertDecimal(t, "100.0", pos.AllocationPct)
	assert.Equal(t, "+25.00%", FormatPct(pos.ProfitLossPct))

	// frcr_evlu_pfls_amt absent → valuation − avg×qty
	assertDecimal(t, "500", pos.RawProfitLossUSD)

	assertDecimal(t, "2500", p.Summary.TotalValuationUSD)
	assertDecimal(t, "3375000", p.Summary.TotalValuationKRW)
	assertDecimal(t, "25", p.Summary.ProfitPct)
	assertDecimal(t, "0", p.Summary.ReconciliationGapUSD)
	assert.Equal(t, USD, p.Currency)
	assert.Equal(t, "Consumer Discretionary", pos.Sector)
	assertDecimal(t, "5", pos.EstimatedFee)
}

func TestNormalize_AllocationSumsToHundred(t *testing.T) {
	resp := &kis.BalanceResponse{
		RtCd: "0",
		Output1: []kis.RawPosition{
			{Ticker: "AAPL", Quantity: "1", AvgPrice: "90", CurrentPrice: "100", Valuation: "100", ProfitLoss: "10", ProfitLossRate: "11.11"},
			{Ticker: "MSFT", Quantity: "1", AvgPrice: "210", CurrentPrice: "200", Valuation: "200", ProfitLoss: "-10", ProfitLossRate: "-4.76"},
			{Ticker: "NVDA", Quantity: "3", AvgPrice: "100", CurrentPrice: "100", Valuation: "300", ProfitLoss: "0", ProfitLossRate: "0.00"},
		},
		Output2: kis.RawSummary{TotalEvaluation: "600", TotalPL: "0"},
	}

	p, err := newTestNormalizer().Normalize(resp, 1350, Options{Now: testNow})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, pos := range p.Positions {
		sum = sum.Add(pos.AllocationPct)
	}
	tolerance := decimal.NewFromFloat(0.1).Mul(decimal.NewFromInt(int64(len(p.Positions))))
	assert.True(t, sum.Sub(decimal.NewFromInt(100)).Abs().LessThanOrEqual(tolerance), "sum=%s", sum)

	assertDecimal(t, "16.7", p.Positions[0].AllocationPct)
	assertDecimal(t, "33.3", p.Positions[1].AllocationPct)
	assertDecimal(t, "50", p.Positions[2].AllocationPct)

	// API order is kept
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, []string{p.Positions[0].Ticker, p.Positions[1].Ticker, p.Positions[2].Ticker})

	require.Len(t, p.Allocation, 1)
	assert.Equal(t, "Technology", p.Allocation[0].Sector)
	assertDecimal(t, "100", p.Allocation[0].Pct)
	assert.Len(t, p.Allocation[0].Holdings, 3)
}

func TestNormalize_EmptyPortfolio(t *testing.T) {
	resp := &kis.BalanceResponse{
		RtCd:    "0",
		Output1: []kis.RawPosition{},
		Output2: kis.RawSummary{TotalEvaluation: "0", TotalPL: "0"},
	}

	p, err := newTestNormalizer().Normalize(resp, 1350, Options{Now: testNow})
	require.NoError(t, err)

	assert.Empty(t, p.Positions)
	assert.Empty(t, p.Allocation)
	assert.True(t, p.Summary.TotalValuation.IsZero())
	assert.True(t, p.Summary.ProfitPct.IsZero())
	assert.Equal(t, 0, p.Summary.PositionCount)

	_, err = json.Marshal(p)
	assert.NoError(t, err)
}

func TestNormalize_BusinessFailureIsNotParsed(t *testing.T) {
	raw := json.RawMessage(`{"rt_cd":"1","msg1":"조회할 자료가 없습니다"}`)
	resp := &kis.BalanceResponse{
		RtCd:  "1",
		MsgCd: "KIOK0560",
		Msg1:  "조회할 자료가 없습니다",
		// Garbage that would fail parsing if it were touched
		Output1: []kis.RawPosition{{Ticker: "TSLA", Quantity: "n/a"}},
		Output2: kis.RawSummary{TotalEvaluation: "???"},
		Raw:     raw,
	}

	p, err := newTestNormalizer().Normalize(resp, 1350, Options{})
	require.Error(t, err)
	assert.Nil(t, p)

	var bizErr *BusinessError
	require.True(t, errors.As(err, &bizErr))
	assert.Equal(t, "조회할 자료가 없습니다", bizErr.Message)
	assert.Equal(t, "1", bizErr.Code)
	assert.Equal(t, "KIOK0560", bizErr.MsgCode)
	assert.JSONEq(t, string(raw), string(bizErr.Raw))

	var parseErr *ParseError
	assert.False(t, errors.As(err, &parseErr))
}

func TestNormalize_ReportsEveryMalformedField(t *testing.T) {
	resp := tslaResponse()
	resp.Output1[0].CurrentPrice = "abc"
	resp.Output1[0].Quantity = ""
	resp.Output1[0].ProfitLoss = "1,2,x"
	resp.Output2.TotalPL = ""

	_, err := newTestNormalizer().Normalize(resp, 1350, Options{})
	require.Error(t, err)

	var errs ParseErrors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 4)

	fields := make([]string, len(errs))
	for i, pe := range errs {
		fields[i] = pe.Field
	}
	assert.ElementsMatch(t, []string{"ovrs_tot_pfls", "ovrs_cblc_qty", "now_pric2", "frcr_evlu_pfls_amt"}, fields)

	var first *ParseError
	require.True(t, errors.As(err, &first))
	assert.Contains(t, err.Error(), `position 0 (TSLA): field now_pric2 is not numeric: "abc"`)
	assert.Contains(t, err.Error(), "summary: field ovrs_tot_pfls is missing")
}

func TestNormalize_WireNumbersAndOddValues(t *testing.T) {
	body := `{
		"rt_cd": "0",
		"output1": [
			{"ovrs_pdno": "TSLA", "ovrs_cblc_qty": 10, "pchs_avg_pric": "200.00", "now_pric2": 250,
			 "ovrs_stck_evlu_amt": "2500.00", "evlu_pfls_rt": 25.0},
			{"ovrs_pdno": "AAPL", "ovrs_cblc_qty": {}, "pchs_avg_pric": "150", "now_pric2": "170",
			 "ovrs_stck_evlu_amt": "1700", "evlu_pfls_rt": "13.33"}
		],
		"output2": {"tot_evlu_pfls_amt": 4200, "ovrs_tot_pfls": "700"}
	}`

	var resp kis.BalanceResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp), "odd field values must not fail the decode")

	_, err := newTestNormalizer().Normalize(&resp, 1350, Options{})
	require.Error(t, err)

	var errs ParseErrors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 1, "bare numbers are accepted; only the object is rejected")
	assert.Equal(t, 1, errs[0].Index)
	assert.Equal(t, "AAPL", errs[0].Ticker)
	assert.Equal(t, "ovrs_cblc_qty", errs[0].Field)
	assert.Equal(t, "{}", errs[0].Value)
}

func TestNormalize_WireNumbersParse(t *testing.T) {
	body := `{
		"rt_cd": "0",
		"output1": [{"ovrs_pdno": "TSLA", "ovrs_cblc_qty": 10, "pchs_avg_pric": 200, "now_pric2": 250,
			"ovrs_stck_evlu_amt": 2500, "evlu_pfls_rt": 25}],
		"output2": {"tot_evlu_pfls_amt": 2500, "ovrs_tot_pfls": 500}
	}`

	var resp kis.BalanceResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	p, err := newTestNormalizer().Normalize(&resp, 1350, Options{Now: testNow})
	require.NoError(t, err)
	require.Len(t, p.Positions, 1)
	assertDecimal(t, "10", p.Positions[0].Quantity)
	assertDecimal(t, "100.0", p.Positions[0].AllocationPct)
	assertDecimal(t, "25", p.Summary.ProfitPct)
}

func TestNormalize_KRWConvertsMoneyOnly(t *testing.T) {
	resp := tslaResponse()

	p, err := newTestNormalizer().Normalize(resp, 1400, Options{Currency: KRW, Now: testNow})
	require.NoError(t, err)

	pos := p.Positions[0]
	assertDecimal(t, "10", pos.Quantity)
	assertDecimal(t, "280000", pos.AvgCost)
	assertDecimal(t, "350000", pos.CurrentPrice)
	assertDecimal(t, "3500000", pos.Valuation)
	assertDecimal(t, "700000", pos.ProfitLoss)
	assertDecimal(t, "25", pos.ProfitLossPct)
	assertDecimal(t, "100", pos.AllocationPct)

	// USD reference fields stay in USD
	assertDecimal(t, "500", pos.RawProfitLossUSD)
	assertDecimal(t, "2500", pos.ValuationUSD)

	assertDecimal(t, "385000", pos.Reference.FairPrice)
	assertDecimal(t, "420000", pos.Reference.TargetPrice)
	assertDecimal(t, "3500000", p.Summary.TotalValuation)
	assertDecimal(t, "25", p.Summary.ProfitPct)
}

func TestNormalize_ReferencePrices(t *testing.T) {
	t.Run("heuristic defaults", func(t *testing.T) {
		p, err := newTestNormalizer().Normalize(tslaResponse(), 1350, Options{Now: testNow})
		require.NoError(t, err)

		ref := p.Positions[0].Reference
		assertDecimal(t, "275", ref.FairPrice)
		assertDecimal(t, "300", ref.TargetPrice)
		assertDecimal(t, "-25", ref.FairPriceGap)
		assert.False(t, ref.TargetReached)
		assert.True(t, ref.Heuristic)
	})

	t.Run("user overrides", func(t *testing.T) {
		opts := Options{
			Now:             testNow,
			TargetOverrides: map[string]decimal.Decimal{"TSLA": decimal.NewFromInt(240)},
			FairOverrides:   map[string]decimal.Decimal{"TSLA": decimal.NewFromInt(260)},
		}
		p, err := newTestNormalizer().Normalize(tslaResponse(), 1350, opts)
		require.NoError(t, err)

		ref := p.Positions[0].Reference
		assertDecimal(t, "240", ref.TargetPrice)
		assertDecimal(t, "-10", ref.FairPriceGap)
		assert.True(t, ref.TargetReached)
		assert.True(t, ref.TargetOverridden)
		assert.False(t, ref.Heuristic)
	})
}

func TestNormalize_SyntheticChart(t *testing.T) {
	p, err := newTestNormalizer().Normalize(tslaResponse(), 1350, Options{Now: testNow})
	require.NoError(t, err)

	chart := p.Positions[0].Chart
	assert.True(t, chart.Synthetic)
	require.Len(t, chart.Points, 10)
	assertDecimal(t, "237.5", chart.Points[0].Price)
	assertDecimal(t, "250", chart.Points[5].Price)
	assertDecimal(t, "260", chart.Points[9].Price)
	assert.True(t, chart.Points[9].Date.Equal(testNow.Truncate(24*time.Hour)))
	assert.True(t, chart.Points[0].Date.Before(chart.Points[9].Date))
}

func TestNormalize_NilResponse(t *testing.T) {
	_, err := newTestNormalizer().Normalize(nil, 1350, Options{})
	assert.Error(t, err)
}

func TestNormalize_TruncatedFlag(t *testing.T) {
	resp := tslaResponse()
	resp.TrCont = "M"

	p, err := newTestNormalizer().Normalize(resp, 1350, Options{Now: testNow})
	require.NoError(t, err)
	assert.True(t, p.Truncated)
}
