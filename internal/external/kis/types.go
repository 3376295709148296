package kis

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ============================================================
// Overseas balance (JTTT3012R) wire types
// ============================================================

// Text is a numeric wire field. KIS sends numbers as strings, but a bare
// number or null must not fail the whole response: numbers keep their
// literal text and any other JSON value is kept raw so the normalizer
// reports it as a bad field.
type Text string

// UnmarshalJSON never fails on a well-formed JSON value
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(data)
	}
	return nil
}

// String returns the raw text
func (t Text) String() string {
	return string(t)
}

// RawPosition is one holding as returned by the overseas balance API.
// Numbers arrive as text and are parsed by the portfolio normalizer.
type RawPosition struct {
	Ticker         string `json:"ovrs_pdno"`          // 해외상품번호
	Name           string `json:"ovrs_item_name"`     // 해외종목명
	Quantity       Text   `json:"ovrs_cblc_qty"`      // 해외잔고수량
	OrderableQty   Text   `json:"ord_psbl_qty"`       // 주문가능수량
	AvgPrice       Text   `json:"pchs_avg_pric"`      // 매입평균가격
	CurrentPrice   Text   `json:"now_pric2"`          // 현재가격2
	Valuation      Text   `json:"ovrs_stck_evlu_amt"` // 해외주식평가금액
	ProfitLoss     Text   `json:"frcr_evlu_pfls_amt"` // 외화평가손익금액
	ProfitLossRate Text   `json:"evlu_pfls_rt"`       // 평가손익율
	PurchaseAmount Text   `json:"frcr_pchs_amt1"`     // 외화매입금액1
	Exchange       string `json:"ovrs_excg_cd"`       // 해외거래소코드
	Currency       string `json:"tr_crcy_cd"`         // 거래통화코드
}

// RawSummary is the account-level block of the balance response
type RawSummary struct {
	PurchaseAmount  Text `json:"frcr_pchs_amt1"`     // 외화매입금액1
	RealizedPL      Text `json:"ovrs_rlzt_pfls_amt"` // 해외실현손익금액
	TotalPL         Text `json:"ovrs_tot_pfls"`      // 해외총손익
	RealizedReturn  Text `json:"rlzt_erng_rt"`       // 실현수익율
	TotalEvaluation Text `json:"tot_evlu_pfls_amt"`  // 총평가손익금액
	TotalReturn     Text `json:"tot_pftrt"`          // 총수익률
}

// UnmarshalJSON accepts both an object and a single-element array,
// KIS uses either shape for output2 depending on the TR.
func (s *RawSummary) UnmarshalJSON(data []byte) error {
	type plain RawSummary

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []plain
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("output2: %w", err)
		}
		if len(list) > 0 {
			*s = RawSummary(list[0])
		}
		return nil
	}

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("output2: %w", err)
	}
	*s = RawSummary(p)
	return nil
}

// BalanceResponse is the envelope of the overseas balance inquiry.
// A non-"0" RtCd is a business failure carried as data, not an error;
// Output1 and Output2 are then left empty.
type BalanceResponse struct {
	RtCd         string        `json:"rt_cd"`
	MsgCd        string        `json:"msg_cd"`
	Msg1         string        `json:"msg1"`
	Output1      []RawPosition `json:"output1"`
	Output2      RawSummary    `json:"output2"`
	CtxAreaFK200 Text          `json:"ctx_area_fk200"`
	CtxAreaNK200 Text          `json:"ctx_area_nk200"`

	// TrCont is the tr_cont response header: F/M means more pages exist
	TrCont string `json:"-"`

	// Raw keeps the upstream body for diagnostics
	Raw json.RawMessage `json:"-"`
}

// IsSuccess reports whether rt_cd denotes success
func (r *BalanceResponse) IsSuccess() bool {
	return r.RtCd == "0"
}

// Truncated reports whether positions beyond the first page were left
// unfetched. Continuation is never followed.
func (r *BalanceResponse) Truncated() bool {
	return r.TrCont == "F" || r.TrCont == "M"
}

// balanceEnvelope is decoded first; the outputs stay raw until rt_cd is known
type balanceEnvelope struct {
	RtCd         string          `json:"rt_cd"`
	MsgCd        string          `json:"msg_cd"`
	Msg1         string          `json:"msg1"`
	Output1      json.RawMessage `json:"output1"`
	Output2      json.RawMessage `json:"output2"`
	CtxAreaFK200 Text            `json:"ctx_area_fk200"`
	CtxAreaNK200 Text            `json:"ctx_area_nk200"`
}

// decodeBalance parses a balance body. output1/output2 are only decoded
// when rt_cd is "0", so a failure response of any shape keeps its msg1.
func decodeBalance(body []byte) (*BalanceResponse, error) {
	var env balanceEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode balance envelope: %w", err)
	}

	result := &BalanceResponse{
		RtCd:         env.RtCd,
		MsgCd:        env.MsgCd,
		Msg1:         env.Msg1,
		CtxAreaFK200: env.CtxAreaFK200,
		CtxAreaNK200: env.CtxAreaNK200,
	}
	if !result.IsSuccess() {
		return result, nil
	}

	if err := decodeOutput(env.Output1, &result.Output1); err != nil {
		return nil, fmt.Errorf("output1: %w", err)
	}
	if err := decodeOutput(env.Output2, &result.Output2); err != nil {
		return nil, err
	}
	return result, nil
}

// decodeOutput leaves dest untouched for an absent, null or "" block
func decodeOutput(raw json.RawMessage, dest interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`)) {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
