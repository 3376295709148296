package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/wonny/overseas-dashboard/pkg/config"
)

// TR IDs for overseas balance queries
const (
	// 실전
	TRIDOverseasBalanceReal = "JTTT3012R"
	// 모의
	TRIDOverseasBalanceVirtual = "VTTS3012R"
)

const (
	overseasBalancePath = "/uapi/overseas-stock/v1/trading/inquire-balance"

	// Fixed market and currency; the dashboard only tracks NASDAQ in USD.
	ExchangeNASD = "NASD"
	CurrencyUSD  = "USD"
)

// FetchBalance calls the overseas balance endpoint once.
//
// Only the first page is requested (empty continuation cursors); see
// BalanceResponse.Truncated. A non-"0" rt_cd is returned as-is with a nil
// error so the caller can branch on it.
func (c *Client) FetchBalance(ctx context.Context, token string, creds config.KISConfig) (*BalanceResponse, error) {
	if token == "" {
		return nil, &AuthError{Err: ErrNoAccessToken}
	}

	trID := TRIDOverseasBalanceReal
	if creds.IsVirtual {
		trID = TRIDOverseasBalanceVirtual
	}

	query := url.Values{}
	query.Set("CANO", creds.AccountNo)
	query.Set("ACNT_PRDT_CD", creds.AccountProductCode)
	query.Set("OVRS_EXCG_CD", ExchangeNASD)
	query.Set("TR_CRCY_CD", CurrencyUSD)
	query.Set("CTX_AREA_FK200", "")
	query.Set("CTX_AREA_NK200", "")

	resp, err := c.request(ctx, http.MethodGet, overseasBalancePath, query, token, trID, creds, nil)
	if err != nil {
		return nil, &TransportError{Op: "balance", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "balance", StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: "balance", StatusCode: resp.StatusCode, Body: truncate(string(body))}
	}

	result, err := decodeBalance(body)
	if err != nil {
		return nil, &TransportError{Op: "balance", StatusCode: resp.StatusCode, Err: err}
	}
	result.TrCont = resp.Header.Get("tr_cont")
	result.Raw = json.RawMessage(body)

	log := c.logger.WithFields(map[string]interface{}{
		"rt_cd":           result.RtCd,
		"msg_cd":          result.MsgCd,
		"positions_count": len(result.Output1),
	})

	switch {
	case !result.IsSuccess():
		log.WithField("msg1", result.Msg1).Warn("Balance inquiry returned business failure")
	case result.Truncated():
		log.WithField("tr_cont", result.TrCont).Warn("Balance has more pages; only the first page is shown")
	default:
		log.Debug("Balance fetched")
	}

	return result, nil
}
