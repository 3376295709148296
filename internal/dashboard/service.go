// Package dashboard runs the render pipeline: token and exchange rate in
// parallel, then the balance inquiry, then normalization.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/overseas-dashboard/internal/currency"
	"github.com/wonny/overseas-dashboard/internal/external/kis"
	"github.com/wonny/overseas-dashboard/internal/portfolio"
	"github.com/wonny/overseas-dashboard/pkg/config"
	"github.com/wonny/overseas-dashboard/pkg/logger"
)

// TokenSource issues access tokens
type TokenSource interface {
	GetAccessToken(ctx context.Context, creds config.KISConfig) (string, error)
}

// BalanceSource runs the overseas balance inquiry
type BalanceSource interface {
	FetchBalance(ctx context.Context, token string, creds config.KISConfig) (*kis.BalanceResponse, error)
}

// RateSource returns the current USD/KRW rate and never fails
type RateSource interface {
	Get(ctx context.Context) currency.Rate
}

// View is what every renderer consumes.
// Exactly one of Portfolio and Failure is set.
type View struct {
	Portfolio *portfolio.Portfolio `json:"portfolio,omitempty"`
	Failure   *Failure             `json:"failure,omitempty"`
	Rate      currency.Rate        `json:"rate"`
}

// InCurrency returns v with its portfolio converted to cur.
// A failure view has no money in it and is returned unchanged.
func (v *View) InCurrency(cur portfolio.Currency) *View {
	if v == nil || v.Portfolio == nil || v.Portfolio.Currency == cur {
		return v
	}
	out := *v
	out.Portfolio = v.Portfolio.InCurrency(cur)
	return &out
}

// Failure is the error panel for a business failure
type Failure struct {
	Code    string          `json:"code"`
	MsgCode string          `json:"msg_code,omitempty"`
	Message string          `json:"message"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// Connectivity is the result of a token-only round trip
type Connectivity struct {
	OK        bool          `json:"ok"`
	BaseURL   string        `json:"base_url"`
	Latency   time.Duration `json:"latency"`
	Kind      Kind          `json:"kind,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Service orchestrates one dashboard render
// ⭐ SSOT: 토큰 → 잔고 → 정규화 순서는 여기서만
type Service struct {
	creds      config.KISConfig
	auth       TokenSource
	balance    BalanceSource
	rates      RateSource
	normalizer *portfolio.Normalizer
	currency   portfolio.Currency
	logger     *logger.Logger
}

// NewService creates the pipeline.
// defaultCurrency applies when a request does not choose one.
func NewService(
	creds config.KISConfig,
	auth TokenSource,
	balance BalanceSource,
	rates RateSource,
	normalizer *portfolio.Normalizer,
	defaultCurrency portfolio.Currency,
	log *logger.Logger,
) *Service {
	if defaultCurrency == "" {
		defaultCurrency = portfolio.USD
	}
	return &Service{
		creds:      creds,
		auth:       auth,
		balance:    balance,
		rates:      rates,
		normalizer: normalizer,
		currency:   defaultCurrency,
		logger:     log.WithField("service", "dashboard"),
	}
}

// Render fetches and normalizes the account.
//
// Transport, auth and data failures are returned as errors. A business
// failure is not: it comes back as a View with Failure set.
func (s *Service) Render(ctx context.Context, opts portfolio.Options) (*View, error) {
	start := time.Now()
	if opts.Currency == "" {
		opts.Currency = s.currency
	}

	// 1. Token ∥ rate (no data dependency)
	rateCh := make(chan currency.Rate, 1)
	go func() {
		rateCh <- s.rates.Get(ctx)
	}()

	token, err := s.auth.GetAccessToken(ctx, s.creds)
	if err != nil {
		s.logger.WithError(err).Error("Token acquisition failed")
		return nil, fmt.Errorf("render: %w", err)
	}

	rate := <-rateCh

	// 2. Balance
	resp, err := s.balance.FetchBalance(ctx, token, s.creds)
	if err != nil {
		s.logger.WithError(err).Error("Balance inquiry failed")
		return nil, fmt.Errorf("render: %w", err)
	}

	// 3. Normalize
	p, err := s.normalizer.Normalize(resp, rate.USDToKRW, opts)
	if err != nil {
		var bizErr *portfolio.BusinessError
		if errors.As(err, &bizErr) {
			s.logger.WithFields(map[string]interface{}{
				"rt_cd":  bizErr.Code,
				"msg_cd": bizErr.MsgCode,
				"msg1":   bizErr.Message,
			}).Warn("Balance inquiry returned a business failure")

			return &View{
				Rate: rate,
				Failure: &Failure{
					Code:    bizErr.Code,
					MsgCode: bizErr.MsgCode,
					Message: bizErr.Message,
					Raw:     bizErr.Raw,
				},
			}, nil
		}
		return nil, fmt.Errorf("render: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"positions":     len(p.Positions),
		"currency":      string(p.Currency),
		"rate_source":   rate.Source,
		"rate_fallback": rate.Fallback,
		"duration":      time.Since(start),
	}).Info("Dashboard rendered")

	return &View{Portfolio: p, Rate: rate}, nil
}

// CheckConnectivity verifies the credentials with a token request only
func (s *Service) CheckConnectivity(ctx context.Context) *Connectivity {
	start := time.Now()
	result := &Connectivity{
		BaseURL:   s.creds.BaseURL,
		CheckedAt: start,
	}

	_, err := s.auth.GetAccessToken(ctx, s.creds)
	result.Latency = time.Since(start)

	if err != nil {
		result.Kind = Classify(err)
		result.Detail = err.Error()

		var tErr *kis.TransportError
		if errors.As(err, &tErr) && tErr.Body != "" {
			result.Detail = tErr.Body
		}

		s.logger.WithFields(map[string]interface{}{
			"kind":    string(result.Kind),
			"latency": result.Latency,
		}).Warn("KIS connectivity check failed")
		return result
	}

	result.OK = true
	s.logger.WithField("latency", result.Latency).Info("KIS connectivity check succeeded")
	return result
}
