package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/wonny/overseas-dashboard/internal/currency"
	"github.com/wonny/overseas-dashboard/internal/dashboard"
	"github.com/wonny/overseas-dashboard/internal/portfolio"
	"github.com/wonny/overseas-dashboard/pkg/logger"
)

// Renderer runs the dashboard pipeline
type Renderer interface {
	Render(ctx context.Context, opts portfolio.Options) (*dashboard.View, error)
	CheckConnectivity(ctx context.Context) *dashboard.Connectivity
}

// RateReader returns the cached exchange rate
type RateReader interface {
	Get(ctx context.Context) currency.Rate
}

// PortfolioHandler handles portfolio API endpoints
// ⭐ SSOT: 포트폴리오 API 핸들러는 이 구조체에서만
type PortfolioHandler struct {
	renderer Renderer
	rates    RateReader
	logger   *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(renderer Renderer, rates RateReader, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		renderer: renderer,
		rates:    rates,
		logger:   log,
	}
}

// GetPortfolio returns the normalized portfolio view.
// A business failure is a 200 with "failure" set.
// GET /api/portfolio?currency=KRW&target.TSLA=300&fair.TSLA=260
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	opts, err := ParseOptions(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.renderer.Render(r.Context(), opts)
	if err != nil {
		h.logger.WithError(err).Error("Failed to render portfolio")
		respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// GetPosition returns a single holding
// GET /api/portfolio/positions/{ticker}
func (h *PortfolioHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])

	opts, err := ParseOptions(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.renderer.Render(r.Context(), opts)
	if err != nil {
		h.logger.WithError(err).Error("Failed to render portfolio")
		respondPipelineError(w, err)
		return
	}
	if view.Failure != nil {
		respondJSON(w, http.StatusOK, view)
		return
	}

	for _, pos := range view.Portfolio.Positions {
		if pos.Ticker == ticker {
			respondJSON(w, http.StatusOK, pos)
			return
		}
	}

	respondError(w, http.StatusNotFound, fmt.Sprintf("position %s not held", ticker))
}

// GetExchangeRate returns the cached USD/KRW rate
// GET /api/exchange-rate
func (h *PortfolioHandler) GetExchangeRate(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.rates.Get(r.Context()))
}

// GetConnectivity runs a token-only check against KIS
// GET /api/connectivity
func (h *PortfolioHandler) GetConnectivity(w http.ResponseWriter, r *http.Request) {
	result := h.renderer.CheckConnectivity(r.Context())

	status := http.StatusOK
	if !result.OK {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, result)
}

// ParseOptions reads currency and per-ticker overrides from a query string.
// Overrides use "target.<TICKER>" and "fair.<TICKER>" keys in USD.
func ParseOptions(q url.Values) (portfolio.Options, error) {
	opts := portfolio.Options{}

	c, ok := portfolio.ParseCurrency(q.Get("currency"))
	if !ok {
		return opts, fmt.Errorf("invalid currency %q (valid: USD, KRW)", q.Get("currency"))
	}
	opts.Currency = c

	for key, values := range q {
		prefix, ticker, found := strings.Cut(key, ".")
		if !found || len(values) == 0 {
			continue
		}

		var dest *map[string]decimal.Decimal
		switch prefix {
		case "target":
			dest = &opts.TargetOverrides
		case "fair":
			dest = &opts.FairOverrides
		default:
			continue
		}

		price, err := decimal.NewFromString(values[0])
		if err != nil || !price.IsPositive() {
			return opts, fmt.Errorf("invalid %s price for %s: %q", prefix, ticker, values[0])
		}

		if *dest == nil {
			*dest = make(map[string]decimal.Decimal)
		}
		(*dest)[strings.ToUpper(ticker)] = price
	}

	return opts, nil
}
