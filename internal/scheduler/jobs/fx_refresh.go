package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/overseas-dashboard/internal/currency"
	"github.com/wonny/overseas-dashboard/pkg/logger"
)

// RateRefresher is the exchange-rate cache
type RateRefresher interface {
	Refresh(ctx context.Context) (currency.Rate, error)
}

// FXRefreshJob re-fetches the USD/KRW rate ahead of user requests
type FXRefreshJob struct {
	rates  RateRefresher
	logger *logger.Logger
}

// NewFXRefreshJob creates a new exchange-rate refresh job
func NewFXRefreshJob(rates RateRefresher, log *logger.Logger) *FXRefreshJob {
	return &FXRefreshJob{
		rates:  rates,
		logger: log,
	}
}

// Name returns the job name
func (j *FXRefreshJob) Name() string {
	return "fx_refresh"
}

// Schedule returns the cron schedule (every 30 minutes)
func (j *FXRefreshJob) Schedule() string {
	return "0 */30 * * * *"
}

// Run fetches a new rate. A failed fetch keeps the cached rate and is
// reported so the scheduler retries.
func (j *FXRefreshJob) Run(ctx context.Context) error {
	rate, err := j.rates.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh exchange rate (serving %.2f from %s): %w", rate.USDToKRW, rate.Source, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"rate":   rate.USDToKRW,
		"source": rate.Source,
	}).Debug("Exchange rate warmed")

	return nil
}
