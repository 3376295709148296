package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/overseas-dashboard/internal/currency"
	"github.com/wonny/overseas-dashboard/pkg/redis"
)

// rateCmd represents the rate command
var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "USD/KRW 환율 조회",
	Long: `현재 USD/KRW 환율과 출처를 출력합니다.
모든 출처가 실패하면 FX_FALLBACK_RATE 값을 사용합니다.

Example:
  go run ./cmd/dashboard rate
  go run ./cmd/dashboard rate --refresh`,
	RunE: runRate,
}

var rateRefresh bool

func init() {
	rootCmd.AddCommand(rateCmd)

	rateCmd.Flags().BoolVar(&rateRefresh, "refresh", false, "공유 캐시(Redis)를 무시하고 새로 조회")
}

func runRate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	if rateRefresh {
		if err := a.cache.Delete(ctx, redis.ExchangeRateKey("USD", "KRW")); err != nil {
			a.log.WithError(err).Warn("Failed to clear shared rate cache")
		}
	}

	var rate currency.Rate
	if rateRefresh {
		rate, err = a.rates.Refresh(ctx)
		if err != nil {
			a.log.WithError(err).Warn("Exchange rate refresh failed")
		}
	} else {
		rate = a.rates.Get(ctx)
	}

	PrintDoubleSeparator()
	PrintKeyValue("USD/KRW", fmt.Sprintf("%.2f", rate.USDToKRW), 10)
	PrintKeyValue("Source", rate.Source, 10)
	PrintKeyValue("Fetched", rate.FetchedAt.Format("2006-01-02 15:04:05"), 10)
	PrintDoubleSeparator()

	if rate.Fallback {
		PrintWarning("환율 조회에 실패해 기본값을 사용 중입니다")
	}
	return nil
}
