package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	virtual bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "미국 주식 포트폴리오 대시보드",
	Long: `Overseas Portfolio Dashboard

한국투자증권(KIS) 해외주식 잔고를 조회하고 USD/KRW로 환산합니다.
토큰 발급과 환율 조회를 병렬로 수행한 뒤 잔고를 조회해 정규화합니다.

Required environment (.env supported):
  APP_KEY, APP_SECRET, URL_BASE, CANO, ACNT_PRDT_CD

Usage:
  go run ./cmd/dashboard [command]

Examples:
  go run ./cmd/dashboard show
  go run ./cmd/dashboard show --currency KRW --target TSLA=300
  go run ./cmd/dashboard check-api
  go run ./cmd/dashboard rate
  go run ./cmd/dashboard serve --port 8089`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		PrintError(describeError(err))
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&virtual, "virtual", false, "모의투자 계좌 사용 (VTTS3012R)")
}
