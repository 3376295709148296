package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// checkAPICmd represents the check-api command
var checkAPICmd = &cobra.Command{
	Use:   "check-api",
	Short: "증권사 API 연결 확인",
	Long: `APP_KEY/APP_SECRET 으로 토큰 발급만 요청해 연결을 확인합니다.
잔고는 조회하지 않습니다.

Example:
  go run ./cmd/dashboard check-api`,
	RunE: runCheckAPI,
}

func init() {
	rootCmd.AddCommand(checkAPICmd)
}

func runCheckAPI(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	result := a.dashboard.CheckConnectivity(cmd.Context())

	if result.OK {
		PrintSuccess(fmt.Sprintf("연결 성공! 증권사 서버와 통신이 됩니다. (%s, %dms)", result.BaseURL, result.Latency.Milliseconds()))
		return nil
	}

	PrintError("연결 실패... 키 값을 다시 확인해주세요.")
	PrintSeparator()
	fmt.Println(result.Detail)
	PrintSeparator()

	return errors.New("connectivity check failed")
}
