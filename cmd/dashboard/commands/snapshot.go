package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/overseas-dashboard/internal/portfolio"
	"github.com/wonny/overseas-dashboard/internal/snapshot"
)

// snapshotCmd represents the snapshot command group
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "잔고 스냅샷 저장/조회 (DATABASE_URL 필요)",
	Long: `PostgreSQL 에 잔고 요약 스냅샷을 저장하거나 최근 기록을 조회합니다.

Example:
  go run ./cmd/dashboard snapshot take
  go run ./cmd/dashboard snapshot list --limit 10`,
}

var snapshotTakeCmd = &cobra.Command{
	Use:   "take",
	Short: "현재 잔고를 스냅샷으로 저장",
	RunE:  runSnapshotTake,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "최근 스냅샷 조회",
	RunE:  runSnapshotList,
}

var snapshotLimit int

var errSnapshotsDisabled = errors.New("snapshot history is disabled: set DATABASE_URL")

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotTakeCmd)
	snapshotCmd.AddCommand(snapshotListCmd)

	snapshotListCmd.Flags().IntVar(&snapshotLimit, "limit", 30, "조회 개수")
}

func runSnapshotTake(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, bootstrapOptions{storage: true})
	if err != nil {
		return err
	}
	defer a.close()

	if a.snapshots == nil {
		return errSnapshotsDisabled
	}

	view, err := a.dashboard.Render(ctx, portfolio.Options{Currency: portfolio.USD})
	if err != nil {
		return err
	}
	if view.Failure != nil {
		printFailure(view.Failure, false)
		return errors.New("balance inquiry rejected, snapshot not saved")
	}

	s := snapshot.FromPortfolio(view.Portfolio, view.Rate)
	if err := a.snapshots.Save(ctx, s); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("스냅샷 저장 완료: %s (%d 종목, %s)",
		s.ID, s.PositionCount, FormatMoney(s.TotalValuationUSD, portfolio.USD)))
	if s.Truncated {
		PrintWarning("보유 종목이 한 페이지를 넘어 일부만 저장되었습니다")
	}
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, bootstrapOptions{storage: true})
	if err != nil {
		return err
	}
	defer a.close()

	if a.snapshots == nil {
		return errSnapshotsDisabled
	}

	list, err := a.snapshots.List(ctx, snapshotLimit)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		PrintInfo("저장된 스냅샷이 없습니다")
		return nil
	}

	widths := []int{20, 16, 16, 10, 8}
	PrintTableHeader([]string{"Taken", "Value (USD)", "P/L (USD)", "P/L %", "Count"}, widths)
	for _, s := range list {
		PrintTableRow([]string{
			s.TakenAt.Local().Format("2006-01-02 15:04"),
			FormatMoney(s.TotalValuationUSD, portfolio.USD),
			FormatMoney(s.TotalProfitLossUSD, portfolio.USD),
			portfolio.FormatPct(s.ProfitPct),
			fmt.Sprintf("%d", s.PositionCount),
		}, widths)
	}
	return nil
}
