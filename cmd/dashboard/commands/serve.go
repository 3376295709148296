package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/overseas-dashboard/internal/api"
	"github.com/wonny/overseas-dashboard/internal/api/handlers"
	"github.com/wonny/overseas-dashboard/internal/scheduler"
	"github.com/wonny/overseas-dashboard/internal/scheduler/jobs"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "대시보드 API 서버 실행",
	Long: `REST + WebSocket API 서버를 실행합니다.

엔드포인트:
  GET /health
  GET /api/portfolio?currency=KRW&target.TSLA=300
  GET /api/portfolio/positions/{ticker}
  GET /api/exchange-rate
  GET /api/connectivity
  GET /api/snapshots?limit=30   (DATABASE_URL 필요)
  GET /ws/portfolio?currency=USD

DATABASE_URL 이 설정되어 있으면 SNAPSHOT_SCHEDULE 주기로 잔고 스냅샷을 저장합니다.

Example:
  go run ./cmd/dashboard serve
  go run ./cmd/dashboard serve --port 9000`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (기본값 PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, bootstrapOptions{storage: true})
	if err != nil {
		return err
	}
	defer a.close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	// Handlers
	portfolioHandler := handlers.NewPortfolioHandler(a.dashboard, a.rates, a.log)

	var lister handlers.SnapshotLister
	if a.snapshots != nil {
		lister = a.snapshots
	}
	snapshotHandler := handlers.NewSnapshotHandler(lister, a.log)

	hub := handlers.NewHub(a.dashboard, a.cfg.WSPushInterval, a.log)
	go hub.Run(ctx)

	// Scheduler
	sched := scheduler.New(a.log).WithRetry(2, 30*time.Second)
	if err := sched.AddJob(jobs.NewFXRefreshJob(a.rates, a.log)); err != nil {
		return fmt.Errorf("register fx job: %w", err)
	}
	if a.snapshots != nil {
		if err := sched.AddJob(jobs.NewSnapshotJob(a.dashboard, a.snapshots, a.cfg.SnapshotSchedule, a.log)); err != nil {
			return fmt.Errorf("register snapshot job: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	// Warm the rate cache before the first request
	if err := sched.RunJob("fx_refresh"); err != nil {
		a.log.WithError(err).Warn("Initial rate refresh not started")
	}

	var dbCheck handlers.DBChecker
	if a.db != nil {
		dbCheck = a.db
	}
	healthHandler := handlers.NewHealthHandler(dbCheck, sched)

	// Server
	router := api.NewRouter(portfolioHandler, snapshotHandler, healthHandler, hub, a.log)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintSuccess(fmt.Sprintf("서버 시작: http://localhost:%s", a.cfg.Port))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	PrintInfo("서버 종료")
	return nil
}
