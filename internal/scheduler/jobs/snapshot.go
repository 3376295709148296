package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/overseas-dashboard/internal/dashboard"
	"github.com/wonny/overseas-dashboard/internal/portfolio"
	"github.com/wonny/overseas-dashboard/internal/snapshot"
	"github.com/wonny/overseas-dashboard/pkg/logger"
)

// Renderer produces a dashboard view
type Renderer interface {
	Render(ctx context.Context, opts portfolio.Options) (*dashboard.View, error)
}

// SnapshotStore persists snapshots
type SnapshotStore interface {
	Save(ctx context.Context, s *snapshot.Snapshot) error
}

// SnapshotJob renders the account and stores a USD summary
type SnapshotJob struct {
	renderer Renderer
	store    SnapshotStore
	schedule string
	logger   *logger.Logger
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(renderer Renderer, store SnapshotStore, schedule string, log *logger.Logger) *SnapshotJob {
	if schedule == "" {
		schedule = "0 0 * * * *"
	}
	return &SnapshotJob{
		renderer: renderer,
		store:    store,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "portfolio_snapshot"
}

// Schedule returns the cron schedule (hourly by default)
func (j *SnapshotJob) Schedule() string {
	return j.schedule
}

// Run renders the portfolio and saves it
func (j *SnapshotJob) Run(ctx context.Context) error {
	view, err := j.renderer.Render(ctx, portfolio.Options{Currency: portfolio.USD})
	if err != nil {
		return fmt.Errorf("render portfolio: %w", err)
	}

	// 업무 오류는 재시도해도 같은 결과
	if view.Failure != nil {
		j.logger.WithFields(map[string]interface{}{
			"rt_cd": view.Failure.Code,
			"msg1":  view.Failure.Message,
		}).Warn("Snapshot skipped: balance inquiry rejected")
		return nil
	}

	s := snapshot.FromPortfolio(view.Portfolio, view.Rate)
	if err := j.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"snapshot_id": s.ID.String(),
		"positions":   s.PositionCount,
	}).Info("Portfolio snapshot saved")

	return nil
}
