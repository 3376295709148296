package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/overseas-dashboard/internal/scheduler"
	"github.com/wonny/overseas-dashboard/pkg/database"
)

// DBChecker reports database health
type DBChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// JobStatsReader exposes scheduler statistics
type JobStatsReader interface {
	GetJobStats() map[string]scheduler.JobStats
}

// HealthResponse is the /health body.
// Database and Jobs are omitted when the component is not running.
type HealthResponse struct {
	Status   string                        `json:"status"` // ok, degraded
	Service  string                        `json:"service"`
	Database *database.HealthStatus        `json:"database,omitempty"`
	Jobs     map[string]scheduler.JobStats `json:"jobs,omitempty"`
}

// HealthHandler handles the health endpoint
type HealthHandler struct {
	db   DBChecker
	jobs JobStatsReader
}

// NewHealthHandler creates a health handler; both arguments may be nil
func NewHealthHandler(db DBChecker, jobs JobStatsReader) *HealthHandler {
	return &HealthHandler{db: db, jobs: jobs}
}

// Check returns server health.
// A failing database degrades the status but keeps 200: the dashboard itself
// does not need it.
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Service: "overseas-dashboard",
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, err := h.db.HealthCheck(ctx)
		resp.Database = status
		if err != nil {
			resp.Status = "degraded"
		}
	}

	if h.jobs != nil {
		resp.Jobs = h.jobs.GetJobStats()
	}

	respondJSON(w, http.StatusOK, resp)
}
