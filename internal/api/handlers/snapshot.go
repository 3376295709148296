package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/wonny/overseas-dashboard/internal/snapshot"
	"github.com/wonny/overseas-dashboard/pkg/logger"
)

// SnapshotLister reads stored snapshots
type SnapshotLister interface {
	List(ctx context.Context, limit int) ([]snapshot.Snapshot, error)
}

// SnapshotHandler handles snapshot history endpoints
type SnapshotHandler struct {
	lister SnapshotLister
	logger *logger.Logger
}

// NewSnapshotHandler creates a new snapshot handler.
// A nil lister means history is disabled.
func NewSnapshotHandler(lister SnapshotLister, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		lister: lister,
		logger: log,
	}
}

// List returns recent snapshots
// GET /api/snapshots?limit=30
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		respondError(w, http.StatusServiceUnavailable, "snapshot history is disabled (DATABASE_URL not set)")
		return
	}

	// Parse limit parameter (default: 30, max: 500)
	limit := 30
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > 500 {
		limit = 500
	}

	snapshots, err := h.lister.List(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list snapshots")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve snapshots")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}
