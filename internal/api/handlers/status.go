package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/controllers"
	"github.com/toribox/toriadmin/internal/models"
)

// StatusHandler handles status requests
type StatusHandler struct {
	dashboard   *controllers.DashboardController
	episodeCtrl *controllers.EpisodeController
	db          *models.Database
	logger      *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(dashboard *controllers.DashboardController, episodeCtrl *controllers.EpisodeController, db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		dashboard:   dashboard,
		episodeCtrl: episodeCtrl,
		db:          db,
		logger:      logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	Snapshot         *models.StatsSnapshot `json:"snapshot"`
	SelectedMovie    string                `json:"selected_movie"`
	UploadsSucceeded int                   `json:"uploads_succeeded"`
	UploadsFailed    int                   `json:"uploads_failed"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.dashboard.Latest()
	if err != nil && !errors.Is(err, models.ErrNoSnapshot) {
		writeFailure(w, h.logger, err)
		return
	}

	succeeded, err := h.db.CountUploads(models.UploadStatusSucceeded)
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}
	failed, err := h.db.CountUploads(models.UploadStatusFailed)
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	selected, _ := h.episodeCtrl.Current()
	writeJSON(w, http.StatusOK, StatusResponse{
		Snapshot:         snapshot,
		SelectedMovie:    selected,
		UploadsSucceeded: succeeded,
		UploadsFailed:    failed,
	})
}
