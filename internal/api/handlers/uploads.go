package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/controllers"
	"github.com/toribox/toriadmin/internal/models"
)

const defaultUploadLimit = 20

// UploadsHandler lists the upload history
type UploadsHandler struct {
	uploadCtrl *controllers.UploadController
	logger     *logrus.Logger
}

// NewUploadsHandler creates a new uploads handler
func NewUploadsHandler(uploadCtrl *controllers.UploadController, logger *logrus.Logger) *UploadsHandler {
	return &UploadsHandler{uploadCtrl: uploadCtrl, logger: logger}
}

// ServeHTTP handles GET /api/uploads[?limit=n][&movie=id]
func (h *UploadsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := defaultUploadLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = n
	}

	var records []*models.UploadRecord
	var err error
	if movieID := strings.TrimSpace(r.URL.Query().Get("movie")); movieID != "" {
		records, err = h.uploadCtrl.ForMovie(movieID, limit)
	} else {
		records, err = h.uploadCtrl.Recent(limit)
	}
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	if records == nil {
		records = []*models.UploadRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
