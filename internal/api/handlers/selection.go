package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/controllers"
)

// SelectionHandler reads and changes the active movie selection
type SelectionHandler struct {
	episodeCtrl *controllers.EpisodeController
	logger      *logrus.Logger
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(episodeCtrl *controllers.EpisodeController, logger *logrus.Logger) *SelectionHandler {
	return &SelectionHandler{episodeCtrl: episodeCtrl, logger: logger}
}

// SelectionRequest selects a movie
type SelectionRequest struct {
	MovieID string `json:"movieId"`
}

// Get handles GET /api/selection
func (h *SelectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	movieID, visible := h.episodeCtrl.Current()
	writeJSON(w, http.StatusOK, EpisodesResponse{MovieID: movieID, Episodes: visible})
}

// Select handles POST /api/selection
func (h *SelectionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.MovieID = strings.TrimSpace(req.MovieID)
	if req.MovieID == "" {
		writeError(w, http.StatusBadRequest, "movieId is required")
		return
	}

	merged, applied, err := h.episodeCtrl.Select(r.Context(), req.MovieID, bearerToken(r))
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, EpisodesResponse{MovieID: req.MovieID, Episodes: merged, Applied: &applied})
}
