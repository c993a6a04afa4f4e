package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/controllers"
	"github.com/toribox/toriadmin/internal/episodes"
	"github.com/toribox/toriadmin/internal/services/toribox"
)

// maxUploadMemory is how much of a multipart upload is kept in memory; the rest spills to disk
const maxUploadMemory = 32 << 20

// MoviesHandler serves the movie catalog and its episodes
type MoviesHandler struct {
	catalog     *controllers.Catalog
	episodeCtrl *controllers.EpisodeController
	uploadCtrl  *controllers.UploadController
	logger      *logrus.Logger
}

// NewMoviesHandler creates a new movies handler
func NewMoviesHandler(catalog *controllers.Catalog, episodeCtrl *controllers.EpisodeController, uploadCtrl *controllers.UploadController, logger *logrus.Logger) *MoviesHandler {
	return &MoviesHandler{
		catalog:     catalog,
		episodeCtrl: episodeCtrl,
		uploadCtrl:  uploadCtrl,
		logger:      logger,
	}
}

// MovieSummary is a catalog entry
type MovieSummary struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Genres   []string `json:"genres"`
	Episodes int      `json:"episodes"`
}

// EpisodesResponse is the reconciled episode list of a movie
type EpisodesResponse struct {
	MovieID  string                   `json:"movie_id"`
	Episodes []episodes.MergedEpisode `json:"episodes"`
	Applied  *bool                    `json:"applied,omitempty"`
}

// List handles GET /api/movies
func (h *MoviesHandler) List(w http.ResponseWriter, r *http.Request) {
	movies, err := h.catalog.Movies(r.Context(), bearerToken(r))
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(movies, func(m toribox.Movie, _ int) MovieSummary {
		return MovieSummary{
			ID:       m.ID,
			Title:    m.Title,
			Genres:   m.GenreTitles(),
			Episodes: len(m.Episodes),
		}
	}))
}

// Episodes handles GET /api/movies/{movieID}/episodes[?premium=true]
func (h *MoviesHandler) Episodes(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieID")
	token := bearerToken(r)

	if _, err := h.catalog.Movie(r.Context(), token, movieID); err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	merged, err := h.episodeCtrl.Episodes(r.Context(), movieID, token)
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	if premium, _ := strconv.ParseBool(r.URL.Query().Get("premium")); premium {
		merged = episodes.FilterPremium(merged)
	}

	writeJSON(w, http.StatusOK, EpisodesResponse{MovieID: movieID, Episodes: merged})
}

// UploadEpisode handles POST /api/movies/{movieID}/episodes with a multipart
// body carrying episode_count, is_premium and the video file
func (h *MoviesHandler) UploadEpisode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	number, err := strconv.Atoi(r.FormValue("episode_count"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "episode_count must be a number")
		return
	}

	upload := toribox.EpisodeUpload{
		MovieID:       chi.URLParam(r, "movieID"),
		EpisodeNumber: number,
		Premium:       r.FormValue("is_premium") == "true",
	}

	file, header, err := r.FormFile("video")
	if err == nil {
		defer file.Close()
		upload.Video = toribox.FilePart{Name: header.Filename, Reader: file}
	}

	if err := h.uploadCtrl.UploadEpisode(r.Context(), bearerToken(r), upload); err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "uploaded"})
}
