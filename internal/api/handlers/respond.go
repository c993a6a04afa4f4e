package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/controllers"
	"github.com/toribox/toriadmin/internal/episodes"
	"github.com/toribox/toriadmin/internal/services/toribox"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeFailure maps a controller error to a status code. Unexpected errors
// are logged and reported without detail.
func writeFailure(w http.ResponseWriter, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, controllers.ErrInvalidUpload):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, toribox.ErrUnauthorized), errors.Is(err, toribox.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, episodes.ErrMovieNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.WithError(err).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// bearerToken returns the token of an "Authorization: Bearer" header
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
