package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/metrics"
	"github.com/toribox/toriadmin/internal/models"
	"github.com/toribox/toriadmin/internal/services/toribox"
)

// ErrInvalidUpload is wrapped by every upload validation failure
var ErrInvalidUpload = errors.New("invalid upload")

// Uploader posts new content to the platform
type Uploader interface {
	UploadEpisode(ctx context.Context, token string, upload toribox.EpisodeUpload) error
	UploadMovie(ctx context.Context, token string, upload toribox.MovieUpload) error
}

// UploadController validates and performs uploads and keeps an audit trail
type UploadController struct {
	uploader    Uploader
	db          *models.Database
	catalog     *Catalog
	episodeCtrl *EpisodeController
	metrics     *metrics.Metrics
	logger      *logrus.Logger
}

// NewUploadController creates a new upload controller. m may be nil.
func NewUploadController(uploader Uploader, db *models.Database, catalog *Catalog, episodeCtrl *EpisodeController, m *metrics.Metrics, logger *logrus.Logger) *UploadController {
	return &UploadController{
		uploader:    uploader,
		db:          db,
		catalog:     catalog,
		episodeCtrl: episodeCtrl,
		metrics:     m,
		logger:      logger,
	}
}

// ParseGenres splits a comma separated genre list, dropping blanks and duplicates
func ParseGenres(raw string) []string {
	genres := lo.Map(strings.Split(raw, ","), func(g string, _ int) string {
		return strings.TrimSpace(g)
	})
	return lo.Uniq(lo.Compact(genres))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidUpload, fmt.Sprintf(format, args...))
}

func validateEpisodeUpload(upload toribox.EpisodeUpload) error {
	if strings.TrimSpace(upload.MovieID) == "" {
		return invalid("movie id is required")
	}
	if upload.EpisodeNumber <= 0 {
		return invalid("episode number must be positive, got %d", upload.EpisodeNumber)
	}
	if upload.Video.Reader == nil {
		return invalid("episode video is required")
	}
	return nil
}

func validateMovieUpload(upload *toribox.MovieUpload) error {
	upload.Title = strings.TrimSpace(upload.Title)
	upload.Description = strings.TrimSpace(upload.Description)
	upload.Genres = lo.Uniq(lo.Compact(lo.Map(upload.Genres, func(g string, _ int) string {
		return strings.TrimSpace(g)
	})))

	if upload.Title == "" {
		return invalid("title is required")
	}
	if upload.Description == "" {
		return invalid("description is required")
	}
	if len(upload.Genres) == 0 {
		return invalid("at least one genre is required")
	}
	if upload.Cover.Reader == nil {
		return invalid("cover image is required")
	}
	if upload.Video.Reader == nil {
		return invalid("movie video is required")
	}
	return nil
}

// UploadEpisode uploads an episode and, on success, refreshes the selection
// when the episode belongs to the selected movie
func (c *UploadController) UploadEpisode(ctx context.Context, token string, upload toribox.EpisodeUpload) error {
	if err := validateEpisodeUpload(upload); err != nil {
		return err
	}
	if token == "" {
		return toribox.ErrNotAuthenticated
	}

	log := c.logger.WithFields(logrus.Fields{
		"movie_id": upload.MovieID,
		"episode":  upload.EpisodeNumber,
	})
	log.Info("Uploading episode")

	err := c.uploader.UploadEpisode(ctx, token, upload)
	c.record(&models.UploadRecord{
		Kind:          models.UploadKindEpisode,
		MovieID:       upload.MovieID,
		Title:         upload.Video.Name,
		EpisodeNumber: upload.EpisodeNumber,
		Premium:       upload.Premium,
	}, err)
	if err != nil {
		return err
	}

	c.catalog.Invalidate()
	if c.episodeCtrl.Selected() == upload.MovieID {
		if _, _, err := c.episodeCtrl.Refresh(ctx, token); err != nil {
			log.WithError(err).Warn("Failed to refresh episodes after upload")
		}
	}

	return nil
}

// UploadMovie uploads a new movie
func (c *UploadController) UploadMovie(ctx context.Context, token string, upload toribox.MovieUpload) error {
	if err := validateMovieUpload(&upload); err != nil {
		return err
	}
	if token == "" {
		return toribox.ErrNotAuthenticated
	}

	c.logger.WithFields(logrus.Fields{
		"title":  upload.Title,
		"genres": upload.Genres,
	}).Info("Uploading movie")

	err := c.uploader.UploadMovie(ctx, token, upload)
	c.record(&models.UploadRecord{
		Kind:  models.UploadKindMovie,
		Title: upload.Title,
	}, err)
	if err != nil {
		return err
	}

	c.catalog.Invalidate()
	return nil
}

// Recent returns the newest upload records
func (c *UploadController) Recent(limit int) ([]*models.UploadRecord, error) {
	return c.db.RecentUploads(limit)
}

// ForMovie returns the newest uploads made for one movie
func (c *UploadController) ForMovie(movieID string, limit int) ([]*models.UploadRecord, error) {
	return c.db.GetUploadsByMovieID(movieID, limit)
}

// record stores the outcome of an upload; a storage failure is only logged
func (c *UploadController) record(record *models.UploadRecord, uploadErr error) {
	record.Status = models.UploadStatusSucceeded
	if uploadErr != nil {
		record.Status = models.UploadStatusFailed
		record.FailureReason = uploadErr.Error()
	}

	if c.metrics != nil {
		c.metrics.IncUploads(string(record.Kind), string(record.Status))
	}

	if err := c.db.CreateUpload(record); err != nil {
		c.logger.WithError(err).Error("Failed to record upload")
	}
}
