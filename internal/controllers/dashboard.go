package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/episodes"
	"github.com/toribox/toriadmin/internal/metrics"
	"github.com/toribox/toriadmin/internal/models"
	"github.com/toribox/toriadmin/internal/services/toribox"
)

const (
	// snapshotsKept bounds how many dashboard snapshots stay in the database
	snapshotsKept       = 500
	listingRetryElapsed = 30 * time.Second
)

// StatsSource provides what the dashboard counts
type StatsSource interface {
	ListMovies(ctx context.Context, token string) ([]toribox.Movie, error)
	PublicEpisodes(ctx context.Context, movieID string) ([]byte, error)
}

// DashboardController captures movie and episode statistics
type DashboardController struct {
	source     StatsSource
	db         *models.Database
	metrics    *metrics.Metrics
	logger     *logrus.Logger
	newBackOff func() backoff.BackOff
}

// NewDashboardController creates a new dashboard controller. m may be nil.
func NewDashboardController(source StatsSource, db *models.Database, m *metrics.Metrics, logger *logrus.Logger) *DashboardController {
	return &DashboardController{
		source:  source,
		db:      db,
		metrics: m,
		logger:  logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = listingRetryElapsed
			return b
		},
	}
}

// Refresh counts the public movies and their episodes and stores the result
func (c *DashboardController) Refresh(ctx context.Context) (*models.StatsSnapshot, error) {
	c.logger.Info("Refreshing dashboard statistics")

	movies, err := c.listMovies(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &models.StatsSnapshot{
		MovieCount:   len(movies),
		FailedMovies: []string{},
		PremiumEpisodeCount: lo.SumBy(movies, func(m toribox.Movie) int {
			return lo.CountBy(m.Episodes, func(ep episodes.EmbeddedEpisode) bool {
				return ep.Premium
			})
		}),
	}

	for _, movie := range movies {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		count, err := c.countEpisodes(ctx, movie.ID)
		if err != nil {
			c.logger.WithError(err).WithField("movie_id", movie.ID).Warn("Skipping movie in episode count")
			snapshot.FailedMovies = append(snapshot.FailedMovies, movie.ID)
			continue
		}
		snapshot.EpisodeCount += count
	}

	if err := c.db.SaveSnapshot(snapshot); err != nil {
		return nil, fmt.Errorf("failed to save statistics snapshot: %w", err)
	}
	if pruned, err := c.db.PruneSnapshots(snapshotsKept); err != nil {
		c.logger.WithError(err).Warn("Failed to prune old snapshots")
	} else if pruned > 0 {
		c.logger.WithField("count", pruned).Debug("Pruned old snapshots")
	}

	if c.metrics != nil {
		c.metrics.IncDashboardRefreshes()
	}

	c.logger.WithFields(logrus.Fields{
		"movies":        snapshot.MovieCount,
		"episodes":      snapshot.EpisodeCount,
		"premium":       snapshot.PremiumEpisodeCount,
		"failed_movies": len(snapshot.FailedMovies),
	}).Info("Dashboard statistics refreshed")

	return snapshot, nil
}

// Latest returns the newest stored snapshot
func (c *DashboardController) Latest() (*models.StatsSnapshot, error) {
	return c.db.LatestSnapshot()
}

// listMovies fetches the public movie listing, retrying transient failures
func (c *DashboardController) listMovies(ctx context.Context) ([]toribox.Movie, error) {
	var movies []toribox.Movie
	operation := func() error {
		var err error
		movies, err = c.source.ListMovies(ctx, "")
		if errors.Is(err, toribox.ErrUnauthorized) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.WithError(err).WithField("retry_in", wait).Warn("Movie listing failed, retrying")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(c.newBackOff(), ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to list movies for dashboard: %w", err)
	}
	return movies, nil
}

// countEpisodes counts the episodes of a movie's public listing. A listing
// without an episode array counts as zero.
func (c *DashboardController) countEpisodes(ctx context.Context, movieID string) (int, error) {
	body, err := c.source.PublicEpisodes(ctx, movieID)
	if err != nil {
		return 0, err
	}

	remote, _, err := episodes.Extract(body)
	if errors.Is(err, episodes.ErrNoEpisodeArray) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(remote), nil
}
