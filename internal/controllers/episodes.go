package controllers

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/episodes"
)

// EpisodeController owns the active movie selection and its visible episodes
type EpisodeController struct {
	reconciler *episodes.Reconciler
	catalog    *Catalog
	selector   episodes.Selector
	logger     *logrus.Logger

	mu      sync.RWMutex
	shown   string
	visible []episodes.MergedEpisode
}

// NewEpisodeController creates a new episode controller
func NewEpisodeController(reconciler *episodes.Reconciler, catalog *Catalog, logger *logrus.Logger) *EpisodeController {
	return &EpisodeController{
		reconciler: reconciler,
		catalog:    catalog,
		logger:     logger,
		visible:    []episodes.MergedEpisode{},
	}
}

// Episodes reconciles the episodes of a movie without touching the selection
func (c *EpisodeController) Episodes(ctx context.Context, movieID, token string) ([]episodes.MergedEpisode, error) {
	return c.reconciler.Reconcile(ctx, movieID, c.catalog.Lookup(token), token)
}

// Select makes movieID the active movie and reconciles its episodes. The
// result becomes visible only if no other selection happened meanwhile;
// applied reports whether it did.
func (c *EpisodeController) Select(ctx context.Context, movieID, token string) ([]episodes.MergedEpisode, bool, error) {
	ticket := c.selector.Select(movieID)

	merged, err := c.Episodes(ctx, movieID, token)
	if err != nil {
		if !c.selector.IsCurrent(ticket) {
			c.logger.WithField("movie_id", movieID).Debug("Superseded selection failed")
		}
		return nil, false, err
	}

	applied := c.selector.Apply(ticket, func() {
		c.mu.Lock()
		c.shown = ticket.MovieID()
		c.visible = merged
		c.mu.Unlock()
	})
	if !applied {
		c.logger.WithField("movie_id", movieID).Debug("Discarding episodes of a superseded selection")
	}

	return merged, applied, nil
}

// Current returns the movie whose episodes were applied last, together with
// those episodes. A selection still in flight, or one that failed, does not
// show up here until its episodes are applied.
func (c *EpisodeController) Current() (string, []episodes.MergedEpisode) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shown, c.visible
}

// Selected returns the most recently requested movie, applied or not
func (c *EpisodeController) Selected() string {
	return c.selector.Current()
}

// Refresh reconciles the selected movie again, e.g. after an upload
func (c *EpisodeController) Refresh(ctx context.Context, token string) ([]episodes.MergedEpisode, bool, error) {
	movieID := c.Selected()
	if movieID == "" {
		return []episodes.MergedEpisode{}, false, nil
	}
	return c.Select(ctx, movieID, token)
}
