package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/episodes"
	"github.com/toribox/toriadmin/internal/metrics"
	"github.com/toribox/toriadmin/internal/services/toribox"
	"github.com/toribox/toriadmin/internal/utils"
)

const (
	catalogKeyAdmin  = "movies:admin"
	catalogKeyPublic = "movies:public"
)

// MovieSource lists the movies of the platform
type MovieSource interface {
	ListMovies(ctx context.Context, token string) ([]toribox.Movie, error)
}

// Catalog caches movie listings and resolves movies by ID or title
type Catalog struct {
	source  MovieSource
	cache   *cache.Cache
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewCatalog creates a catalog whose listings expire after ttl. m may be nil.
func NewCatalog(source MovieSource, ttl time.Duration, m *metrics.Metrics, logger *logrus.Logger) *Catalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Catalog{
		source:  source,
		cache:   cache.New(ttl, 2*ttl),
		metrics: m,
		logger:  logger,
	}
}

// Movies returns the movie listing, from cache when fresh. The admin listing
// is used when a token is given.
func (c *Catalog) Movies(ctx context.Context, token string) ([]toribox.Movie, error) {
	key := catalogKeyPublic
	if token != "" {
		key = catalogKeyAdmin
	}

	if cached, found := c.cache.Get(key); found {
		return cached.([]toribox.Movie), nil
	}

	movies, err := c.source.ListMovies(ctx, token)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(key, movies)
	if c.metrics != nil {
		c.metrics.SetCatalogMovies(len(movies))
	}
	c.logger.WithFields(logrus.Fields{
		"count": len(movies),
		"admin": token != "",
	}).Debug("Movie catalog refreshed")

	return movies, nil
}

// Movie returns the movie with the given ID, or episodes.ErrMovieNotFound
func (c *Catalog) Movie(ctx context.Context, token, movieID string) (toribox.Movie, error) {
	movies, err := c.Movies(ctx, token)
	if err != nil {
		return toribox.Movie{}, err
	}

	movie, found := lo.Find(movies, func(m toribox.Movie) bool {
		return m.ID == movieID
	})
	if !found {
		return toribox.Movie{}, episodes.ErrMovieNotFound
	}
	return movie, nil
}

// FindByTitle resolves a title typed by a person, tolerating case and small typos
func (c *Catalog) FindByTitle(ctx context.Context, token, title string) (toribox.Movie, error) {
	movies, err := c.Movies(ctx, token)
	if err != nil {
		return toribox.Movie{}, err
	}

	titles := lo.Map(movies, func(m toribox.Movie, _ int) string {
		return m.Title
	})
	idx := utils.ClosestTitle(title, titles)
	if idx < 0 {
		return toribox.Movie{}, fmt.Errorf("no movie titled %q: %w", title, episodes.ErrMovieNotFound)
	}
	return movies[idx], nil
}

// Resolve accepts either a movie ID or a title
func (c *Catalog) Resolve(ctx context.Context, token, idOrTitle string) (toribox.Movie, error) {
	movie, err := c.Movie(ctx, token, idOrTitle)
	if err == nil {
		return movie, nil
	}
	if !errors.Is(err, episodes.ErrMovieNotFound) {
		return toribox.Movie{}, err
	}
	return c.FindByTitle(ctx, token, idOrTitle)
}

// Lookup returns an episodes.MovieLookup reading the listing token selects
func (c *Catalog) Lookup(token string) episodes.MovieLookup {
	return catalogLookup{catalog: c, token: token}
}

// Warm replaces the cached listing token selects with a fresh one
func (c *Catalog) Warm(ctx context.Context, token string) error {
	fresh := catalogKeyPublic
	if token != "" {
		fresh = catalogKeyAdmin
	}
	c.cache.Delete(fresh)

	_, err := c.Movies(ctx, token)
	return err
}

// Invalidate drops the cached listings
func (c *Catalog) Invalidate() {
	c.cache.Flush()
}

type catalogLookup struct {
	catalog *Catalog
	token   string
}

func (l catalogLookup) LookupMovie(ctx context.Context, movieID string) (episodes.MovieRef, error) {
	movie, err := l.catalog.Movie(ctx, l.token, movieID)
	if err != nil {
		return episodes.MovieRef{}, err
	}
	return movie.Ref(), nil
}
