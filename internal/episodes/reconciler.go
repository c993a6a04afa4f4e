package episodes

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/toribox/toriadmin/internal/episodes"

// ErrMovieNotFound is returned by a MovieLookup that does not know the movie
var ErrMovieNotFound = errors.New("movie not found")

// MovieLookup locates the movie record holding the authoritative episode list
type MovieLookup interface {
	LookupMovie(ctx context.Context, movieID string) (MovieRef, error)
}

// MovieList is an in-memory MovieLookup over an already fetched collection
type MovieList []MovieRef

// LookupMovie returns the first movie with the given ID
func (l MovieList) LookupMovie(_ context.Context, movieID string) (MovieRef, error) {
	for _, movie := range l {
		if movie.ID == movieID {
			return movie, nil
		}
	}
	return MovieRef{}, ErrMovieNotFound
}

// Fetcher reads the raw episode listings for a movie
type Fetcher interface {
	AdminEpisodes(ctx context.Context, movieID, token string) ([]byte, error)
	PublicEpisodes(ctx context.Context, movieID string) ([]byte, error)
}

// StreamSource names the listing that supplied the stream URLs
type StreamSource string

const (
	SourceAdmin  StreamSource = "admin"
	SourcePublic StreamSource = "public"
	SourceNone   StreamSource = "none"
)

// Report describes how a reconciliation went. It is handed to the logger
// and the Observer; the reconciler keeps no copy.
type Report struct {
	MovieID          string
	Source           StreamSource
	AdminAttempted   bool
	AdminCandidates  int
	AdminErr         error
	PublicAttempted  bool
	PublicCandidates int
	PublicErr        error
	Episodes         int
	Streamed         int
}

// Observer receives a Report after every completed reconciliation
type Observer interface {
	ObserveReconcile(report Report)
}

// Reconciler merges embedded episode lists with streaming URLs from the listings
type Reconciler struct {
	fetcher  Fetcher
	logger   *logrus.Logger
	observer Observer
	tracer   trace.Tracer
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithObserver registers an Observer for reconciliation reports
func WithObserver(observer Observer) Option {
	return func(r *Reconciler) {
		r.observer = observer
	}
}

// WithTracerProvider overrides the global tracer provider
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(r *Reconciler) {
		r.tracer = provider.Tracer(tracerName)
	}
}

// NewReconciler creates a new reconciler
func NewReconciler(fetcher Fetcher, logger *logrus.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		fetcher: fetcher,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile returns the episodes of movieID ordered by episode number, each
// with the best stream URL the listings could provide.
//
// The embedded list found through movies decides which episodes exist.
// Listing failures never fail the call; they only leave streams empty. The
// only error returned is a lookup failure other than ErrMovieNotFound.
func (r *Reconciler) Reconcile(ctx context.Context, movieID string, movies MovieLookup, token string) ([]MergedEpisode, error) {
	if movieID == "" {
		return []MergedEpisode{}, nil
	}

	ctx, span := r.tracer.Start(ctx, "episodes.Reconcile",
		trace.WithAttributes(attribute.String("movie.id", movieID)))
	defer span.End()

	authoritative, err := r.authoritativeSet(ctx, movieID, movies)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	report := Report{MovieID: movieID, Source: SourceNone}
	candidates := r.candidates(ctx, movieID, token, &report)

	merged := merge(authoritative, streamIndex(candidates))
	report.Episodes = len(merged)
	for _, ep := range merged {
		if ep.HasStream() {
			report.Streamed++
		}
	}

	r.observe(span, report)
	return merged, nil
}

// authoritativeSet returns the embedded episode list for the movie. A movie
// the lookup does not know has no episodes.
func (r *Reconciler) authoritativeSet(ctx context.Context, movieID string, movies MovieLookup) ([]EmbeddedEpisode, error) {
	if movies == nil {
		return nil, nil
	}

	movie, err := movies.LookupMovie(ctx, movieID)
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			r.logger.WithField("movie_id", movieID).Debug("Movie not in collection, no embedded episodes")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up movie %s: %w", movieID, err)
	}

	return movie.Episodes, nil
}

// candidates queries the listings in priority order and stops at the first
// one that yields episodes
func (r *Reconciler) candidates(ctx context.Context, movieID, token string, report *Report) []RemoteEpisode {
	if token != "" {
		report.AdminAttempted = true
		remote, err := fetchCandidates(func() ([]byte, error) {
			return r.fetcher.AdminEpisodes(ctx, movieID, token)
		})
		report.AdminCandidates = len(remote)
		report.AdminErr = err
		if len(remote) > 0 {
			report.Source = SourceAdmin
			return remote
		}
	}

	report.PublicAttempted = true
	remote, err := fetchCandidates(func() ([]byte, error) {
		return r.fetcher.PublicEpisodes(ctx, movieID)
	})
	report.PublicCandidates = len(remote)
	report.PublicErr = err
	if len(remote) > 0 {
		report.Source = SourcePublic
		return remote
	}

	return nil
}

func fetchCandidates(fetch func() ([]byte, error)) ([]RemoteEpisode, error) {
	body, err := fetch()
	if err != nil {
		return nil, err
	}
	remote, _, err := Extract(body)
	return remote, err
}

// streamIndex maps episode IDs to stream URLs; the first URL seen for an ID wins
func streamIndex(remote []RemoteEpisode) map[string]string {
	index := make(map[string]string, len(remote))
	for _, ep := range remote {
		if ep.ID == "" || ep.Stream == "" {
			continue
		}
		if _, seen := index[ep.ID]; seen {
			continue
		}
		index[ep.ID] = ep.Stream
	}
	return index
}

func merge(authoritative []EmbeddedEpisode, streams map[string]string) []MergedEpisode {
	merged := make([]MergedEpisode, 0, len(authoritative))
	for _, ep := range authoritative {
		m := MergedEpisode{
			EpisodeID:    ep.EpisodeID,
			EpisodeCount: ep.EpisodeCount,
			Premium:      ep.Premium,
		}
		if url, ok := streams[ep.EpisodeID]; ok {
			m.Stream = &url
		}
		merged = append(merged, m)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].EpisodeCount < merged[j].EpisodeCount
	})
	return merged
}

func (r *Reconciler) observe(span trace.Span, report Report) {
	span.SetAttributes(
		attribute.String("episodes.source", string(report.Source)),
		attribute.Int("episodes.admin_candidates", report.AdminCandidates),
		attribute.Int("episodes.public_candidates", report.PublicCandidates),
		attribute.Int("episodes.count", report.Episodes),
		attribute.Int("episodes.streamed", report.Streamed),
	)

	fields := logrus.Fields{
		"movie_id":          report.MovieID,
		"source":            report.Source,
		"admin_candidates":  report.AdminCandidates,
		"public_candidates": report.PublicCandidates,
		"episodes":          report.Episodes,
		"streamed":          report.Streamed,
	}
	if report.AdminErr != nil {
		fields["admin_error"] = report.AdminErr.Error()
	}
	if report.PublicErr != nil {
		fields["public_error"] = report.PublicErr.Error()
	}
	r.logger.WithFields(fields).Debug("Reconciled episodes")

	if r.observer != nil {
		r.observer.ObserveReconcile(report)
	}
}
