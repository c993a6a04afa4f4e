package controllers

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/episodes"
	"github.com/toribox/toriadmin/internal/models"
	"github.com/toribox/toriadmin/internal/services/toribox"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testDatabase(t *testing.T) *models.Database {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "toriadmin.db"))
	if err != nil {
		t.Fatalf("NewDatabase failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakePlatform stands in for the ToriBox client
type fakePlatform struct {
	mu         sync.Mutex
	movies     []toribox.Movie
	listErrs   []error
	listCalls  int
	listTokens []string
	public     map[string]string
	admin      map[string]string
	publicErr  map[string]error
	uploadErr  error
	episodes   []toribox.EpisodeUpload
	uploaded   []toribox.MovieUpload
}

func (f *fakePlatform) ListMovies(_ context.Context, token string) ([]toribox.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.listTokens = append(f.listTokens, token)
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.movies, nil
}

func (f *fakePlatform) AdminEpisodes(_ context.Context, movieID, _ string) ([]byte, error) {
	body, ok := f.admin[movieID]
	if !ok {
		return nil, errors.New("admin listing unavailable")
	}
	return []byte(body), nil
}

func (f *fakePlatform) PublicEpisodes(_ context.Context, movieID string) ([]byte, error) {
	if err := f.publicErr[movieID]; err != nil {
		return nil, err
	}
	body, ok := f.public[movieID]
	if !ok {
		return nil, errors.New("public listing unavailable")
	}
	return []byte(body), nil
}

func (f *fakePlatform) UploadEpisode(_ context.Context, _ string, upload toribox.EpisodeUpload) error {
	f.episodes = append(f.episodes, upload)
	return f.uploadErr
}

func (f *fakePlatform) UploadMovie(_ context.Context, _ string, upload toribox.MovieUpload) error {
	f.uploaded = append(f.uploaded, upload)
	return f.uploadErr
}

func (f *fakePlatform) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func movie(id, title string, eps ...episodes.EmbeddedEpisode) toribox.Movie {
	return toribox.Movie{ID: id, Title: title, Episodes: eps}
}

func TestCatalogCaching(t *testing.T) {
	platform := &fakePlatform{movies: []toribox.Movie{movie("m1", "Anikulapo")}}
	catalog := NewCatalog(platform, time.Minute, nil, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := catalog.Movies(ctx, ""); err != nil {
			t.Fatalf("Movies failed: %v", err)
		}
	}
	if platform.calls() != 1 {
		t.Errorf("Expected a single fetch, got %d", platform.calls())
	}

	if _, err := catalog.Movies(ctx, "tok"); err != nil {
		t.Fatalf("Movies failed: %v", err)
	}
	if platform.calls() != 2 || platform.listTokens[1] != "tok" {
		t.Errorf("Expected a separate admin fetch, got tokens %v", platform.listTokens)
	}

	catalog.Invalidate()
	catalog.Movies(ctx, "")
	if platform.calls() != 3 {
		t.Errorf("Expected a fetch after Invalidate, got %d", platform.calls())
	}
}

func TestCatalogResolve(t *testing.T) {
	platform := &fakePlatform{movies: []toribox.Movie{
		movie("m1", "Anikulapo"),
		movie("m2", "King of Boys"),
	}}
	catalog := NewCatalog(platform, time.Minute, nil, testLogger())
	ctx := context.Background()

	tests := []struct {
		query string
		want  string
	}{
		{"m2", "m2"},
		{"king of boys", "m2"},
		{"Anikulpo", "m1"},
		{"  ANIKULAPO ", "m1"},
	}
	for _, tt := range tests {
		got, err := catalog.Resolve(ctx, "", tt.query)
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", tt.query, err)
			continue
		}
		if got.ID != tt.want {
			t.Errorf("Resolve(%q) = %s, want %s", tt.query, got.ID, tt.want)
		}
	}

	if _, err := catalog.Resolve(ctx, "", "Completely different"); !errors.Is(err, episodes.ErrMovieNotFound) {
		t.Errorf("Expected ErrMovieNotFound, got %v", err)
	}
}

func TestCatalogLookupFailureSurfaces(t *testing.T) {
	boom := errors.New("catalog down")
	platform := &fakePlatform{listErrs: []error{boom}}
	catalog := NewCatalog(platform, time.Minute, nil, testLogger())
	reconciler := episodes.NewReconciler(platform, testLogger())

	_, err := reconciler.Reconcile(context.Background(), "m1", catalog.Lookup(""), "")
	if !errors.Is(err, boom) {
		t.Errorf("Expected lookup error to surface, got %v", err)
	}
}

func newEpisodeSetup(platform *fakePlatform) (*Catalog, *EpisodeController) {
	catalog := NewCatalog(platform, time.Minute, nil, testLogger())
	reconciler := episodes.NewReconciler(platform, testLogger())
	return catalog, NewEpisodeController(reconciler, catalog, testLogger())
}

func TestEpisodeControllerSelect(t *testing.T) {
	platform := &fakePlatform{
		movies: []toribox.Movie{movie("m1", "Anikulapo",
			episodes.EmbeddedEpisode{EpisodeID: "e2", EpisodeCount: 2},
			episodes.EmbeddedEpisode{EpisodeID: "e1", EpisodeCount: 1, Premium: true},
		)},
		public: map[string]string{"m1": `{"data":[{"episodeId":"e1","stream":"https://cdn/e1.m3u8"}]}`},
	}
	_, ctrl := newEpisodeSetup(platform)

	merged, applied, err := ctrl.Select(context.Background(), "m1", "")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if !applied {
		t.Error("Expected the only selection to be applied")
	}
	if len(merged) != 2 || merged[0].EpisodeID != "e1" || !merged[0].HasStream() || merged[1].HasStream() {
		t.Errorf("Unexpected episodes %+v", merged)
	}

	movieID, visible := ctrl.Current()
	if movieID != "m1" || len(visible) != 2 {
		t.Errorf("Unexpected current state %s %+v", movieID, visible)
	}
}

// blockingFetcher holds the public listing of one movie until released
type blockingFetcher struct {
	*fakePlatform
	slowMovie string
	started   chan struct{}
	release   chan struct{}
}

func (f *blockingFetcher) PublicEpisodes(ctx context.Context, movieID string) ([]byte, error) {
	if movieID == f.slowMovie {
		close(f.started)
		<-f.release
	}
	return f.fakePlatform.PublicEpisodes(ctx, movieID)
}

func TestEpisodeControllerDiscardsStaleSelection(t *testing.T) {
	platform := &fakePlatform{
		movies: []toribox.Movie{
			movie("slow", "Slow", episodes.EmbeddedEpisode{EpisodeID: "s1", EpisodeCount: 1}),
			movie("fast", "Fast", episodes.EmbeddedEpisode{EpisodeID: "f1", EpisodeCount: 1}),
		},
		public: map[string]string{"slow": `{"data":[]}`, "fast": `{"data":[]}`},
	}
	fetcher := &blockingFetcher{fakePlatform: platform, slowMovie: "slow", started: make(chan struct{}), release: make(chan struct{})}
	catalog := NewCatalog(platform, time.Minute, nil, testLogger())
	ctrl := NewEpisodeController(episodes.NewReconciler(fetcher, testLogger()), catalog, testLogger())

	type result struct {
		applied bool
		err     error
	}
	slowDone := make(chan result)
	go func() {
		_, applied, err := ctrl.Select(context.Background(), "slow", "")
		slowDone <- result{applied, err}
	}()

	<-fetcher.started
	if _, applied, err := ctrl.Select(context.Background(), "fast", ""); err != nil || !applied {
		t.Fatalf("Expected fast selection to apply, applied=%v err=%v", applied, err)
	}
	close(fetcher.release)

	slow := <-slowDone
	if slow.err != nil || slow.applied {
		t.Errorf("Expected stale selection to be discarded, got %+v", slow)
	}

	movieID, visible := ctrl.Current()
	if movieID != "fast" || len(visible) != 1 || visible[0].EpisodeID != "f1" {
		t.Errorf("Expected fast movie to stay visible, got %s %+v", movieID, visible)
	}
}

func TestEpisodeControllerCurrentPairsMovieWithItsEpisodes(t *testing.T) {
	platform := &fakePlatform{
		movies: []toribox.Movie{
			movie("a", "Anikulapo", episodes.EmbeddedEpisode{EpisodeID: "a1", EpisodeCount: 1}),
			movie("b", "Brotherhood", episodes.EmbeddedEpisode{EpisodeID: "b1", EpisodeCount: 1}),
		},
		public: map[string]string{"a": `{"data":[]}`, "b": `{"data":[]}`},
	}
	fetcher := &blockingFetcher{fakePlatform: platform, slowMovie: "b", started: make(chan struct{}), release: make(chan struct{})}
	catalog := NewCatalog(platform, time.Minute, nil, testLogger())
	ctrl := NewEpisodeController(episodes.NewReconciler(fetcher, testLogger()), catalog, testLogger())
	ctx := context.Background()

	assertShowsA := func(when string) {
		t.Helper()
		movieID, visible := ctrl.Current()
		if movieID != "a" || len(visible) != 1 || visible[0].EpisodeID != "a1" {
			t.Errorf("%s: expected movie a with a1, got %s %+v", when, movieID, visible)
		}
	}

	if _, _, err := ctrl.Select(ctx, "a", ""); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	// b is in flight
	done := make(chan error)
	go func() {
		_, _, err := ctrl.Select(ctx, "b", "")
		done <- err
	}()
	<-fetcher.started
	assertShowsA("while b reconciles")
	if ctrl.Selected() != "b" {
		t.Errorf("Expected b to be the requested movie, got %q", ctrl.Selected())
	}
	close(fetcher.release)
	if err := <-done; err != nil {
		t.Fatalf("Select b failed: %v", err)
	}
	if movieID, visible := ctrl.Current(); movieID != "b" || len(visible) != 1 || visible[0].EpisodeID != "b1" {
		t.Errorf("Expected movie b with b1, got %s %+v", movieID, visible)
	}

	// a again, then b fails on a catalog error
	if _, _, err := ctrl.Select(ctx, "a", ""); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	catalog.Invalidate()
	platform.listErrs = []error{errors.New("catalog down")}
	fetcher.slowMovie = ""
	if _, _, err := ctrl.Select(ctx, "b", ""); err == nil {
		t.Fatal("Expected Select to fail when the catalog is down")
	}
	assertShowsA("after a failed selection")
}

func TestUploadEpisodeValidation(t *testing.T) {
	platform := &fakePlatform{}
	catalog, episodeCtrl := newEpisodeSetup(platform)
	ctrl := NewUploadController(platform, testDatabase(t), catalog, episodeCtrl, nil, testLogger())
	video := toribox.FilePart{Name: "ep.mp4", Reader: strings.NewReader("v")}

	tests := []struct {
		name   string
		upload toribox.EpisodeUpload
	}{
		{"missing movie", toribox.EpisodeUpload{EpisodeNumber: 1, Video: video}},
		{"zero episode", toribox.EpisodeUpload{MovieID: "m1", Video: video}},
		{"missing video", toribox.EpisodeUpload{MovieID: "m1", EpisodeNumber: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ctrl.UploadEpisode(context.Background(), "tok", tt.upload)
			if !errors.Is(err, ErrInvalidUpload) {
				t.Errorf("Expected ErrInvalidUpload, got %v", err)
			}
		})
	}

	err := ctrl.UploadEpisode(context.Background(), "", toribox.EpisodeUpload{MovieID: "m1", EpisodeNumber: 1, Video: video})
	if !errors.Is(err, toribox.ErrNotAuthenticated) {
		t.Errorf("Expected ErrNotAuthenticated, got %v", err)
	}
	if len(platform.episodes) != 0 {
		t.Errorf("Expected no upload attempts, got %d", len(platform.episodes))
	}
}

func TestUploadEpisodeRefreshesSelection(t *testing.T) {
	platform := &fakePlatform{
		movies: []toribox.Movie{movie("m1", "Anikulapo")},
		admin:  map[string]string{"m1": `{"episode":{"data":[]}}`},
	}
	db := testDatabase(t)
	catalog, episodeCtrl := newEpisodeSetup(platform)
	ctrl := NewUploadController(platform, db, catalog, episodeCtrl, nil, testLogger())
	ctx := context.Background()

	if _, _, err := episodeCtrl.Select(ctx, "m1", "tok"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	// The platform now lists the uploaded episode
	platform.movies = []toribox.Movie{movie("m1", "Anikulapo", episodes.EmbeddedEpisode{EpisodeID: "e1", EpisodeCount: 1})}
	platform.admin["m1"] = `{"episode":{"data":[{"episodeId":"e1","HLSStream":"https://cdn/e1.m3u8"}]}}`

	err := ctrl.UploadEpisode(ctx, "tok", toribox.EpisodeUpload{
		MovieID:       "m1",
		EpisodeNumber: 1,
		Premium:       true,
		Video:         toribox.FilePart{Name: "ep1.mp4", Reader: strings.NewReader("v")},
	})
	if err != nil {
		t.Fatalf("UploadEpisode failed: %v", err)
	}

	_, visible := episodeCtrl.Current()
	if len(visible) != 1 || !visible[0].HasStream() {
		t.Errorf("Expected refreshed episodes after upload, got %+v", visible)
	}

	records, err := db.RecentUploads(0)
	if err != nil || len(records) != 1 {
		t.Fatalf("Expected one upload record, got %d err=%v", len(records), err)
	}
	if records[0].Status != models.UploadStatusSucceeded || !records[0].Premium || records[0].Kind != models.UploadKindEpisode {
		t.Errorf("Unexpected record %+v", records[0])
	}
}

func TestUploadMovie(t *testing.T) {
	platform := &fakePlatform{uploadErr: errors.New("server exploded")}
	db := testDatabase(t)
	catalog, episodeCtrl := newEpisodeSetup(platform)
	ctrl := NewUploadController(platform, db, catalog, episodeCtrl, nil, testLogger())
	ctx := context.Background()

	upload := toribox.MovieUpload{
		Title:       " Anikulapo ",
		Description: "Story",
		Genres:      []string{" ", "Drama", "Drama "},
		Cover:       toribox.FilePart{Name: "cover.jpg", Reader: strings.NewReader("i")},
		Video:       toribox.FilePart{Name: "movie.mp4", Reader: strings.NewReader("v")},
	}

	noGenres := upload
	noGenres.Genres = []string{"  "}
	if err := ctrl.UploadMovie(ctx, "tok", noGenres); !errors.Is(err, ErrInvalidUpload) {
		t.Errorf("Expected ErrInvalidUpload for blank genres, got %v", err)
	}

	if err := ctrl.UploadMovie(ctx, "tok", upload); err == nil {
		t.Fatal("Expected upload failure")
	}
	if len(platform.uploaded) != 1 {
		t.Fatalf("Expected one upload attempt, got %d", len(platform.uploaded))
	}
	sent := platform.uploaded[0]
	if sent.Title != "Anikulapo" || len(sent.Genres) != 1 || sent.Genres[0] != "Drama" {
		t.Errorf("Expected cleaned upload, got %+v", sent)
	}

	failed, err := db.CountUploads(models.UploadStatusFailed)
	if err != nil || failed != 1 {
		t.Errorf("Expected one failed upload record, got %d err=%v", failed, err)
	}
}

func TestParseGenres(t *testing.T) {
	got := ParseGenres(" Drama, ,Comedy,Drama,")
	if len(got) != 2 || got[0] != "Drama" || got[1] != "Comedy" {
		t.Errorf("Unexpected genres %v", got)
	}
}

func fastBackOff() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
}

func TestDashboardRefresh(t *testing.T) {
	platform := &fakePlatform{
		listErrs: []error{errors.New("temporary"), nil},
		movies: []toribox.Movie{
			movie("m1", "A", episodes.EmbeddedEpisode{EpisodeID: "e1", Premium: true}, episodes.EmbeddedEpisode{EpisodeID: "e2"}),
			movie("m2", "B"),
			movie("m3", "C"),
			movie("m4", "D"),
		},
		public: map[string]string{
			"m1": `{"episodes":{"data":[{"episodeId":"e1"},{"episodeId":"e2"}]}}`,
			"m2": `{"data":[{"id":"x"}]}`,
			"m4": `{"message":"no episodes yet"}`,
		},
		publicErr: map[string]error{"m3": errors.New("timeout")},
	}
	db := testDatabase(t)
	ctrl := NewDashboardController(platform, db, nil, testLogger())
	ctrl.newBackOff = fastBackOff

	snapshot, err := ctrl.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if platform.calls() != 2 {
		t.Errorf("Expected the movie listing to be retried once, got %d calls", platform.calls())
	}
	if snapshot.MovieCount != 4 || snapshot.EpisodeCount != 3 || snapshot.PremiumEpisodeCount != 1 {
		t.Errorf("Unexpected counts %+v", snapshot)
	}
	if len(snapshot.FailedMovies) != 1 || snapshot.FailedMovies[0] != "m3" {
		t.Errorf("Expected m3 to be skipped, got %v", snapshot.FailedMovies)
	}

	latest, err := ctrl.Latest()
	if err != nil || latest.EpisodeCount != 3 {
		t.Errorf("Expected stored snapshot, got %+v err=%v", latest, err)
	}
}

func TestDashboardStopsOnUnauthorized(t *testing.T) {
	platform := &fakePlatform{listErrs: []error{&toribox.APIError{StatusCode: 401}}}
	ctrl := NewDashboardController(platform, testDatabase(t), nil, testLogger())
	ctrl.newBackOff = fastBackOff

	if _, err := ctrl.Refresh(context.Background()); !errors.Is(err, toribox.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
	if platform.calls() != 1 {
		t.Errorf("Expected no retry on unauthorized, got %d calls", platform.calls())
	}
}
