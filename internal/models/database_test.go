package models

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "toriadmin.db"))
	if err != nil {
		t.Fatalf("NewDatabase failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSnapshots(t *testing.T) {
	db := newTestDatabase(t)

	if _, err := db.LatestSnapshot(); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Expected ErrNoSnapshot, got %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		snapshot := &StatsSnapshot{MovieCount: i + 1, CapturedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := db.SaveSnapshot(snapshot); err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}
	}

	latest, err := db.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if latest.MovieCount != 3 {
		t.Errorf("Expected newest snapshot, got %+v", latest)
	}

	pruned, err := db.PruneSnapshots(1)
	if err != nil {
		t.Fatalf("PruneSnapshots failed: %v", err)
	}
	if pruned != 2 {
		t.Errorf("Expected 2 pruned snapshots, got %d", pruned)
	}

	latest, err = db.LatestSnapshot()
	if err != nil || latest.MovieCount != 3 {
		t.Errorf("Expected newest snapshot to survive pruning, got %+v err=%v", latest, err)
	}
}

func TestUploads(t *testing.T) {
	db := newTestDatabase(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []*UploadRecord{
		{Kind: UploadKindMovie, Title: "Anikulapo", Status: UploadStatusSucceeded, CreatedAt: base},
		{Kind: UploadKindEpisode, MovieID: "m1", EpisodeNumber: 1, Status: UploadStatusSucceeded, CreatedAt: base.Add(time.Minute)},
		{Kind: UploadKindEpisode, MovieID: "m1", EpisodeNumber: 2, Status: UploadStatusFailed, FailureReason: "timeout", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, record := range records {
		if err := db.CreateUpload(record); err != nil {
			t.Fatalf("CreateUpload failed: %v", err)
		}
	}

	recent, err := db.RecentUploads(2)
	if err != nil {
		t.Fatalf("RecentUploads failed: %v", err)
	}
	if len(recent) != 2 || recent[0].EpisodeNumber != 2 || recent[1].EpisodeNumber != 1 {
		t.Errorf("Expected two newest uploads first, got %+v", recent)
	}

	all, err := db.RecentUploads(0)
	if err != nil || len(all) != 3 {
		t.Errorf("Expected all 3 uploads, got %d err=%v", len(all), err)
	}

	byMovie, err := db.GetUploadsByMovieID("m1", 0)
	if err != nil || len(byMovie) != 2 || byMovie[0].EpisodeNumber != 2 {
		t.Errorf("Expected 2 uploads for m1 newest first, got %+v err=%v", byMovie, err)
	}
	latest, err := db.GetUploadsByMovieID("m1", 1)
	if err != nil || len(latest) != 1 || latest[0].EpisodeNumber != 2 {
		t.Errorf("Expected only the newest m1 upload, got %+v err=%v", latest, err)
	}

	failed, err := db.CountUploads(UploadStatusFailed)
	if err != nil || failed != 1 {
		t.Errorf("Expected 1 failed upload, got %d err=%v", failed, err)
	}
}
