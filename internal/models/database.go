package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// ErrNoSnapshot is returned when no dashboard statistics were captured yet
var ErrNoSnapshot = errors.New("no statistics snapshot captured yet")

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Snapshot operations

// SaveSnapshot stores a new statistics snapshot
func (db *Database) SaveSnapshot(snapshot *StatsSnapshot) error {
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now()
	}
	return db.store.Insert(bolthold.NextSequence(), snapshot)
}

// LatestSnapshot returns the most recently captured snapshot
func (db *Database) LatestSnapshot() (*StatsSnapshot, error) {
	var snapshots []*StatsSnapshot
	err := db.store.Find(&snapshots, (&bolthold.Query{}).SortBy("CapturedAt").Reverse().Limit(1))
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshot
	}
	return snapshots[0], nil
}

// PruneSnapshots keeps the newest keep snapshots and deletes the rest
func (db *Database) PruneSnapshots(keep int) (int, error) {
	var snapshots []*StatsSnapshot
	err := db.store.Find(&snapshots, (&bolthold.Query{}).SortBy("CapturedAt").Reverse().Skip(keep))
	if err != nil {
		return 0, err
	}

	for _, snapshot := range snapshots {
		if err := db.store.Delete(snapshot.ID, &StatsSnapshot{}); err != nil {
			return 0, err
		}
	}

	return len(snapshots), nil
}

// Upload operations

// CreateUpload records an upload attempt
func (db *Database) CreateUpload(record *UploadRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	return db.store.Insert(bolthold.NextSequence(), record)
}

// RecentUploads returns the newest uploads first; limit <= 0 returns all of them
func (db *Database) RecentUploads(limit int) ([]*UploadRecord, error) {
	query := (&bolthold.Query{}).SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []*UploadRecord
	if err := db.store.Find(&records, query); err != nil {
		return nil, err
	}
	return records, nil
}

// GetUploadsByMovieID returns the uploads made for a movie, newest first;
// limit <= 0 returns all of them
func (db *Database) GetUploadsByMovieID(movieID string, limit int) ([]*UploadRecord, error) {
	query := bolthold.Where("MovieID").Eq(movieID).SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []*UploadRecord
	if err := db.store.Find(&records, query); err != nil {
		return nil, err
	}
	return records, nil
}

// CountUploads returns how many uploads with the given status were recorded
func (db *Database) CountUploads(status UploadStatus) (int, error) {
	count, err := db.store.Count(&UploadRecord{}, bolthold.Where("Status").Eq(status))
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
