package models

import "time"

// UploadKind is what an upload created
type UploadKind string

const (
	UploadKindEpisode UploadKind = "episode"
	UploadKindMovie   UploadKind = "movie"
)

// UploadStatus represents the outcome of an upload
type UploadStatus string

const (
	UploadStatusSucceeded UploadStatus = "succeeded"
	UploadStatusFailed    UploadStatus = "failed"
)

// StatsSnapshot is one capture of the dashboard statistics
type StatsSnapshot struct {
	ID uint64 `boltholdKey:"ID" json:"id"`

	MovieCount          int `json:"movie_count"`
	EpisodeCount        int `json:"episode_count"`
	PremiumEpisodeCount int `json:"premium_episode_count"`

	// Movies whose episode listing could not be read during the capture
	FailedMovies []string `json:"failed_movies"`

	CapturedAt time.Time `boltholdIndex:"CapturedAt" json:"captured_at"`
}

// UploadRecord is the local audit trail of an upload attempt
type UploadRecord struct {
	ID uint64 `boltholdKey:"ID" json:"id"`

	Kind    UploadKind `boltholdIndex:"Kind" json:"kind"`
	MovieID string     `boltholdIndex:"MovieID" json:"movie_id,omitempty"`
	Title   string     `json:"title"`

	// Episode uploads only
	EpisodeNumber int  `json:"episode_number,omitempty"`
	Premium       bool `json:"premium,omitempty"`

	Status        UploadStatus `boltholdIndex:"Status" json:"status"`
	FailureReason string       `json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
