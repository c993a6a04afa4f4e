package episodes

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MovieRef is the part of a movie record that defines which episodes exist
type MovieRef struct {
	ID       string            `json:"_id"`
	Episodes []EmbeddedEpisode `json:"episodes"`
}

// EmbeddedEpisode is the authoritative episode descriptor embedded in a movie record.
// It carries no streaming URL.
type EmbeddedEpisode struct {
	EpisodeID    string `json:"episodeId"`
	EpisodeCount int    `json:"episode_count"`
	Premium      bool   `json:"premium"`
}

// UnmarshalJSON accepts numeric or string episode counts and premium flags
// given as booleans or "true"/"false" under either premium or is_premium.
func (e *EmbeddedEpisode) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	e.EpisodeID = stringField(fields, "episodeId")
	e.EpisodeCount = countValue(fields["episode_count"])
	e.Premium = IsPremium(fields)
	return nil
}

// RemoteEpisode is a record from one of the episode listings. Only its
// playback URL is used; its presence says nothing about whether the episode exists.
type RemoteEpisode struct {
	ID     string
	Stream string
}

// remoteEpisodeFromFields reads the identifier from episodeId or id and the
// URL from stream or HLSStream, first non-empty value wins.
func remoteEpisodeFromFields(fields map[string]any) RemoteEpisode {
	return RemoteEpisode{
		ID:     firstNonEmpty(stringField(fields, "episodeId"), stringField(fields, "id")),
		Stream: firstNonEmpty(stringField(fields, "stream"), stringField(fields, "HLSStream")),
	}
}

// MergedEpisode is the display-ready result of a reconciliation.
// A nil Stream means the video is not available yet (still processing).
type MergedEpisode struct {
	EpisodeID    string  `json:"episodeId"`
	EpisodeCount int     `json:"episode_count"`
	Premium      bool    `json:"premium"`
	Stream       *string `json:"stream"`
}

// HasStream reports whether a playback URL was found for the episode
func (m MergedEpisode) HasStream() bool {
	return m.Stream != nil
}

func stringField(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// countValue converts an episode_count value to an int. Numeric strings are
// read like JSON numbers and fractions round to the nearest episode.
// Missing or non-numeric values count as 0.
func countValue(v any) int {
	var n float64
	switch c := v.(type) {
	case float64:
		n = c
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return int(math.Round(n))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
