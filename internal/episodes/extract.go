package episodes

import (
	"bytes"
	"encoding/json"
	"errors"
)

var (
	// ErrMalformedBody is returned when a listing response is not valid JSON
	ErrMalformedBody = errors.New("episode listing is not valid JSON")
	// ErrNoEpisodeArray is returned when no extraction strategy finds an episode array
	ErrNoEpisodeArray = errors.New("episode listing has no recognizable episode array")
)

// Strategy locates the episode array inside a listing response by
// following Path through nested objects.
type Strategy struct {
	Name string
	Path []string
}

// Strategies are the response shapes the listing endpoints have been seen to
// return, tried in order. The first path that leads to an array wins, even
// when that array is empty.
var Strategies = []Strategy{
	{Name: "episode.data", Path: []string{"episode", "data"}},
	{Name: "episodes.data", Path: []string{"episodes", "data"}},
	{Name: "data", Path: []string{"data"}},
	{Name: "episodes", Path: []string{"episodes"}},
}

var jsonNull = []byte("null")

// resolve walks the strategy path and returns the raw array items it ends on
func (s Strategy) resolve(body []byte) ([]json.RawMessage, bool) {
	current := json.RawMessage(body)
	for _, key := range s.Path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(current, &obj); err != nil {
			return nil, false
		}
		next, ok := obj[key]
		if !ok {
			return nil, false
		}
		current = next
	}

	if bytes.Equal(bytes.TrimSpace(current), jsonNull) {
		return nil, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(current, &items); err != nil {
		return nil, false
	}
	return items, true
}

// Extract pulls the remote episodes out of a listing response body. It
// returns the name of the strategy that matched. Items that are not JSON
// objects are skipped.
func Extract(body []byte) ([]RemoteEpisode, string, error) {
	if !json.Valid(body) {
		return nil, "", ErrMalformedBody
	}

	for _, strategy := range Strategies {
		items, ok := strategy.resolve(body)
		if !ok {
			continue
		}

		remote := make([]RemoteEpisode, 0, len(items))
		for _, item := range items {
			var fields map[string]any
			if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
				continue
			}
			remote = append(remote, remoteEpisodeFromFields(fields))
		}
		return remote, strategy.Name, nil
	}

	return nil, "", ErrNoEpisodeArray
}
