package toribox

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/episodes"
)

// Genre is a movie genre tag
type Genre struct {
	Title string `json:"title"`
}

// UnmarshalJSON accepts both {"title": "..."} and a bare string
func (g *Genre) UnmarshalJSON(data []byte) error {
	var title string
	if err := json.Unmarshal(data, &title); err == nil {
		g.Title = title
		return nil
	}

	var obj struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	g.Title = obj.Title
	return nil
}

// Movie is a movie record as returned by the movie listings
type Movie struct {
	ID          string                     `json:"_id"`
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	Genre       []Genre                    `json:"genre"`
	Image       string                     `json:"image"`
	Video       string                     `json:"video"`
	Episodes    []episodes.EmbeddedEpisode `json:"episodes"`
}

// Ref returns the part of the movie the episode reconciler uses
func (m Movie) Ref() episodes.MovieRef {
	return episodes.MovieRef{ID: m.ID, Episodes: m.Episodes}
}

// GenreTitles returns the genre names in order
func (m Movie) GenreTitles() []string {
	titles := make([]string, 0, len(m.Genre))
	for _, g := range m.Genre {
		titles = append(titles, g.Title)
	}
	return titles
}

// moviesResponse covers both listing shapes: {"movie": {"data": [...]}} and {"data": [...]}
type moviesResponse struct {
	Movie *struct {
		Data []Movie `json:"data"`
	} `json:"movie"`
	Data []Movie `json:"data"`
}

func (r moviesResponse) movies() []Movie {
	if r.Movie != nil && r.Movie.Data != nil {
		return r.Movie.Data
	}
	if r.Data != nil {
		return r.Data
	}
	return []Movie{}
}

// ListMovies returns all movies. With a token the admin listing is used,
// which includes unpublished titles; otherwise the public one.
func (c *Client) ListMovies(ctx context.Context, token string) ([]Movie, error) {
	path := "/api/movies/get"
	if token != "" {
		path = "/api/users/admin/movies/get"
	}

	var resp moviesResponse
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	movies := resp.movies()
	c.logger.WithFields(logrus.Fields{
		"count": len(movies),
		"admin": token != "",
	}).Debug("Listed movies")

	return movies, nil
}

// MovieUpload is a new movie with its cover image and video
type MovieUpload struct {
	Title       string
	Description string
	Genres      []string
	Cover       FilePart
	Video       FilePart
}

// UploadMovie creates a movie. The backend expects the fields in this exact
// order, with one genre field per genre holding {"title": ...} JSON.
func (c *Client) UploadMovie(ctx context.Context, token string, upload MovieUpload) error {
	if err := requireToken(token); err != nil {
		return err
	}

	err := c.postMultipart(ctx, "/api/movies/upload", token, func(w *multipart.Writer) error {
		if err := writeFile(w, "video", upload.Video); err != nil {
			return err
		}
		if err := writeFile(w, "image", upload.Cover); err != nil {
			return err
		}
		if err := w.WriteField("title", strings.TrimSpace(upload.Title)); err != nil {
			return err
		}
		if err := w.WriteField("description", strings.TrimSpace(upload.Description)); err != nil {
			return err
		}
		for _, genre := range upload.Genres {
			encoded, err := json.Marshal(Genre{Title: genre})
			if err != nil {
				return err
			}
			if err := w.WriteField("genre", string(encoded)); err != nil {
				return err
			}
		}
		return w.WriteField("coming_soon", "")
	})
	if err != nil {
		return fmt.Errorf("failed to upload movie: %w", err)
	}

	c.logger.WithField("title", upload.Title).Info("Movie uploaded")
	return nil
}

// RatingRequest identifies a user's rating of a movie
type RatingRequest struct {
	UniqueID string `json:"unique_id"`
	MovieID  string `json:"movie_id"`
}

// AddRating adds a rating for a movie on behalf of a user
func (c *Client) AddRating(ctx context.Context, rating RatingRequest) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/movies/ratings/add", "", rating, nil); err != nil {
		return fmt.Errorf("failed to add rating: %w", err)
	}
	return nil
}

// RemoveRating removes a user's rating of a movie
func (c *Client) RemoveRating(ctx context.Context, rating RatingRequest) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/movies/ratings/un-add", "", rating, nil); err != nil {
		return fmt.Errorf("failed to remove rating: %w", err)
	}
	return nil
}

// UploadSearchQuery registers a search query suggestion
func (c *Client) UploadSearchQuery(ctx context.Context, token, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("search query is empty")
	}
	if err := requireToken(token); err != nil {
		return err
	}

	body := map[string]string{"query": query}
	if err := c.doJSON(ctx, http.MethodPost, "/api/movies/search/query/upload", token, body, nil); err != nil {
		return fmt.Errorf("failed to upload search query: %w", err)
	}
	return nil
}
