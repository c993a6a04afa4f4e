package toribox

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

// AdminEpisodes returns the raw authenticated episode listing of a movie.
// The body shape varies, callers extract the episode array themselves.
func (c *Client) AdminEpisodes(ctx context.Context, movieID, token string) ([]byte, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, "/api/users/admin/movies/episode/get/"+url.PathEscape(movieID), token)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin episodes: %w", err)
	}
	return body, nil
}

// PublicEpisodes returns the raw public episode listing of a movie
func (c *Client) PublicEpisodes(ctx context.Context, movieID string) ([]byte, error) {
	body, err := c.get(ctx, "/api/movies/episode/get/"+url.PathEscape(movieID), "")
	if err != nil {
		return nil, fmt.Errorf("failed to get episodes: %w", err)
	}
	return body, nil
}

// EpisodeUpload is a new episode video for a movie
type EpisodeUpload struct {
	MovieID       string
	EpisodeNumber int
	Premium       bool
	Video         FilePart
}

// UploadEpisode uploads an episode video
func (c *Client) UploadEpisode(ctx context.Context, token string, upload EpisodeUpload) error {
	if err := requireToken(token); err != nil {
		return err
	}

	err := c.postMultipart(ctx, "/api/movies/episode/upload", token, func(w *multipart.Writer) error {
		if err := w.WriteField("movieId", upload.MovieID); err != nil {
			return err
		}
		if err := w.WriteField("episode_count", strconv.Itoa(upload.EpisodeNumber)); err != nil {
			return err
		}
		if err := writeFile(w, "video", upload.Video); err != nil {
			return err
		}
		return w.WriteField("is_premium", strconv.FormatBool(upload.Premium))
	})
	if err != nil {
		return fmt.Errorf("failed to upload episode: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"movie_id": upload.MovieID,
		"episode":  upload.EpisodeNumber,
		"premium":  upload.Premium,
	}).Info("Episode uploaded")
	return nil
}
