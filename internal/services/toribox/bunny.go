package toribox

import (
	"context"
	"fmt"
	"net/http"
)

// BunnyVideo is a video stored in the Bunny Stream library
type BunnyVideo struct {
	GUID              string `json:"guid"`
	Title             string `json:"title"`
	DateUploaded      string `json:"dateUploaded"`
	Length            int    `json:"length"`
	Views             int    `json:"views"`
	ThumbnailFileName string `json:"thumbnailFileName"`
	HasMP4Fallback    bool   `json:"hasMP4Fallback"`
}

// ListBunnyVideos returns the videos in the Bunny library
func (c *Client) ListBunnyVideos(ctx context.Context) ([]BunnyVideo, error) {
	var resp struct {
		Response struct {
			Items []BunnyVideo `json:"items"`
		} `json:"response"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/movies/list-bunny-videos", "", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list Bunny videos: %w", err)
	}
	if resp.Response.Items == nil {
		return []BunnyVideo{}, nil
	}
	return resp.Response.Items, nil
}

// ThumbnailURL returns the CDN thumbnail of a Bunny video
func (c *Client) ThumbnailURL(guid string) string {
	return fmt.Sprintf("%s/%s/thumbnail.jpg", c.bunnyCDN, guid)
}

// PlayURL returns the 720p MP4 rendition of a Bunny video
func (c *Client) PlayURL(guid string) string {
	return fmt.Sprintf("%s/%s/play_720p.mp4", c.bunnyCDN, guid)
}
