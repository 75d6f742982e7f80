// Package youtube wraps the YouTube Data API v3 behind a small gateway with
// explicit error classification. Credentials are injected through config;
// nothing in here reads the process environment.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/channelwatch/channelwatch/internal/config"
	"github.com/channelwatch/channelwatch/pkg/models"
)

// Sentinel errors for provider failures. All of them are provider faults in
// the pipeline's taxonomy; the distinction only matters for logs.
var (
	ErrProviderUnavailable = errors.New("youtube provider unavailable")
	ErrRateLimited         = errors.New("youtube rate limit exceeded")
	ErrTimeout             = errors.New("youtube request timeout")
)

// Channel is the zero-or-one best match for a channel search.
type Channel struct {
	ID   string
	Name string
}

// Client is the interface for channel and video lookups.
type Client interface {
	// SearchChannel returns the provider's best match for the query, or
	// (nil, nil) when nothing matches.
	SearchChannel(ctx context.Context, query string) (*Channel, error)
	// ListRecentVideos returns up to limit videos for the channel, newest
	// first.
	ListRecentVideos(ctx context.Context, channelID string, limit int) ([]models.Video, error)
}

// HTTPClient implements Client using the YouTube Data API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a new YouTube HTTP client from config.
func NewHTTPClient(cfg config.YouTubeConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPClient) SearchChannel(ctx context.Context, query string) (*Channel, error) {
	params := url.Values{
		"part": {"snippet"},
		"type": {"channel"},
		"q":    {query},
		"key":  {c.apiKey},
	}

	var resp searchResponse
	if err := c.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Items) == 0 {
		return nil, nil
	}

	// First result wins; the API orders by relevance.
	item := resp.Items[0]
	id := item.ID.ChannelID
	if id == "" {
		id = item.Snippet.ChannelID
	}
	return &Channel{ID: id, Name: item.Snippet.Title}, nil
}

func (c *HTTPClient) ListRecentVideos(ctx context.Context, channelID string, limit int) ([]models.Video, error) {
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"channelId":  {channelID},
		"order":      {"date"},
		"maxResults": {strconv.Itoa(limit)},
		"key":        {c.apiKey},
	}

	var resp searchResponse
	if err := c.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		publishedAt, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		videos = append(videos, models.Video{
			VideoID:     item.ID.VideoID,
			Title:       item.Snippet.Title,
			URL:         "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			PublishedAt: publishedAt,
			Thumbnail:   item.Snippet.Thumbnails.Default.URL,
		})
	}
	return videos, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusForbidden:
		// The API reports quota exhaustion as 403 alongside bad credentials.
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding youtube response: %w", err)
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}

// --- YouTube response types ---

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID      searchItemID `json:"id"`
	Snippet snippet      `json:"snippet"`
}

type searchItemID struct {
	ChannelID string `json:"channelId"`
	VideoID   string `json:"videoId"`
}

type snippet struct {
	ChannelID   string     `json:"channelId"`
	Title       string     `json:"title"`
	PublishedAt string     `json:"publishedAt"`
	Thumbnails  thumbnails `json:"thumbnails"`
}

type thumbnails struct {
	Default thumbnail `json:"default"`
}

type thumbnail struct {
	URL string `json:"url"`
}
