package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/knishimura/lingotube/internal/fetch"
)

// PlayerResponse is the subset of the embedded player JSON the scrapers need:
// the video title, caption tracks, and adaptive stream formats.
type PlayerResponse struct {
	VideoDetails struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
	} `json:"videoDetails"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []CaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	StreamingData struct {
		AdaptiveFormats []AdaptiveFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
}

// AdaptiveFormat is a single stream variant from the player response.
type AdaptiveFormat struct {
	Itag     int    `json:"itag"`
	MimeType string `json:"mimeType"`
	URL      string `json:"url"`
	Bitrate  int    `json:"bitrate"`
}

// PageClient fetches public watch pages.
type PageClient struct {
	httpClient *resty.Client
	limiter    *fetch.Limiter
	baseURL    string
}

// NewPageClient creates a watch-page client. The limiter may be shared with
// other scraping clients.
func NewPageClient(timeout time.Duration, limiter *fetch.Limiter) *PageClient {
	return &PageClient{
		httpClient: fetch.NewClient(timeout),
		limiter:    limiter,
		baseURL:    "https://www.youtube.com",
	}
}

// SetBaseURL overrides the watch-page origin. Used by tests.
func (c *PageClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// FetchWatchPage returns the raw HTML of a video's watch page. Non-2xx
// responses are errors; 429 maps to fetch.ErrRateLimited.
func (c *PageClient) FetchWatchPage(ctx context.Context, videoID string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	response, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("v", videoID).
		Get(c.baseURL + "/watch")
	if err != nil {
		return "", fmt.Errorf("httpClient.Get(watch page) > %w", err)
	}
	if err := fetch.CheckStatus(response); err != nil {
		return "", err
	}
	return response.String(), nil
}

const playerResponseMarker = "ytInitialPlayerResponse"

// ExtractPlayerResponse locates the embedded player JSON in watch-page markup
// by brace-balanced scanning from the marker. Naive regex cannot reliably
// bound the deeply nested object.
func ExtractPlayerResponse(pageHTML string) (*PlayerResponse, error) {
	markerIdx := strings.Index(pageHTML, playerResponseMarker)
	if markerIdx == -1 {
		return nil, fmt.Errorf("%s not found in page", playerResponseMarker)
	}

	jsonStart := strings.Index(pageHTML[markerIdx:], "{")
	if jsonStart == -1 {
		return nil, fmt.Errorf("no JSON object after %s marker", playerResponseMarker)
	}
	jsonStart += markerIdx

	raw, err := scanBalancedObject(pageHTML, jsonStart)
	if err != nil {
		return nil, fmt.Errorf("scanBalancedObject() > %w", err)
	}

	var playerResponse PlayerResponse
	if err := json.Unmarshal([]byte(raw), &playerResponse); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(player response) > %w", err)
	}
	return &playerResponse, nil
}

// scanBalancedObject returns the substring from start (which must be '{') to
// its matching closing brace, respecting string literals and escapes.
func scanBalancedObject(s string, start int) (string, error) {
	if start >= len(s) || s[start] != '{' {
		return "", fmt.Errorf("object does not start with '{' at offset %d", start)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced braces from offset %d", start)
}
