package youtube

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/knishimura/lingotube/internal/fetch"
)

// APIClient wraps the official data API: caption listing/download and video
// metadata. All calls are best effort; callers fall back to scraping when
// the API declines.
type APIClient struct {
	httpClient *resty.Client
	apiKey     string
	baseURL    string
}

// NewAPIClient creates an official-API client. The key is required; callers
// should not construct this client when no key is configured.
func NewAPIClient(apiKey string, timeout time.Duration) *APIClient {
	client := resty.New()
	client.SetTimeout(timeout)
	return &APIClient{
		httpClient: client,
		apiKey:     apiKey,
		baseURL:    "https://www.googleapis.com/youtube/v3",
	}
}

// SetBaseURL overrides the API origin. Used by tests.
func (c *APIClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

type captionListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Language  string `json:"language"`
			TrackKind string `json:"trackKind"`
			Name      string `json:"name"`
		} `json:"snippet"`
	} `json:"items"`
}

type videoListResponse struct {
	Items []struct {
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

// VideoTitle fetches the video's title.
func (c *APIClient) VideoTitle(ctx context.Context, videoID string) (string, error) {
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part": "snippet",
			"id":   videoID,
			"key":  c.apiKey,
		}).
		SetResult(&videoListResponse{}).
		Get(c.baseURL + "/videos")
	if err != nil {
		return "", fmt.Errorf("httpClient.Get(videos) > %w", err)
	}
	if err := fetch.CheckStatus(response); err != nil {
		return "", err
	}

	result := response.Result().(*videoListResponse)
	if len(result.Items) == 0 {
		return "", fmt.Errorf("video %s not found", videoID)
	}
	return result.Items[0].Snippet.Title, nil
}

// FetchCaptions lists the video's caption tracks through the API, picks the
// best one (standard before ASR, English first), and downloads it. The
// download endpoint rejects most unauthenticated requests, which surfaces as
// an error and moves the cascade along.
func (c *APIClient) FetchCaptions(ctx context.Context, videoID string) (string, error) {
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part":    "snippet",
			"videoId": videoID,
			"key":     c.apiKey,
		}).
		SetResult(&captionListResponse{}).
		Get(c.baseURL + "/captions")
	if err != nil {
		return "", fmt.Errorf("httpClient.Get(captions list) > %w", err)
	}
	if err := fetch.CheckStatus(response); err != nil {
		return "", err
	}

	result := response.Result().(*captionListResponse)
	if len(result.Items) == 0 {
		return "", fmt.Errorf("no caption tracks via API for video %s", videoID)
	}

	best := result.Items[0]
	for _, item := range result.Items {
		if item.Snippet.TrackKind != "ASR" && best.Snippet.TrackKind == "ASR" {
			best = item
			continue
		}
		if item.Snippet.TrackKind == best.Snippet.TrackKind &&
			item.Snippet.Language == "en" && best.Snippet.Language != "en" {
			best = item
		}
	}

	download, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"tfmt": "vtt",
			"key":  c.apiKey,
		}).
		Get(c.baseURL + "/captions/" + best.ID)
	if err != nil {
		return "", fmt.Errorf("httpClient.Get(caption download) > %w", err)
	}
	if err := fetch.CheckStatus(download); err != nil {
		return "", err
	}
	return download.String(), nil
}
