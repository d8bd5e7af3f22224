package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/knishimura/lingotube/internal/fetch"
)

// TimedTextClient downloads caption payloads, either from a scraped track's
// base URL or by probing the timedtext endpoint directly.
type TimedTextClient struct {
	httpClient *resty.Client
	limiter    *fetch.Limiter
	baseURL    string
}

// NewTimedTextClient creates a timedtext client sharing the scraping limiter.
func NewTimedTextClient(timeout time.Duration, limiter *fetch.Limiter) *TimedTextClient {
	return &TimedTextClient{
		httpClient: fetch.NewClient(timeout),
		limiter:    limiter,
		baseURL:    "https://www.youtube.com/api/timedtext",
	}
}

// SetBaseURL overrides the timedtext endpoint. Used by tests.
func (c *TimedTextClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// FetchTrack downloads the raw caption payload of a scraped track.
func (c *TimedTextClient) FetchTrack(ctx context.Context, track CaptionTrack) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	response, err := c.httpClient.R().
		SetContext(ctx).
		Get(track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("httpClient.Get(caption track) > %w", err)
	}
	if err := fetch.CheckStatus(response); err != nil {
		return "", err
	}
	return response.String(), nil
}

// Permutations of the direct timedtext endpoint. The endpoint answers 200
// with an empty body for most wrong guesses, so every combination is cheap
// to probe and only non-empty payloads count.
var (
	timedTextFormats = []string{"json3", "srv3", "vtt", ""}
	timedTextKinds   = []string{"", KindAutoGenerated}
)

// ProbeDirect tries the timedtext endpoint across language x format x kind
// permutations and returns the first non-empty payload. Rate-limit errors
// abort the probe immediately; other failures continue to the next
// permutation.
func (c *TimedTextClient) ProbeDirect(ctx context.Context, videoID string, languageCodes []string) (string, error) {
	for _, lang := range languageCodes {
		for _, format := range timedTextFormats {
			for _, kind := range timedTextKinds {
				payload, err := c.probeOne(ctx, videoID, lang, format, kind)
				if err != nil {
					if errors.Is(err, fetch.ErrRateLimited) || ctx.Err() != nil {
						return "", err
					}
					slog.Default().Debug("timedtext probe failed",
						"videoID", videoID, "lang", lang, "fmt", format, "kind", kind, "error", err)
					continue
				}
				if payload != "" {
					return payload, nil
				}
			}
		}
	}
	return "", fmt.Errorf("no timedtext payload for video %s", videoID)
}

func (c *TimedTextClient) probeOne(ctx context.Context, videoID, lang, format, kind string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	request := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("v", videoID).
		SetQueryParam("lang", lang)
	if format != "" {
		request.SetQueryParam("fmt", format)
	}
	if kind != "" {
		request.SetQueryParam("kind", kind)
	}

	response, err := request.Get(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("httpClient.Get(timedtext) > %w", err)
	}
	if err := fetch.CheckStatus(response); err != nil {
		return "", err
	}
	return response.String(), nil
}
