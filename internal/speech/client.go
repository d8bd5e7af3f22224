// Package speech wraps the hosted speech-to-text API and the capped audio
// download that feeds it.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/knishimura/lingotube/internal/fetch"
)

// Client uploads audio blobs for transcription.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	apiKey     string
	maxBytes   int64
}

// NewClient creates a speech-to-text client. maxBytes caps how much audio is
// downloaded and uploaded per request, bounding memory when piping a stream
// through a transcription call.
func NewClient(baseURL, apiKey string, maxBytes int64, timeout time.Duration) *Client {
	client := resty.New()
	client.SetTimeout(timeout)
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &Client{
		httpClient: client,
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxBytes:   maxBytes,
	}
}

// DownloadAudio fetches up to maxBytes of the stream with a byte-range
// request. Servers that ignore Range still get truncated client side.
func (c *Client) DownloadAudio(ctx context.Context, streamURL string) ([]byte, error) {
	download := fetch.NewClient(c.httpClient.GetClient().Timeout)
	response, err := download.R().
		SetContext(ctx).
		SetHeader("Range", fmt.Sprintf("bytes=0-%d", c.maxBytes-1)).
		Get(streamURL)
	if err != nil {
		return nil, fmt.Errorf("download.Get(audio stream) > %w", err)
	}
	if response.StatusCode() != http.StatusOK && response.StatusCode() != http.StatusPartialContent {
		if err := fetch.CheckStatus(response); err != nil {
			return nil, err
		}
	}

	body := response.Body()
	if int64(len(body)) > c.maxBytes {
		body = body[:c.maxBytes]
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty audio stream from %s", streamURL)
	}
	return body, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads an audio blob as a multipart form and returns the plain
// transcribed text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	fileName := "audio.m4a"
	if mimeType != "" && mimeType != "audio/mp4" && mimeType != "audio/m4a" {
		fileName = "audio.webm"
	}

	response, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetFileReader("file", fileName, bytes.NewReader(audio)).
		SetFormData(map[string]string{
			"model":           "whisper-1",
			"response_format": "json",
		}).
		SetResult(&transcriptionResponse{}).
		Post(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("httpClient.Post(transcription) > %w", err)
	}
	if err := fetch.CheckStatus(response); err != nil {
		return "", err
	}

	result := response.Result().(*transcriptionResponse)
	if result.Text == "" {
		return "", fmt.Errorf("empty transcription for %d audio bytes", len(audio))
	}
	return result.Text, nil
}
