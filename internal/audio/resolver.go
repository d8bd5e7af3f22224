// Package audio locates a playable audio stream URL for a video through a
// cascade of mirror backends and, last, the video's own watch page.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/knishimura/lingotube/internal/fetch"
	"github.com/knishimura/lingotube/internal/youtube"
)

// ErrNoAudioStream is returned when every strategy and mirror is exhausted.
// Callers treat this as "not found", not as a hard pipeline failure.
var ErrNoAudioStream = errors.New("no audio stream found")

// StreamInfo is a resolved, directly fetchable audio stream.
type StreamInfo struct {
	URL      string
	MimeType string
}

// Known audio-only stream format ids, probed in preference order:
// m4a before opus/webm.
var probeItags = []int{140, 139, 251, 250, 249}

// Config carries the mirror host lists and the per-host timeout.
type Config struct {
	PrimaryMirrors   []string
	SecondaryMirrors []string
	// RateLimitedMirror is appended after shuffling so the unreliable host is
	// always tried last.
	RateLimitedMirror string
	MirrorTimeout     time.Duration
}

// Resolver tries mirror strategies in order until one yields a stream.
type Resolver struct {
	httpClient *resty.Client
	pages      *youtube.PageClient
	config     Config
	shuffle    func([]string) []string
}

// NewResolver creates a Resolver. The page client is shared with the caption
// locator so watch-page requests go through one limiter.
func NewResolver(config Config, pages *youtube.PageClient) *Resolver {
	if config.MirrorTimeout <= 0 {
		config.MirrorTimeout = 4 * time.Second
	}
	return &Resolver{
		httpClient: fetch.NewClient(config.MirrorTimeout),
		pages:      pages,
		config:     config,
		shuffle:    shuffleHosts,
	}
}

// shuffleHosts returns a copy in random order, spreading load across mirrors.
func shuffleHosts(hosts []string) []string {
	shuffled := make([]string, len(hosts))
	copy(shuffled, hosts)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

func (r *Resolver) hostOrder(hosts []string) []string {
	var rest []string
	var deprioritized bool
	for _, host := range hosts {
		if host == r.config.RateLimitedMirror {
			deprioritized = true
			continue
		}
		rest = append(rest, host)
	}
	ordered := r.shuffle(rest)
	if deprioritized {
		ordered = append(ordered, r.config.RateLimitedMirror)
	}
	return ordered
}

// Resolve returns a direct audio stream URL and MIME type, or ErrNoAudioStream
// once every strategy is exhausted. Per-host failures are logged and skipped;
// nothing short of full exhaustion is fatal.
func (r *Resolver) Resolve(ctx context.Context, videoID string) (StreamInfo, error) {
	strategies := []struct {
		name string
		run  func(context.Context, string) (StreamInfo, error)
	}{
		{"primary mirrors", r.resolvePrimary},
		{"secondary mirrors", r.resolveSecondary},
		{"itag probe", r.resolveItagProbe},
		{"watch page", r.resolveWatchPage},
	}

	for _, strategy := range strategies {
		if ctx.Err() != nil {
			return StreamInfo{}, ctx.Err()
		}
		info, err := strategy.run(ctx, videoID)
		if err == nil {
			return info, nil
		}
		slog.Default().Debug("audio strategy failed", "strategy", strategy.name, "videoID", videoID, "error", err)
	}
	return StreamInfo{}, ErrNoAudioStream
}

// primaryManifest is the stream manifest shape of the first mirror family.
type primaryManifest struct {
	AudioStreams []struct {
		URL      string `json:"url"`
		MimeType string `json:"mimeType"`
		Bitrate  int    `json:"bitrate"`
	} `json:"audioStreams"`
}

func (r *Resolver) resolvePrimary(ctx context.Context, videoID string) (StreamInfo, error) {
	for _, host := range r.hostOrder(r.config.PrimaryMirrors) {
		attemptCtx, cancel := context.WithTimeout(ctx, r.config.MirrorTimeout)
		info, err := r.fetchPrimaryManifest(attemptCtx, host, videoID)
		cancel()
		if err != nil {
			slog.Default().Debug("primary mirror failed", "host", host, "error", err)
			continue
		}
		return info, nil
	}
	return StreamInfo{}, fmt.Errorf("all primary mirrors exhausted for %s", videoID)
}

func (r *Resolver) fetchPrimaryManifest(ctx context.Context, host, videoID string) (StreamInfo, error) {
	response, err := r.httpClient.R().
		SetContext(ctx).
		SetResult(&primaryManifest{}).
		Get(fmt.Sprintf("https://%s/api/v1/streams/%s", host, videoID))
	if err != nil {
		return StreamInfo{}, fmt.Errorf("httpClient.Get(stream manifest) > %w", err)
	}
	if response.IsError() {
		return StreamInfo{}, &fetch.StatusError{StatusCode: response.StatusCode(), URL: response.Request.URL}
	}

	manifest := response.Result().(*primaryManifest)
	best := StreamInfo{}
	bestScore := -1
	for _, stream := range manifest.AudioStreams {
		if stream.URL == "" {
			continue
		}
		score := mimeScore(stream.MimeType)
		if score > bestScore {
			best = StreamInfo{URL: stream.URL, MimeType: stream.MimeType}
			bestScore = score
		}
	}
	if best.URL == "" {
		return StreamInfo{}, fmt.Errorf("manifest from %s has no audio streams", host)
	}
	return best, nil
}

// secondaryManifest is the second mirror family's shape: a flat format list
// where audio entries are identified by their type string.
type secondaryManifest struct {
	Formats []struct {
		URL  string `json:"url"`
		Type string `json:"type"`
	} `json:"formats"`
}

func (r *Resolver) resolveSecondary(ctx context.Context, videoID string) (StreamInfo, error) {
	for _, host := range r.hostOrder(r.config.SecondaryMirrors) {
		attemptCtx, cancel := context.WithTimeout(ctx, r.config.MirrorTimeout)
		info, err := r.fetchSecondaryManifest(attemptCtx, host, videoID)
		cancel()
		if err != nil {
			slog.Default().Debug("secondary mirror failed", "host", host, "error", err)
			continue
		}
		return info, nil
	}
	return StreamInfo{}, fmt.Errorf("all secondary mirrors exhausted for %s", videoID)
}

func (r *Resolver) fetchSecondaryManifest(ctx context.Context, host, videoID string) (StreamInfo, error) {
	response, err := r.httpClient.R().
		SetContext(ctx).
		SetResult(&secondaryManifest{}).
		Get(fmt.Sprintf("https://%s/api/videos/%s", host, videoID))
	if err != nil {
		return StreamInfo{}, fmt.Errorf("httpClient.Get(format list) > %w", err)
	}
	if response.IsError() {
		return StreamInfo{}, &fetch.StatusError{StatusCode: response.StatusCode(), URL: response.Request.URL}
	}

	manifest := response.Result().(*secondaryManifest)
	best := StreamInfo{}
	bestScore := -1
	for _, format := range manifest.Formats {
		if format.URL == "" || !strings.Contains(strings.ToLower(format.Type), "audio") {
			continue
		}
		score := mimeScore(format.Type)
		if score > bestScore {
			best = StreamInfo{URL: format.URL, MimeType: format.Type}
			bestScore = score
		}
	}
	if best.URL == "" {
		return StreamInfo{}, fmt.Errorf("no audio formats from %s", host)
	}
	return best, nil
}

// resolveItagProbe sends lightweight existence checks for known audio format
// ids against each mirror's latest-version redirect endpoint.
func (r *Resolver) resolveItagProbe(ctx context.Context, videoID string) (StreamInfo, error) {
	hosts := append(r.hostOrder(r.config.PrimaryMirrors), r.hostOrder(r.config.SecondaryMirrors)...)
	for _, host := range hosts {
		for _, itag := range probeItags {
			probeURL := fmt.Sprintf("https://%s/latest_version?id=%s&itag=%d", host, videoID, itag)

			attemptCtx, cancel := context.WithTimeout(ctx, r.config.MirrorTimeout)
			response, err := r.httpClient.R().
				SetContext(attemptCtx).
				Head(probeURL)
			cancel()
			if err != nil {
				slog.Default().Debug("itag probe failed", "host", host, "itag", itag, "error", err)
				continue
			}
			if response.IsError() {
				continue
			}
			return StreamInfo{URL: probeURL, MimeType: itagMimeType(itag)}, nil
		}
	}
	return StreamInfo{}, fmt.Errorf("itag probes exhausted for %s", videoID)
}

// resolveWatchPage is the last resort: parse the player response embedded in
// the video's own watch page and take the first adaptive audio format with a
// direct URL.
func (r *Resolver) resolveWatchPage(ctx context.Context, videoID string) (StreamInfo, error) {
	pageHTML, err := r.pages.FetchWatchPage(ctx, videoID)
	if err != nil {
		return StreamInfo{}, fmt.Errorf("pages.FetchWatchPage() > %w", err)
	}

	playerResponse, err := youtube.ExtractPlayerResponse(pageHTML)
	if err != nil {
		return StreamInfo{}, fmt.Errorf("youtube.ExtractPlayerResponse() > %w", err)
	}

	for _, format := range playerResponse.StreamingData.AdaptiveFormats {
		if format.URL == "" || !strings.Contains(format.MimeType, "audio") {
			continue
		}
		return StreamInfo{URL: format.URL, MimeType: format.MimeType}, nil
	}
	return StreamInfo{}, fmt.Errorf("player response for %s has no direct audio URL", videoID)
}

// mimeScore prefers m4a/mp4 containers over webm; speech-to-text backends
// accept both but m4a uploads transcode more reliably.
func mimeScore(mimeType string) int {
	lower := strings.ToLower(mimeType)
	switch {
	case strings.Contains(lower, "m4a") || strings.Contains(lower, "mp4"):
		return 2
	case strings.Contains(lower, "webm"):
		return 1
	default:
		return 0
	}
}

func itagMimeType(itag int) string {
	switch itag {
	case 139, 140:
		return "audio/mp4"
	default:
		return "audio/webm"
	}
}
