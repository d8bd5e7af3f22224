package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

// KindAutoGenerated marks machine-generated caption tracks. Manual tracks
// carry an empty kind.
const KindAutoGenerated = "asr"

// CaptionTrack is a single language/kind caption variant of a video. Derived
// per request from scraped page content, never persisted.
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
	Name         struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
}

// IsAutoGenerated reports whether the track is machine-generated.
func (t CaptionTrack) IsAutoGenerated() bool {
	return t.Kind == KindAutoGenerated
}

// SortTracks orders tracks for the cascade: manual before auto-generated,
// English-prefixed language codes before others, otherwise the scraped order.
func SortTracks(tracks []CaptionTrack) {
	sort.SliceStable(tracks, func(i, j int) bool {
		if tracks[i].IsAutoGenerated() != tracks[j].IsAutoGenerated() {
			return !tracks[i].IsAutoGenerated()
		}
		iEnglish := strings.HasPrefix(tracks[i].LanguageCode, "en")
		jEnglish := strings.HasPrefix(tracks[j].LanguageCode, "en")
		if iEnglish != jEnglish {
			return iEnglish
		}
		return false
	})
}

// Each pattern targets a known JSON embedding shape in watch-page markup.
// Minified markup changes frequently; the first pattern that parses with at
// least one track wins, and individual parse failures fall through.
var captionTrackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"captionTracks":(\[.*?\])[,}]`),
	regexp.MustCompile(`\{"playerCaptionsTracklistRenderer":\{"captionTracks":(\[.*?\])`),
}

var automaticCaptionLangPattern = regexp.MustCompile(`"automaticCaptions":\{"([a-zA-Z-]+)"`)

// Locator enumerates a video's available caption tracks from its public
// watch page.
type Locator struct {
	pages *PageClient
}

// NewLocator creates a Locator over the given page client.
func NewLocator(pages *PageClient) *Locator {
	return &Locator{pages: pages}
}

// PageInfo is what the locator learns from one watch-page fetch.
type PageInfo struct {
	Title  string
	Tracks []CaptionTrack
}

// Locate fetches the watch page and extracts the video title and available
// caption tracks, sorted by preference. Fetch failures propagate; pattern
// parse failures are swallowed and the next pattern is tried.
func (l *Locator) Locate(ctx context.Context, videoID string) (PageInfo, error) {
	pageHTML, err := l.pages.FetchWatchPage(ctx, videoID)
	if err != nil {
		return PageInfo{}, fmt.Errorf("pages.FetchWatchPage() > %w", err)
	}

	info := PageInfo{Tracks: extractTracks(pageHTML)}
	if len(info.Tracks) == 0 {
		// Last resort: synthesize timedtext URLs from automatic-caption
		// language codes alone.
		info.Tracks = synthesizeAutoTracks(pageHTML, videoID)
	}
	SortTracks(info.Tracks)

	if playerResponse, err := ExtractPlayerResponse(pageHTML); err == nil {
		info.Title = playerResponse.VideoDetails.Title
	}
	return info, nil
}

func extractTracks(pageHTML string) []CaptionTrack {
	for _, pattern := range captionTrackPatterns {
		match := pattern.FindStringSubmatch(pageHTML)
		if match == nil {
			continue
		}
		var tracks []CaptionTrack
		if err := json.Unmarshal([]byte(match[1]), &tracks); err != nil {
			slog.Default().Debug("caption track pattern parse failed", "pattern", pattern.String(), "error", err)
			continue
		}
		if len(tracks) > 0 {
			return tracks
		}
	}

	// The full player response embeds the same tracklist; brace-balanced
	// scanning survives markup shapes the flat patterns miss.
	playerResponse, err := ExtractPlayerResponse(pageHTML)
	if err != nil {
		slog.Default().Debug("player response extraction failed", "error", err)
		return nil
	}
	return playerResponse.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
}

func synthesizeAutoTracks(pageHTML, videoID string) []CaptionTrack {
	matches := automaticCaptionLangPattern.FindAllStringSubmatch(pageHTML, -1)
	seen := map[string]bool{}
	var tracks []CaptionTrack
	for _, match := range matches {
		lang := match[1]
		if seen[lang] {
			continue
		}
		seen[lang] = true
		track := CaptionTrack{
			BaseURL:      fmt.Sprintf("https://www.youtube.com/api/timedtext?v=%s&lang=%s&kind=%s", videoID, lang, KindAutoGenerated),
			LanguageCode: lang,
			Kind:         KindAutoGenerated,
		}
		tracks = append(tracks, track)
	}
	return tracks
}
