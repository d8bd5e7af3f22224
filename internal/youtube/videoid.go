// Package youtube locates and downloads caption data for public videos,
// through the official data API, watch-page scraping, and the timedtext
// endpoint.
package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID parses a video id out of the URL shapes users paste:
// watch?v=, youtu.be/, embed/, shorts/, live/, or a bare 11-character id.
func ExtractVideoID(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if videoIDPattern.MatchString(trimmed) {
		return trimmed, nil
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("url.Parse(%s) > %w", rawURL, err)
	}

	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	switch host {
	case "youtu.be":
		id := strings.Trim(strings.SplitN(strings.TrimPrefix(parsed.Path, "/"), "/", 2)[0], "/")
		if videoIDPattern.MatchString(id) {
			return id, nil
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := parsed.Query().Get("v"); videoIDPattern.MatchString(id) {
			return id, nil
		}
		for _, prefix := range []string{"/embed/", "/shorts/", "/live/", "/v/"} {
			if strings.HasPrefix(parsed.Path, prefix) {
				id := strings.SplitN(strings.TrimPrefix(parsed.Path, prefix), "/", 2)[0]
				if videoIDPattern.MatchString(id) {
					return id, nil
				}
			}
		}
	}

	return "", fmt.Errorf("no video id found in %q", rawURL)
}
