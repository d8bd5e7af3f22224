// Package subtitle converts raw caption payloads into plain transcript text.
//
// Caption endpoints serve a handful of formats (JSON3, WebVTT, XML/SRV, and
// occasionally tag-littered plain text) and rarely set a usable content type,
// so the format is detected by sniffing the payload itself.
package subtitle

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
)

var (
	vttMetadataLine = regexp.MustCompile(`^(WEBVTT|Kind:|Language:|NOTE|STYLE|REGION)`)
	cueIndexLine    = regexp.MustCompile(`^\d+$`)
	inlineTag       = regexp.MustCompile(`<[^>]+>`)
	xmlTextBody     = regexp.MustCompile(`<text[^>]*>([\s\S]*?)</text>`)
	xmlParaBody     = regexp.MustCompile(`<p[^>]*>([\s\S]*?)</p>`)
	timestampRange  = regexp.MustCompile(`\d{1,2}:\d{2}(:\d{2})?[.,]?\d*\s*-->\s*\d{1,2}:\d{2}(:\d{2})?[.,]?\d*`)
	multiSpace      = regexp.MustCompile(`\s+`)
)

// minXMLResultLen guards against XML-ish payloads whose <text>/<p> bodies are
// empty or near-empty; shorter results fall through to the generic parser.
const minXMLResultLen = 50

// Parse converts a raw caption payload of unknown format into a single
// space-joined transcript. Malformed input yields "" rather than an error.
func Parse(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if text := parseJSON3(trimmed); text != "" {
			return text
		}
	}
	if strings.Contains(trimmed, "WEBVTT") || strings.Contains(trimmed, "-->") {
		if text := parseVTT(trimmed); text != "" {
			return text
		}
	}
	if strings.Contains(trimmed, "<text") || strings.Contains(trimmed, "<p") || strings.HasPrefix(trimmed, "<?xml") {
		if text := parseXML(trimmed); len(text) > minXMLResultLen {
			return text
		}
	}
	return parseGeneric(trimmed)
}

// json3Payload mirrors the relevant part of the JSON3 caption format:
// a list of events, each holding text segments.
type json3Payload struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func parseJSON3(raw string) string {
	var payload json3Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return ""
	}

	var parts []string
	for _, event := range payload.Events {
		var eventText strings.Builder
		for _, seg := range event.Segs {
			eventText.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(multiSpace.ReplaceAllString(eventText.String(), " "))
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func parseVTT(raw string) string {
	var lines []string
	previous := ""
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if vttMetadataLine.MatchString(line) {
			continue
		}
		// Cue timing lines, regardless of timestamp precision.
		if strings.Contains(line, "-->") {
			continue
		}
		if cueIndexLine.MatchString(strings.TrimSpace(line)) {
			continue
		}

		line = inlineTag.ReplaceAllString(line, "")
		line = strings.TrimSpace(multiSpace.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		// Auto-generated captions repeat partial text across overlapping cues.
		if line == previous {
			continue
		}
		lines = append(lines, line)
		previous = line
	}
	return strings.Join(lines, " ")
}

func parseXML(raw string) string {
	matches := xmlTextBody.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		matches = xmlParaBody.FindAllStringSubmatch(raw, -1)
	}

	var lines []string
	previous := ""
	for _, match := range matches {
		text := html.UnescapeString(match[1])
		text = strings.TrimSpace(inlineTag.ReplaceAllString(text, " "))
		text = multiSpace.ReplaceAllString(text, " ")
		if text == "" || text == previous {
			continue
		}
		lines = append(lines, text)
		previous = text
	}
	return strings.Join(lines, " ")
}

func parseGeneric(raw string) string {
	text := inlineTag.ReplaceAllString(raw, " ")
	text = timestampRange.ReplaceAllString(text, " ")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || cueIndexLine.MatchString(line) {
			continue
		}
		lines = append(lines, line)
	}
	joined := html.UnescapeString(strings.Join(lines, " "))
	return strings.TrimSpace(multiSpace.ReplaceAllString(joined, " "))
}
