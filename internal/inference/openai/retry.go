package openai

import (
	"strings"
)

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Retry on JSON parsing errors as they might be due to incomplete responses
	errStr := err.Error()
	if strings.Contains(errStr, "json.Unmarshal") || strings.Contains(errStr, "unexpected end of JSON input") {
		return true
	}

	// Retry on network-related errors
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// Retry on 5xx errors (server errors)
	if strings.Contains(errStr, "response error 5") {
		return true
	}

	// Retry on rate limiting (429)
	if strings.Contains(errStr, "response error 429") {
		return true
	}

	return false
}

// sanitizeModelJSON normalizes a model reply into something json.Decode can
// take: markdown code fences are stripped, control characters the model
// occasionally emits raw are removed, and surrounding prose is cut down to
// the first balanced JSON object or array.
func sanitizeModelJSON(content string) string {
	content = stripCodeFences(content)
	content = stripControlChars(content)
	if extracted := extractBalancedJSON(content); extracted != "" {
		return extracted
	}
	return strings.TrimSpace(content)
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}

	// Drop the opening fence line ("```" or "```json") and a matching
	// closing fence if present.
	if idx := strings.Index(trimmed, "\n"); idx != -1 {
		trimmed = trimmed[idx+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "```")
	}
	if idx := strings.LastIndex(trimmed, "```"); idx != -1 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

// stripControlChars removes raw control characters except tab and newline,
// which are legal inside the surrounding formatting but not inside JSON
// string values anyway once the decoder sees them.
func stripControlChars(content string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, content)
}

// extractBalancedJSON returns the first balanced top-level JSON object or
// array in content, respecting string literals and escapes. Empty when none
// is found.
func extractBalancedJSON(content string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(content); i++ {
		if content[i] == '{' {
			start, open, close = i, '{', '}'
			break
		}
		if content[i] == '[' {
			start, open, close = i, '[', ']'
			break
		}
	}
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
