package openai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "JSON parse error",
			err:  errors.New("json.Unmarshal({broken) > unexpected end of JSON input"),
			want: true,
		},
		{
			name: "server error",
			err:  errors.New("response error 503: upstream overloaded"),
			want: true,
		},
		{
			name: "rate limit",
			err:  errors.New("response error 429: slow down"),
			want: true,
		},
		{
			name: "connection refused",
			err:  errors.New("dial tcp: connection refused"),
			want: true,
		},
		{
			name: "client error",
			err:  errors.New("response error 400: bad request"),
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestSanitizeModelJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "already clean object",
			content: `{"a": 1}`,
			want:    `{"a": 1}`,
		},
		{
			name:    "fenced with language tag",
			content: "```json\n{\"a\": 1}\n```",
			want:    `{"a": 1}`,
		},
		{
			name:    "prose around an array",
			content: "Sure! Here you go:\n[{\"a\": 1}]\nHope that helps.",
			want:    `[{"a": 1}]`,
		},
		{
			name:    "braces inside string values",
			content: `note {"text": "use {} carefully"} trailing`,
			want:    `{"text": "use {} carefully"}`,
		},
		{
			name:    "control characters stripped",
			content: "{\"a\": \"b\x00c\"}",
			want:    `{"a": "bc"}`,
		},
		{
			name:    "no JSON at all",
			content: "I cannot analyze this transcript.",
			want:    "I cannot analyze this transcript.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeModelJSON(tt.content))
		})
	}
}
