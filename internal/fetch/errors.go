package fetch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// ErrRateLimited marks a 429 from an upstream. Callers must not fall through
// to further strategies against the same degraded upstream; the orchestrator
// surfaces this immediately.
var ErrRateLimited = errors.New("rate limited by upstream")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// CheckStatus converts a non-2xx resty response into an error, mapping 429 to
// ErrRateLimited.
func CheckStatus(response *resty.Response) error {
	if response.StatusCode() == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", response.Request.URL, ErrRateLimited)
	}
	if response.IsError() {
		return &StatusError{StatusCode: response.StatusCode(), URL: response.Request.URL}
	}
	return nil
}
