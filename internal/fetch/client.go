// Package fetch provides the outbound HTTP plumbing shared by the scraping
// clients, including the browser-header resty factory and the rate limiter.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// NewClient returns a resty client with browser-like headers. Caption and
// watch-page endpoints block obvious non-browser traffic, so every scraping
// client shares this shape.
func NewClient(timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", defaultUserAgent)
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	client.SetHeader("Referer", "https://www.youtube.com/")
	return client
}

// Limiter wraps a token-bucket limiter shared by the scraping clients so a
// burst of lesson requests cannot hammer one upstream.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing requestsPerSecond sustained requests
// with a burst of one. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64) *Limiter {
	if requestsPerSecond <= 0 {
		return &Limiter{}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1)}
}

// Wait blocks until a request slot is available or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("limiter.Wait() > %w", err)
	}
	return nil
}
