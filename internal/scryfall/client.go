// Package scryfall provides a rate-limited client for the Scryfall API,
// used to backfill card prices and image links. It is presentation-side
// enrichment and plays no part in query-time scoring.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	baseURL        = "https://api.scryfall.com"
	rateLimitDelay = 100 * time.Millisecond // 100ms between requests (10 req/sec)
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
)

// Client represents a Scryfall API client with rate limiting.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	userAgent   string
	backoff     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRequestInterval overrides the minimum delay between requests.
func WithRequestInterval(d time.Duration) Option {
	return func(c *Client) { c.rateLimiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithRetryBackoff overrides the initial retry backoff.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// NewClient creates a new Scryfall API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		baseURL:     baseURL,
		userAgent:   "commander-crafter/1.0",
		backoff:     initialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Card is the subset of Scryfall's card object the app consumes.
type Card struct {
	Name        string `json:"name"`
	ScryfallURI string `json:"scryfall_uri"`
	Prices      struct {
		USD string `json:"usd"`
	} `json:"prices"`
	ImageURIs struct {
		Small  string `json:"small"`
		Normal string `json:"normal"`
		Large  string `json:"large"`
	} `json:"image_uris"`
}

// PriceUSD returns the card's USD price, or false when Scryfall has no
// price listed.
func (c *Card) PriceUSD() (float64, bool) {
	if c.Prices.USD == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(c.Prices.USD, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ImageURL returns the best available card image link.
func (c *Card) ImageURL() string {
	switch {
	case c.ImageURIs.Large != "":
		return c.ImageURIs.Large
	case c.ImageURIs.Normal != "":
		return c.ImageURIs.Normal
	default:
		return c.ImageURIs.Small
	}
}

// GetCardByName retrieves a card by exact name, falling back to fuzzy
// matching when the exact lookup misses.
func (c *Client) GetCardByName(ctx context.Context, name string) (*Card, error) {
	card, err := c.namedLookup(ctx, "exact", name)
	if err == nil {
		return card, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	card, err = c.namedLookup(ctx, "fuzzy", name)
	if err != nil {
		return nil, fmt.Errorf("failed to find card %q: %w", name, err)
	}
	return card, nil
}

func (c *Client) namedLookup(ctx context.Context, mode, name string) (*Card, error) {
	u := fmt.Sprintf("%s/cards/named?%s=%s", c.baseURL, mode, url.QueryEscape(name))
	var card Card
	if err := c.doRequest(ctx, u, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// statusError carries the HTTP status for retry/fallback decisions.
type statusError struct {
	status int
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("scryfall request %s returned status %d", e.url, e.status)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

// doRequest performs a rate-limited GET with retries on transient
// failures and decodes the JSON response into out.
func (c *Client) doRequest(ctx context.Context, url string, out interface{}) error {
	backoff := c.backoff
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			err = json.NewDecoder(resp.Body).Decode(out)
			closeBody(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			closeBody(resp.Body)
			lastErr = &statusError{status: resp.StatusCode, url: url}
			continue
		default:
			closeBody(resp.Body)
			return &statusError{status: resp.StatusCode, url: url}
		}
	}

	return fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

func closeBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
