package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"annboard/announcements/internal/models"
)

// ClientConfig holds the knobs for the announcements fetch client.
type ClientConfig struct {
	// URL of the remote announcements document (a JSON array).
	URL string

	// UserAgent sent with every request.
	UserAgent string

	// RequestTimeout bounds a single HTTP attempt. 0 disables the
	// timeout entirely.
	RequestTimeout time.Duration

	// MaxRetries is the number of extra attempts made on transport
	// errors, with exponential backoff between them. 0 means a single
	// attempt. Status and parse errors are never retried.
	MaxRetries uint64

	// HTTPClient overrides the underlying client when set. Used by tests.
	HTTPClient *http.Client
}

// Client fetches and validates the remote announcements document.
type Client struct {
	url        string
	userAgent  string
	maxRetries uint64
	httpClient *http.Client
}

// NewClient creates a fetch client from the given configuration.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &Client{
		url:        cfg.URL,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		httpClient: httpClient,
	}
}

// FetchAnnouncements retrieves the document, validates its shape, and
// returns the filtered announcements. Transport failures are retried up
// to MaxRetries times; any other failure is returned immediately.
func (c *Client) FetchAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	var items []models.Announcement

	operation := func() error {
		fetched, err := c.fetchOnce(ctx)
		if err != nil {
			var netErr *NetworkError
			if errors.As(err, &netErr) {
				return err // retryable
			}
			return backoff.Permanent(err)
		}
		items = fetched
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return items, nil
}

// fetchOnce performs a single GET attempt against the announcements URL.
func (c *Client) fetchOnce(ctx context.Context) ([]models.Announcement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", c.url, err)
	}

	// Ask intermediaries for a fresh document rather than a cached copy.
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", c.url).Msg("Announcements request failed at transport level")
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// Parsed fine, just not an array.
			return nil, &InvalidFormatError{}
		}
		return nil, &MalformedJSONError{Err: err}
	}
	if elems == nil {
		// A bare "null" document parses into a nil slice.
		return nil, &InvalidFormatError{}
	}

	return models.FilterValid(elems), nil
}
