package gamedata

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"
)

// Client fetches set data from a community data service over HTTP.
type Client struct {
	httpClient *http.Client
	config     ClientConfig
}

// ClientConfig holds settings for the data client.
type ClientConfig struct {
	// BaseURL of the data service, e.g. "https://data.example.com".
	BaseURL string
	// Timeout for HTTP requests.
	Timeout time.Duration
	// MaxRetries on retryable failures.
	MaxRetries int
	// BaseRetryDelay is the initial delay between retries.
	BaseRetryDelay time.Duration
	// MaxRetryDelay caps the exponential backoff.
	MaxRetryDelay time.Duration
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:        15 * time.Second,
		MaxRetries:     3,
		BaseRetryDelay: 2 * time.Second,
		MaxRetryDelay:  10 * time.Second,
	}
}

// NewClient creates a data client with the given configuration.
// Zero-valued fields fall back to the defaults.
func NewClient(config ClientConfig) *Client {
	def := DefaultClientConfig()
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.BaseRetryDelay == 0 {
		config.BaseRetryDelay = def.BaseRetryDelay
	}
	if config.MaxRetryDelay == 0 {
		config.MaxRetryDelay = def.MaxRetryDelay
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

// FetchSet downloads and validates the set-data document for a namespace.
func (c *Client) FetchSet(ctx context.Context, namespace string) (*SetData, error) {
	if c.config.BaseURL == "" {
		return nil, &DataUnavailableError{Namespace: namespace, Reason: "no data service configured"}
	}
	u, err := url.JoinPath(c.config.BaseURL, "sets", namespace+".yaml")
	if err != nil {
		return nil, fmt.Errorf("build set url: %w", err)
	}

	body, err := c.getWithRetry(ctx, u)
	if err != nil {
		return nil, err
	}
	d, err := Parse(body)
	if err != nil {
		return nil, err
	}
	if d.Namespace != namespace {
		return nil, fmt.Errorf("data service returned set %q for request %q", d.Namespace, namespace)
	}
	return d, nil
}

func (c *Client) getWithRetry(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay(attempt)):
			}
		}

		body, err := c.get(ctx, u)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !IsRetryableError(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("data fetch failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/yaml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{URL: u, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: u, Err: err}
	}
	return body, nil
}

// retryDelay computes exponential backoff for the given attempt (1-based).
func (c *Client) retryDelay(attempt int) time.Duration {
	delay := time.Duration(float64(c.config.BaseRetryDelay) * math.Pow(2, float64(attempt-1)))
	if delay > c.config.MaxRetryDelay {
		delay = c.config.MaxRetryDelay
	}
	return delay
}
