package routeservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const routePath = "/api/route"

var ErrNoStops = errors.New("response has no stops")

// Client is a Route Service API client.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	maxRetries    uint64
	retryInterval time.Duration
}

// NewClient creates a new Route Service client. Transient failures
// (transport errors and 5xx responses) are retried up to maxRetries times.
func NewClient(baseURL string, timeout time.Duration, maxRetries uint64) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       strings.TrimRight(baseURL, "/"),
		maxRetries:    maxRetries,
		retryInterval: 200 * time.Millisecond,
	}
}

// FindRoute returns the ordered stops between two stations for a departure at t.
func (c *Client) FindRoute(ctx context.Context, from, to string, t time.Time) ([]string, error) {
	body, err := json.Marshal(RouteRequest{
		From:     from,
		To:       to,
		DateTime: t.Format(DateTimeLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	var stops []string
	operation := func() error {
		var err error
		stops, err = c.post(ctx, body)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)); err != nil {
		return nil, err
	}
	return stops, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+routePath, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "omroep-generator/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("executing request: %w", err))
		}
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		if resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	var result RouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	if result.Stops == nil {
		return nil, backoff.Permanent(ErrNoStops)
	}

	return *result.Stops, nil
}
