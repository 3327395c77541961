package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

const defaultBaseURL = "https://api.relay.link"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=relay_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Relay routing API
type Client struct {
	baseURL      string
	httpClient   HTTPClient
	source       string
	breaker      *gobreaker.CircuitBreaker
	pollInterval time.Duration
	maxPolls     int
}

// ClientOption is a configuration option for the Relay API client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithSource sets the referrer tag attached to quote requests.
func WithSource(source string) ClientOption {
	return func(c *Client) {
		c.source = source
	}
}

// WithPollInterval sets the execution status polling cadence.
func WithPollInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

// NewClient creates a new Relay API client
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		source:       "relay-bridge",
		pollInterval: 5 * time.Second,
		maxPolls:     120,
	}
	for _, option := range options {
		option(client)
	}
	// The quote endpoint is hit on every settled keystroke; stop hammering
	// it once it starts failing consistently.
	client.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "relay-quote",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return client
}

// Quote prices a bridging route
func (c *Client) Quote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	if req.Referrer == "" {
		req.Referrer = c.source
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchQuote(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Quote), nil
}

func (c *Client) fetchQuote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quote request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/quote", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote from API: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, apiError(httpResp)
	}

	var quote Quote
	if err := json.NewDecoder(httpResp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	return &quote, nil
}

// ExecutionStatus checks the execution status of a submitted route
func (c *Client) ExecutionStatus(ctx context.Context, requestID string) (*StatusResponse, error) {
	endpoint := c.baseURL + "/intents/status/v2?requestId=" + url.QueryEscape(requestID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, apiError(httpResp)
	}

	var status StatusResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	return &status, nil
}

// apiError extracts the actual error message from a non-2xx response body
func apiError(httpResp *http.Response) error {
	bodyBytes, readErr := io.ReadAll(httpResp.Body)
	if readErr == nil && len(bodyBytes) > 0 {
		var errorResp map[string]interface{}
		if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
			if message, ok := errorResp["message"].(string); ok {
				return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, message)
			}
			if errors, ok := errorResp["errors"]; ok {
				return fmt.Errorf("API error (status %d): %v", httpResp.StatusCode, errors)
			}
		}
		return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(bodyBytes))
	}
	return fmt.Errorf("API returned status code %d", httpResp.StatusCode)
}
