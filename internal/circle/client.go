// Package circle talks to Circle's developer-controlled wallets API, the
// custody vendor that holds every user's USDC wallet.
package circle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/http2"
)

const (
	defaultBaseURL   = "https://api.circle.com"
	maxResponseBytes = 4 << 20
)

var (
	// ErrNotConfigured is returned when the API key or entity secret is missing.
	ErrNotConfigured = errors.New("circle: api key and entity secret are required")
	// ErrNotFound is returned when the vendor has no such wallet or transaction.
	ErrNotFound = errors.New("circle: not found")
	// ErrMalformedResponse is returned when a response lacks a required field.
	ErrMalformedResponse = errors.New("circle: malformed response")
)

// APIError is an error payload returned by the vendor.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("circle: %d (code %d): %s", e.Status, e.Code, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match vendor not-found answers.
func (e *APIError) Is(target error) bool {
	if target != ErrNotFound {
		return false
	}
	return e.Status == http.StatusNotFound || strings.Contains(strings.ToLower(e.Message), "not found")
}

// Config holds client configuration.
type Config struct {
	BaseURL      string
	APIKey       string
	EntitySecret string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Client is a Circle developer-controlled wallets client.
type Client struct {
	baseURL      string
	apiKey       string
	entitySecret string
	httpClient   *http.Client

	keyMu     sync.Mutex
	publicKey string
}

// New builds a client. The default HTTP client negotiates HTTP/2.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" || cfg.EntitySecret == "" {
		return nil, ErrNotConfigured
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		var err error
		httpClient, err = newHTTPClient(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("unable to create circle http client: %w", err)
		}
	}
	return &Client{
		baseURL:      baseURL,
		apiKey:       cfg.APIKey,
		entitySecret: cfg.EntitySecret,
		httpClient:   httpClient,
	}, nil
}

func newHTTPClient(timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}
	return &http.Client{Transport: tr, Timeout: timeout}, nil
}

// envelope is the vendor's {"data": ...} wrapper.
type envelope[T any] struct {
	Data T `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("circle request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &payload) == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
