package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every request made through a Client.
const DefaultTimeout = 30 * time.Second

type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	maxTries   uint
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithMaxTries caps the number of attempts per request. One means no retries.
func WithMaxTries(n uint) Option {
	return func(c *Client) {
		c.maxTries = n
	}
}

// WithRoundTripper replaces the underlying transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

type RequestOptions struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            interface{}
	Context         context.Context
	MaxElapsed      time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, string(e.Body))
}

func NewClient(opts ...Option) *Client {
	logger, _ := zap.NewProduction()
	return NewClientWithLogger(logger, opts...)
}

// NewClientWithLogger creates a new HTTP client with a custom logger
func NewClientWithLogger(logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RoundTripper returns the transport shared by every request of this client.
func (c *Client) RoundTripper() http.RoundTripper {
	if c.httpClient.Transport == nil {
		return http.DefaultTransport
	}
	return c.httpClient.Transport
}

func (c *Client) Do(opts RequestOptions) (*Response, error) {
	if opts.MaxElapsed == 0 {
		opts.MaxElapsed = 5 * time.Minute
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 100 * time.Millisecond
	}
	if opts.MaxInterval == 0 {
		opts.MaxInterval = 30 * time.Second
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = opts.InitialInterval
	expBackoff.MaxInterval = opts.MaxInterval
	expBackoff.Reset()

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	operation := func() (*Response, error) {
		req, err := c.buildRequest(ctx, opts)
		if err != nil {
			c.logger.Error("Failed to build request", zap.Error(err), zap.String("method", opts.Method), zap.String("url", opts.URL))
			return nil, backoff.Permanent(err)
		}

		c.logger.Debug("Making HTTP request",
			zap.String("method", opts.Method),
			zap.String("url", opts.URL))

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("HTTP request failed",
				zap.Error(err),
				zap.String("method", opts.Method),
				zap.String("url", opts.URL))
			return nil, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			c.logger.Error("Failed to read response body", zap.Error(err))
			return nil, backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}

		if httpResp.StatusCode >= 500 {
			c.logger.Warn("Server error",
				zap.Int("status_code", httpResp.StatusCode),
				zap.String("method", opts.Method),
				zap.String("url", opts.URL))
			return nil, &StatusError{StatusCode: httpResp.StatusCode, Body: body}
		}

		// 4xx and unexpected non-2xx codes are not retryable
		if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
			c.logger.Error("Client error, not retryable",
				zap.Int("status_code", httpResp.StatusCode),
				zap.String("method", opts.Method),
				zap.String("url", opts.URL),
				zap.String("response", string(body)))
			return nil, backoff.Permanent(&StatusError{StatusCode: httpResp.StatusCode, Body: body})
		}

		return &Response{
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			Body:       body,
		}, nil
	}

	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxElapsedTime(opts.MaxElapsed),
	}
	if c.maxTries > 0 {
		retryOpts = append(retryOpts, backoff.WithMaxTries(c.maxTries))
	}

	resp, err := backoff.Retry(ctx, operation, retryOpts...)
	if err != nil {
		c.logger.Error("HTTP request failed",
			zap.Error(err),
			zap.String("method", opts.Method),
			zap.String("url", opts.URL))
		return nil, err
	}

	c.logger.Debug("HTTP request completed successfully",
		zap.Int("status_code", resp.StatusCode),
		zap.String("method", opts.Method),
		zap.String("url", opts.URL))

	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, opts RequestOptions) (*http.Request, error) {
	var bodyReader io.Reader
	if opts.Body != nil {
		if bodyBytes, ok := opts.Body.([]byte); ok {
			bodyReader = bytes.NewReader(bodyBytes)
		} else {
			bodyJSON, err := json.Marshal(opts.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
			bodyReader = bytes.NewReader(bodyJSON)
		}
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

func (c *Client) Post(ctx context.Context, url string, headers map[string]string, body interface{}) (*Response, error) {
	return c.Do(RequestOptions{
		Method:  http.MethodPost,
		URL:     url,
		Headers: headers,
		Body:    body,
		Context: ctx,
	})
}
