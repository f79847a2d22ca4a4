package lockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muurk/lockpanel/internal/logging"
	"github.com/muurk/lockpanel/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Second

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// RequestIDHeader carries a per-request id so server logs can be correlated
	RequestIDHeader = "X-Request-ID"

	// maxBodySize bounds how much of a response body is read
	maxBodySize = 1 << 20
)

// Client talks to the lock server's JSON endpoints
type Client struct {
	// BaseURL is the server base URL (e.g., "http://127.0.0.1:5000")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the number of extra attempts for reads that fail at the
	// transport level. Writes are never retried.
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool

	// RequireOK makes reads treat any status other than 200 as an HTTP
	// error instead of accepting the whole 2xx range
	RequireOK bool
}

// NewClient creates a client for the server at baseURL.
// Retries are disabled; pollers rely on the next tick instead.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimRight(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            0,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior for reads
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Get fetches path and decodes the JSON body into out.
// A non-2xx status is an HTTP error, an undecodable body a decode error and
// a missing response a transport error.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return NewTransportError("request cancelled", c.BaseURL+path, ctx.Err())
			case <-time.After(currentDelay):
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		err := c.getAttempt(ctx, path, out)
		if err == nil {
			return nil
		}

		lastErr = err

		// Only transport failures are worth another attempt
		if !IsTransportError(err) || !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

// getAttempt performs a single GET
func (c *Client) getAttempt(ctx context.Context, path string, out any) error {
	endpoint := c.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return NewTransportError("failed to create GET request", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, body, err := c.do(req)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || (c.RequireOK && resp.StatusCode != http.StatusOK) {
		return NewHTTPError(resp.StatusCode, endpoint, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return NewDecodeError(endpoint, "failed to parse JSON response", err)
	}

	return nil
}

// Post sends body as JSON to path. It returns an error only when no HTTP
// response was received; any response, including an error status or a body
// that is not JSON, produces a PostResult.
func (c *Client) Post(ctx context.Context, path string, body any) (*PostResult, error) {
	endpoint := c.BaseURL + path

	if body == nil {
		body = struct{}{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, NewTransportError("failed to create POST request", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	result := &PostResult{
		Succeeded:  resp.StatusCode >= 200 && resp.StatusCode <= 299,
		StatusCode: resp.StatusCode,
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err == nil {
		result.Body = parsed
	}

	return result, nil
}

// do executes req, tagging it with a request id, and reads the whole body.
func (c *Client) do(req *http.Request) (*http.Response, []byte, error) {
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("User-Agent", version.UserAgent())

	endpoint := req.URL.String()
	logging.LogRequest(req.Method, endpoint, requestID)
	start := time.Now()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, NewTransportError(req.Method+" request failed", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, NewTransportError("failed to read response body", endpoint, err)
	}

	logging.LogResponse(req.Method, endpoint, requestID, resp.StatusCode, time.Since(start))
	return resp, body, nil
}

// GetOTP fetches the currently displayed one-time passcode
func (c *Client) GetOTP(ctx context.Context) (*OTPResponse, error) {
	var otp OTPResponse
	if err := c.Get(ctx, PathOTP, &otp); err != nil {
		return nil, err
	}
	return &otp, nil
}

// GetStatus fetches the Bluetooth and door state.
// A body without door_locked reads as locked, so a partial answer never
// shows the door open or fires an unlock cue.
func (c *Client) GetStatus(ctx context.Context) (*StatusResponse, error) {
	status := StatusResponse{DoorLocked: true}
	if err := c.Get(ctx, PathStatus, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// VerifyOTP submits a passcode. HTTP 401 means the code was wrong.
func (c *Client) VerifyOTP(ctx context.Context, code string) (*PostResult, error) {
	return c.Post(ctx, PathVerifyOTP, VerifyRequest{OTP: code})
}

// UnlockBluetooth asks the server to unlock through the Bluetooth channel
func (c *Client) UnlockBluetooth(ctx context.Context) (*PostResult, error) {
	return c.Post(ctx, PathUnlockBT, nil)
}

// ToggleBluetooth flips the Bluetooth-enabled flag
func (c *Client) ToggleBluetooth(ctx context.Context) (*PostResult, error) {
	return c.Post(ctx, PathToggleBT, nil)
}

// MediaUnlock triggers the media-key unlock path
func (c *Client) MediaUnlock(ctx context.Context) (*PostResult, error) {
	return c.Post(ctx, PathMediaUnlock, nil)
}
