package lockapi

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error with no HTTP response
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the server refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeDecode indicates a response was received but its body is not the expected JSON
	ErrTypeDecode
	// ErrTypeHTTP indicates a valid HTTP response with an error status
	ErrTypeHTTP
	// ErrTypeValidation indicates input rejected before any request was made
	ErrTypeValidation
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeDecode:
		return "Decode Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// LockError represents an error that occurred while talking to the lock server
type LockError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code (if applicable)
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
	Endpoint       string              // Request URL (for context)
	Retryable      bool                // Whether the error is retryable
}

// Error implements the error interface
func (e *LockError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *LockError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a more specific error type
func ClassifyNetworkError(err error, endpoint string) *LockError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &LockError{
			Type:           ErrTypeTimeout,
			Message:        "Request timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
			Endpoint:       endpoint,
			Retryable:      true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &LockError{
			Type:           ErrTypeDNS,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			NetworkSubtype: NetworkErrorDNS,
			Endpoint:       endpoint,
			Retryable:      false,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &LockError{
				Type:           ErrTypeConnectionRefused,
				Message:        "Lock server refused connection",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionRefused,
				Endpoint:       endpoint,
				Retryable:      true,
			}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &LockError{
				Type:           ErrTypeNetwork,
				Message:        "Host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				Endpoint:       endpoint,
				Retryable:      true,
			}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &LockError{
				Type:           ErrTypeNetwork,
				Message:        "Network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				Endpoint:       endpoint,
				Retryable:      true,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Recursively classify the underlying error
		return ClassifyNetworkError(urlErr.Err, endpoint)
	}

	return &LockError{
		Type:           ErrTypeNetwork,
		Message:        "Network error occurred",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
		Endpoint:       endpoint,
		Retryable:      true,
	}
}

// NewTransportError creates a transport-level error with automatic classification
func NewTransportError(message, endpoint string, err error) *LockError {
	classified := ClassifyNetworkError(err, endpoint)
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &LockError{
		Type:      ErrTypeNetwork,
		Message:   message,
		Err:       err,
		Endpoint:  endpoint,
		Retryable: true,
	}
}

// NewHTTPError creates an application-level error for a non-2xx response
func NewHTTPError(statusCode int, endpoint, message string) *LockError {
	return &LockError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Retryable:  false,
	}
}

// NewDecodeError creates an error for a response body that is not valid JSON
func NewDecodeError(endpoint, message string, err error) *LockError {
	return &LockError{
		Type:      ErrTypeDecode,
		Message:   message,
		Err:       err,
		Endpoint:  endpoint,
		Retryable: false,
	}
}

// NewValidationError creates an error for input rejected on the client
func NewValidationError(message string) *LockError {
	return &LockError{
		Type:      ErrTypeValidation,
		Message:   message,
		Retryable: false,
	}
}

func asLockError(err error) (*LockError, bool) {
	var lockErr *LockError
	if errors.As(err, &lockErr) {
		return lockErr, true
	}
	return nil, false
}

// IsTransportError reports whether err means no HTTP response was received
// (including timeout, connection refused and DNS failures).
func IsTransportError(err error) bool {
	if lockErr, ok := asLockError(err); ok {
		return lockErr.Type == ErrTypeNetwork ||
			lockErr.Type == ErrTypeTimeout ||
			lockErr.Type == ErrTypeConnectionRefused ||
			lockErr.Type == ErrTypeDNS
	}
	return false
}

// IsDecodeError checks if an error is a decode error
func IsDecodeError(err error) bool {
	if lockErr, ok := asLockError(err); ok {
		return lockErr.Type == ErrTypeDecode
	}
	return false
}

// IsHTTPError checks if an error is an HTTP status error
func IsHTTPError(err error) bool {
	if lockErr, ok := asLockError(err); ok {
		return lockErr.Type == ErrTypeHTTP
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if lockErr, ok := asLockError(err); ok {
		return lockErr.Type == ErrTypeValidation
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if lockErr, ok := asLockError(err); ok {
		return lockErr.Retryable
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if lockErr, ok := asLockError(err); ok {
		return lockErr.StatusCode
	}
	return 0
}

// TroubleshootingHint returns user-friendly troubleshooting advice for an error
func TroubleshootingHint(err error) string {
	lockErr, ok := asLockError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch lockErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The lock server did not respond in time.",
			"Troubleshooting:",
			"  • Check that the lock server is running",
			"  • Try increasing --timeout",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The lock server refused the connection.",
			"Troubleshooting:",
			"  • Ensure the server is listening on the configured port (default 5000)",
			"  • Verify --url or SMARTLOCK_URL",
			"  • Run 'lockpanel scan' to find servers on the local network",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the lock server hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Check your network DNS settings",
		}, "\n")

	case ErrTypeNetwork:
		switch lockErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "The lock server host is not reachable. Verify the address and that you are on the same network."
		case NetworkErrorNetworkUnreachable:
			return "Your computer cannot reach the lock server's network. Check your network connection."
		default:
			return "Network communication failed. Check your connection and the server address."
		}

	case ErrTypeHTTP:
		if lockErr.StatusCode >= 500 {
			return fmt.Sprintf("The lock server returned an internal error (HTTP %d). Check the server log.", lockErr.StatusCode)
		}
		return fmt.Sprintf("The lock server rejected the request (HTTP %d).", lockErr.StatusCode)

	case ErrTypeDecode:
		return "The lock server answered with something that is not the expected JSON. Check that the URL points at the lock server."

	case ErrTypeValidation:
		return "The input is invalid. Check the error message for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	lockErr, ok := asLockError(err)
	if !ok {
		return err.Error()
	}

	switch lockErr.Type {
	case ErrTypeTimeout:
		return "Lock server not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Lock server refused connection"
	case ErrTypeDNS:
		return "Cannot resolve lock server hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Server error (HTTP %d)", lockErr.StatusCode)
	case ErrTypeDecode:
		return "Failed to parse server response"
	default:
		return lockErr.Message
	}
}
