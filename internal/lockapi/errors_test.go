package lockapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"testing"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrTypeNetwork, "Network Error"},
		{ErrTypeTimeout, "Timeout"},
		{ErrTypeConnectionRefused, "Connection Refused"},
		{ErrTypeDNS, "DNS Error"},
		{ErrTypeDecode, "Decode Error"},
		{ErrTypeHTTP, "HTTP Error"},
		{ErrTypeValidation, "Validation Error"},
		{ErrorType(99), "ErrorType(99)"},
	}

	for _, tt := range tests {
		if got := tt.errType.String(); got != tt.want {
			t.Errorf("ErrorType(%d).String() = %q, want %q", tt.errType, got, tt.want)
		}
	}
}

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantType    ErrorType
		wantSubtype NetworkErrorSubtype
	}{
		{
			name:        "deadline exceeded",
			err:         context.DeadlineExceeded,
			wantType:    ErrTypeTimeout,
			wantSubtype: NetworkErrorTimeout,
		},
		{
			name:        "dns failure",
			err:         &net.DNSError{Name: "lock.invalid", Err: "no such host"},
			wantType:    ErrTypeDNS,
			wantSubtype: NetworkErrorDNS,
		},
		{
			name:        "connection refused",
			err:         &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			wantType:    ErrTypeConnectionRefused,
			wantSubtype: NetworkErrorConnectionRefused,
		},
		{
			name:        "host unreachable",
			err:         &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH},
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorHostUnreachable,
		},
		{
			name:        "generic",
			err:         errors.New("boom"),
			wantType:    ErrTypeNetwork,
			wantSubtype: NetworkErrorGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err, "http://lock/status")
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if got.NetworkSubtype != tt.wantSubtype {
				t.Errorf("NetworkSubtype = %v, want %v", got.NetworkSubtype, tt.wantSubtype)
			}
			if got.Endpoint != "http://lock/status" {
				t.Errorf("Endpoint = %q", got.Endpoint)
			}
		})
	}

	if ClassifyNetworkError(nil, "") != nil {
		t.Error("ClassifyNetworkError(nil) should be nil")
	}
}

func TestPredicates(t *testing.T) {
	transport := NewTransportError("GET failed", "http://lock", errors.New("reset"))
	decode := NewDecodeError("http://lock", "bad json", errors.New("eof"))
	httpErr := NewHTTPError(http.StatusUnauthorized, "http://lock", "wrong code")
	validation := NewValidationError("must be 4 digits")

	if !IsTransportError(transport) || IsTransportError(decode) {
		t.Error("IsTransportError misclassified")
	}
	if !IsDecodeError(decode) || IsDecodeError(httpErr) {
		t.Error("IsDecodeError misclassified")
	}
	if !IsHTTPError(httpErr) || IsHTTPError(validation) {
		t.Error("IsHTTPError misclassified")
	}
	if !IsValidationError(validation) || IsValidationError(transport) {
		t.Error("IsValidationError misclassified")
	}

	wrapped := fmt.Errorf("verify: %w", httpErr)
	if !IsHTTPError(wrapped) {
		t.Error("predicates should see through wrapping")
	}
	if StatusCode(wrapped) != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", StatusCode(wrapped))
	}
	if IsTransportError(errors.New("plain")) {
		t.Error("plain errors are not transport errors")
	}
}

func TestLockError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &LockError{Type: ErrTypeNetwork, Message: "GET request failed", Err: cause}

	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("Error() = %q, should mention the cause", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	bare := &LockError{Type: ErrTypeHTTP, Message: "unexpected status code: 500"}
	if bare.Error() != "HTTP Error: unexpected status code: 500" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestShortMessageAndHint(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantShort string
		wantHint  string
	}{
		{"http 500", NewHTTPError(500, "", "x"), "Server error (HTTP 500)", "internal error"},
		{"decode", NewDecodeError("", "x", nil), "Failed to parse server response", "not the expected JSON"},
		{"refused", &LockError{Type: ErrTypeConnectionRefused}, "Lock server refused connection", "lockpanel scan"},
		{"plain", errors.New("plain"), "plain", "unexpected error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortMessage(tt.err); got != tt.wantShort {
				t.Errorf("ShortMessage() = %q, want %q", got, tt.wantShort)
			}
			if got := TroubleshootingHint(tt.err); !strings.Contains(got, tt.wantHint) {
				t.Errorf("TroubleshootingHint() = %q, should contain %q", got, tt.wantHint)
			}
		})
	}
}
