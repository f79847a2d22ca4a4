package lockapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// closedServerURL returns the URL of a server that is no longer listening
func closedServerURL() string {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()
	return url
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://127.0.0.1:5000/")

	if client.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("BaseURL = %s, want http://127.0.0.1:5000", client.BaseURL)
	}

	if client.HTTPClient == nil {
		t.Fatal("HTTPClient should not be nil")
	}

	if client.HTTPClient.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", client.HTTPClient.Timeout, DefaultTimeout)
	}

	if client.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", client.MaxRetries)
	}
}

func TestSetTimeoutAndRetry(t *testing.T) {
	client := NewClient("http://127.0.0.1:5000")
	client.SetTimeout(time.Second)
	client.SetRetry(3, 10*time.Millisecond)

	if client.HTTPClient.Timeout != time.Second {
		t.Errorf("Timeout = %v, want 1s", client.HTTPClient.Timeout)
	}
	if client.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", client.MaxRetries)
	}
	if client.RetryDelay != 10*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 10ms", client.RetryDelay)
	}
}

func TestGetOTP_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Request method = %s, want GET", r.Method)
		}
		if r.URL.Path != PathOTP {
			t.Errorf("Request path = %s, want %s", r.URL.Path, PathOTP)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("request should carry a request id")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"otp":"0421","remaining":7,"step":15}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	otp, err := client.GetOTP(context.Background())
	if err != nil {
		t.Fatalf("GetOTP() error = %v, want nil", err)
	}

	if otp.OTP != "0421" {
		t.Errorf("OTP = %s, want 0421", otp.OTP)
	}
	if otp.Remaining != 7 {
		t.Errorf("Remaining = %d, want 7", otp.Remaining)
	}
	if otp.Step != 15 {
		t.Errorf("Step = %d, want 15", otp.Step)
	}
}

func TestGetStatus(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantBluetooth bool
		wantLocked    bool
	}{
		{"locked with bluetooth", `{"bluetooth_enabled":true,"door_locked":true}`, true, true},
		{"unlocked without bluetooth", `{"bluetooth_enabled":false,"door_locked":false}`, false, false},
		{"missing door_locked reads as locked", `{"bluetooth_enabled":true}`, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			status, err := NewClient(server.URL).GetStatus(context.Background())
			if err != nil {
				t.Fatalf("GetStatus() error = %v", err)
			}
			if status.BluetoothEnabled != tt.wantBluetooth {
				t.Errorf("BluetoothEnabled = %v, want %v", status.BluetoothEnabled, tt.wantBluetooth)
			}
			if status.DoorLocked != tt.wantLocked {
				t.Errorf("DoorLocked = %v, want %v", status.DoorLocked, tt.wantLocked)
			}
		})
	}
}

func TestGet_DecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetStatus(context.Background())
	if err == nil {
		t.Fatal("GetStatus() should fail on a non-JSON body")
	}
	if !IsDecodeError(err) {
		t.Errorf("error should be a decode error, got %v", err)
	}
	if IsTransportError(err) {
		t.Error("decode error must not be reported as a transport error")
	}
}

func TestGet_RequireOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"door_locked":false}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if _, err := c.GetStatus(context.Background()); err != nil {
		t.Fatalf("GetStatus() error = %v, want any 2xx accepted by default", err)
	}

	c.RequireOK = true
	_, err := c.GetStatus(context.Background())
	if !IsHTTPError(err) {
		t.Fatalf("GetStatus() error = %v, want an HTTP error", err)
	}
	if StatusCode(err) != http.StatusAccepted {
		t.Errorf("StatusCode() = %d, want %d", StatusCode(err), http.StatusAccepted)
	}
}

func TestGet_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetOTP(context.Background())
	if !IsHTTPError(err) {
		t.Fatalf("error should be an HTTP error, got %v", err)
	}
	if StatusCode(err) != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", StatusCode(err))
	}
}

func TestGet_TransportFailure(t *testing.T) {
	client := NewClient(closedServerURL())
	client.SetTimeout(time.Second)

	_, err := client.GetStatus(context.Background())
	if err == nil {
		t.Fatal("GetStatus() should fail when the server is down")
	}
	if !IsTransportError(err) {
		t.Errorf("error should be a transport error, got %T: %v", err, err)
	}
}

func TestGet_RetriesTransportFailuresOnly(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetRetry(3, time.Millisecond)

	_, err := client.GetStatus(context.Background())
	if !IsHTTPError(err) {
		t.Fatalf("error should be an HTTP error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1 (HTTP errors are not retried)", calls)
	}
}

func TestPost_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Request method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", ct)
		}

		var req VerifyRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		if req.OTP != "1234" {
			t.Errorf("otp = %s, want 1234", req.OTP)
		}

		_, _ = w.Write([]byte(`{"ok":true,"message":"Unlocked (will relock in 5s)"}`))
	}))
	defer server.Close()

	result, err := NewClient(server.URL).VerifyOTP(context.Background(), "1234")
	if err != nil {
		t.Fatalf("VerifyOTP() error = %v", err)
	}
	if !result.Succeeded {
		t.Error("Succeeded should be true")
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", result.StatusCode)
	}
	if result.Message() != "Unlocked (will relock in 5s)" {
		t.Errorf("Message() = %q", result.Message())
	}
}

func TestPost_ErrorStatusResolves(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantBodyNil bool
	}{
		{"401 with message", http.StatusUnauthorized, `{"ok":false,"message":"Wrong OTP"}`, "Wrong OTP", false},
		{"403 with message", http.StatusForbidden, `{"message":"Bluetooth disabled"}`, "Bluetooth disabled", false},
		{"500 without body", http.StatusInternalServerError, ``, "", true},
		{"502 html body", http.StatusBadGateway, `<h1>bad gateway</h1>`, "", true},
		{"message not a string", http.StatusBadRequest, `{"message":42}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result, err := NewClient(server.URL).Post(context.Background(), PathVerifyOTP, VerifyRequest{OTP: "0000"})
			if err != nil {
				t.Fatalf("Post() error = %v, want nil for an HTTP response", err)
			}
			if result.Succeeded {
				t.Error("Succeeded should be false")
			}
			if result.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", result.StatusCode, tt.status)
			}
			if (result.Body == nil) != tt.wantBodyNil {
				t.Errorf("Body = %v, want nil=%v", result.Body, tt.wantBodyNil)
			}
			if result.Message() != tt.wantMessage {
				t.Errorf("Message() = %q, want %q", result.Message(), tt.wantMessage)
			}
		})
	}
}

func TestPost_EmptyBodyIsObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != "{}" {
			t.Errorf("body = %q, want {}", string(body))
		}
		if r.URL.Path != PathToggleBT {
			t.Errorf("path = %s, want %s", r.URL.Path, PathToggleBT)
		}
		_, _ = w.Write([]byte(`{"bluetooth_enabled":false}`))
	}))
	defer server.Close()

	result, err := NewClient(server.URL).ToggleBluetooth(context.Background())
	if err != nil {
		t.Fatalf("ToggleBluetooth() error = %v", err)
	}
	if !result.Succeeded {
		t.Error("Succeeded should be true")
	}
}

func TestPost_TransportFailure(t *testing.T) {
	client := NewClient(closedServerURL())

	result, err := client.UnlockBluetooth(context.Background())
	if err == nil {
		t.Fatal("UnlockBluetooth() should fail when the server is down")
	}
	if result != nil {
		t.Errorf("result = %+v, want nil on transport failure", result)
	}
	if !IsTransportError(err) {
		t.Errorf("error should be a transport error, got %v", err)
	}
}
