package lockapi

// Endpoint paths served by the lock server
const (
	PathOTP         = "/get_otp"
	PathStatus      = "/status"
	PathVerifyOTP   = "/verify_otp"
	PathUnlockBT    = "/unlock_bt"
	PathToggleBT    = "/toggle_bt"
	PathMediaUnlock = "/media_unlock"
)

// OTPResponse is the body of GET /get_otp
type OTPResponse struct {
	OTP       string `json:"otp"`
	Remaining int    `json:"remaining"`
	Step      int    `json:"step,omitempty"` // Rotation period in seconds (not always sent)
}

// StatusResponse is the body of GET /status
type StatusResponse struct {
	BluetoothEnabled bool `json:"bluetooth_enabled"`
	DoorLocked       bool `json:"door_locked"`
}

// VerifyRequest is the body of POST /verify_otp
type VerifyRequest struct {
	OTP string `json:"otp"`
}

// PostResult is the outcome of a write request that reached the server.
// Body is nil when the response was not a JSON object; Succeeded then
// reflects only the HTTP status class.
type PostResult struct {
	Succeeded  bool
	StatusCode int
	Body       map[string]any
}

// Message returns body.message when the server sent a non-empty string.
func (r *PostResult) Message() string {
	if r == nil || r.Body == nil {
		return ""
	}
	msg, ok := r.Body["message"].(string)
	if !ok {
		return ""
	}
	return msg
}
