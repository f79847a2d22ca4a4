package panel

import (
	"github.com/muurk/lockpanel/internal/lockapi"
)

// Severity drives how a result message is colored
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeveritySuccess:
		return "success"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ResultMessage is the single message line shown to the user
type ResultMessage struct {
	Text     string   `json:"text"`
	Severity Severity `json:"-"`
}

// Fixed message texts
const (
	MsgVerifying         = "Verifying..."
	MsgUnlocked          = "Unlocked"
	MsgWrongOTP          = "Wrong OTP"
	MsgServerError       = "Server error"
	MsgContactError      = "Error contacting server"
	MsgInputNotFound     = "OTP input not found"
	MsgFetchOTPError     = "Error fetching OTP"
	currentOTPMessageFmt = "Current OTP: %s (changes in %ds)"
)

func info(text string) ResultMessage    { return ResultMessage{Text: text, Severity: SeverityInfo} }
func success(text string) ResultMessage { return ResultMessage{Text: text, Severity: SeveritySuccess} }
func failure(text string) ResultMessage { return ResultMessage{Text: text, Severity: SeverityError} }

// ClassifyVerification turns the outcome of POST /verify_otp into the
// message shown to the user. err is non-nil only when no response arrived.
func ClassifyVerification(result *lockapi.PostResult, err error) ResultMessage {
	if err != nil || result == nil {
		return failure(MsgContactError)
	}

	msg := result.Message()
	if result.Succeeded {
		if msg == "" {
			msg = MsgUnlocked
		}
		return success(msg)
	}

	if msg == "" {
		if result.StatusCode == 401 {
			msg = MsgWrongOTP
		} else {
			msg = MsgServerError
		}
	}
	return failure(msg)
}
