package panel

import (
	"fmt"
	"strings"

	"github.com/muurk/lockpanel/internal/lockapi"
)

// DefaultPasscodeDigits is the passcode length the lock server issues
const DefaultPasscodeDigits = 4

// PasscodeMessage is the fallback validation message for a passcode of the
// given length.
func PasscodeMessage(digits int) string {
	return fmt.Sprintf("Please enter a valid %d-digit OTP", digits)
}

// ValidatePasscode checks that value, once trimmed, is exactly digits ASCII
// digits. The error is a lockapi validation error.
func ValidatePasscode(value string, digits int) error {
	value = strings.TrimSpace(value)
	if len(value) != digits {
		return lockapi.NewValidationError(PasscodeMessage(digits))
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return lockapi.NewValidationError(PasscodeMessage(digits))
		}
	}
	return nil
}

// StaticInput is a PasscodeInput over a fixed value, validated by
// ValidatePasscode. Used by the CLI and by tests.
type StaticInput struct {
	Text   string
	Digits int
}

// Value returns the raw text
func (s StaticInput) Value() string { return s.Text }

// Validity applies the passcode shape rule
func (s StaticInput) Validity() (bool, string) {
	digits := s.Digits
	if digits <= 0 {
		digits = DefaultPasscodeDigits
	}
	if err := ValidatePasscode(s.Text, digits); err != nil {
		return false, lockapi.ShortMessage(err)
	}
	return true, ""
}
