package panel

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/lockapi"
)

// VerifyState is the phase of a passcode submission
type VerifyState int

const (
	StateIdle VerifyState = iota
	StateValidating
	StateSubmitting
	StateSettling
)

func (s VerifyState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSettling:
		return "settling"
	default:
		return fmt.Sprintf("VerifyState(%d)", int(s))
	}
}

type verifier struct {
	state VerifyState
}

// verifyState returns the current submission phase. Loop only.
func (p *Panel) verifyState() VerifyState {
	return p.verifier.state
}

func (p *Panel) submit(input PasscodeInput) {
	// The submit control is disabled while a request is outstanding
	if p.verifier.state != StateIdle {
		p.log.Debug("Submission ignored", zap.Stringer("state", p.verifier.state))
		return
	}

	p.verifier.state = StateValidating
	if input == nil {
		p.verifier.state = StateIdle
		p.showResult(failure(MsgInputNotFound))
		return
	}

	if message, ok := p.validate(input); !ok {
		p.verifier.state = StateIdle
		p.showResult(failure(message))
		return
	}

	code := strings.TrimSpace(input.Value())
	p.verifier.state = StateSubmitting
	p.sink.submitDisabled.SetFlag(true)
	p.showResult(info(MsgVerifying))

	p.background(func(ctx context.Context) func() {
		result, err := p.transport.VerifyOTP(ctx, code)
		return func() { p.settle(result, err) }
	})
}

// validate applies the input's own check, then the passcode shape rule
func (p *Panel) validate(input PasscodeInput) (string, bool) {
	valid, message := input.Validity()
	if valid {
		if err := ValidatePasscode(input.Value(), p.cfg.PasscodeDigits); err != nil {
			valid, message = false, err.Error()
		}
	}
	if valid {
		return "", true
	}
	if message == "" {
		message = PasscodeMessage(p.cfg.PasscodeDigits)
	}
	return message, false
}

func (p *Panel) settle(result *lockapi.PostResult, err error) {
	p.verifier.state = StateSettling
	defer func() {
		p.sink.submitDisabled.SetFlag(false)
		p.verifier.state = StateIdle
		p.refreshStatus()
	}()

	if err != nil {
		p.log.Warn("Passcode verification failed", zap.Error(err))
	}
	p.showResult(ClassifyVerification(result, err))
}
